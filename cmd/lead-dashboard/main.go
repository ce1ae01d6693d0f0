// Command lead-dashboard serves the lead management dashboard and offers a terminal
// view of the lead list.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leadpilot/lead-dashboard/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "lead-dashboard",
	Short:         "Lead management dashboard",
	Long:          `Lists, filters and displays analyzed sales leads fetched from the lead backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file (defaults to $LEAD_DASHBOARD_CONFIG)")
	rootCmd.AddCommand(serveCmd, leadsCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
