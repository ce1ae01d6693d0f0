package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/query"
	"github.com/leadpilot/lead-dashboard/internal/repo"
	"github.com/leadpilot/lead-dashboard/internal/utils"
)

type leadsOptions struct {
	search   string
	status   string
	score    string
	page     int
	pageSize int
	recent   int
	asJSON   bool
}

var leadsOpts leadsOptions

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Print a filtered page of leads from the backend",
	Example: `  lead-dashboard leads --search acme --score high
  lead-dashboard leads --page 2 --page-size 20
  lead-dashboard leads --recent 5`,
	Args: cobra.NoArgs,
	RunE: runLeads,
}

func init() {
	f := leadsCmd.Flags()
	f.StringVar(&leadsOpts.search, "search", "", "Case-insensitive match on name, email or company")
	f.StringVar(&leadsOpts.status, "status", "all", "Status filter: all, qualified, pending, rejected")
	f.StringVar(&leadsOpts.score, "score", "all", "Score band: all, low, medium, high")
	f.IntVar(&leadsOpts.page, "page", 1, "Page to print")
	f.IntVar(&leadsOpts.pageSize, "page-size", 0, "Leads per page (defaults to dashboard.pageSize)")
	f.IntVar(&leadsOpts.recent, "recent", 0, "Print the N most recent leads instead of a page")
	f.BoolVar(&leadsOpts.asJSON, "json", false, "Print JSON instead of a table")
}

func runLeads(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := utils.NewLoggerTo(os.Stderr, cfg.Logging.Level, cfg.Logging.JSON)

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Clients.Backend.Timeout)
	defer cancel()

	client := repo.NewBackendClient(cfg.Clients.Backend.BaseURL, cfg.Clients.Backend.Timeout, logger)
	leads, err := client.ListLeads(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if leadsOpts.recent > 0 {
		recent := query.SelectRecent(leads, leadsOpts.recent)
		if leadsOpts.asJSON {
			return writeJSON(out, recent)
		}
		_, err := fmt.Fprintln(out, renderLeads(recent, isTerminal(out)))
		return err
	}

	pageSize := leadsOpts.pageSize
	if pageSize <= 0 {
		pageSize = cfg.Dashboard.PageSize
	}
	page := evaluate(leads, leadsOpts, pageSize)
	if leadsOpts.asJSON {
		return writeJSON(out, page)
	}
	if _, err := fmt.Fprintln(out, renderLeads(page.Leads, isTerminal(out))); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "page %d of %d, %d matching leads\n", page.Page, page.TotalPages, page.Matched)
	return err
}

func evaluate(leads []models.Lead, opts leadsOptions, pageSize int) query.Page {
	state := query.NewState()
	state.SetSearch(opts.search)
	state.SetStatus(query.ParseStatus(opts.status))
	state.SetScoreBand(query.ParseScoreBand(opts.score))
	state.GoTo(opts.page)
	return state.Evaluate(leads, pageSize)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	badgeStyles = map[query.Badge]lipgloss.Style{
		query.BadgeDefault:     cellStyle.Foreground(lipgloss.Color("2")),
		query.BadgeDestructive: cellStyle.Foreground(lipgloss.Color("1")),
		query.BadgeOutline:     cellStyle.Foreground(lipgloss.Color("8")),
	}
)

func renderLeads(leads []models.Lead, styled bool) string {
	rows := make([][]string, 0, len(leads))
	for _, lead := range leads {
		rows = append(rows, []string{
			strconv.Itoa(lead.ID),
			lead.FullName(),
			lead.Email,
			lead.CompanyName,
			strconv.FormatFloat(lead.Score, 'f', 0, 64),
			lead.Category,
			lead.Queue,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "EMAIL", "COMPANY", "SCORE", "CATEGORY", "QUEUE").
		Rows(rows...)
	if styled {
		t = t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 && row >= 0 && row < len(leads) {
				return badgeStyles[query.BadgeFor(leads[row].Category)]
			}
			return cellStyle
		})
	}
	return t.String()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
