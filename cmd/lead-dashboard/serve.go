package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/leadpilot/lead-dashboard/internal/api"
	"github.com/leadpilot/lead-dashboard/internal/cache"
	"github.com/leadpilot/lead-dashboard/internal/config"
	"github.com/leadpilot/lead-dashboard/internal/metrics"
	"github.com/leadpilot/lead-dashboard/internal/repo"
	"github.com/leadpilot/lead-dashboard/internal/services"
	"github.com/leadpilot/lead-dashboard/internal/utils"
	"github.com/leadpilot/lead-dashboard/internal/views"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting lead-dashboard",
		slog.String("address", cfg.Server.Address),
		slog.String("backend", cfg.Clients.Backend.BaseURL),
	)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		return err
	}

	provider := viewProvider(cfg.Sessions, logger)
	defer provider.Close()

	backend := repo.NewBackendClient(cfg.Clients.Backend.BaseURL, cfg.Clients.Backend.Timeout, logger)
	logger.Info("lead backend configured", slog.String("base_url", backend.BaseURL()), slog.Duration("timeout", cfg.Clients.Backend.Timeout))
	store := views.NewStore(provider, cfg.Sessions.TTL, logger)
	dashboard := services.NewDashboardService(logger, backend, store, services.Options{
		PageSize:    cfg.Dashboard.PageSize,
		RecentLeads: cfg.Dashboard.RecentLeads,
	})

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(logger, dashboard, api.RouterConfig{
		Auth:          cfg.Auth,
		SessionCookie: cfg.Sessions.CookieName,
	})

	server, err := api.NewServer(cfg.Server, router)
	if err != nil {
		logger.Error("failed to create HTTP server", slog.Any("error", err))
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var healthServer *api.HealthServer
	if cfg.Server.GRPCAddress != "" {
		healthServer, err = api.NewHealthServer(cfg.Server.GRPCAddress)
		if err != nil {
			logger.Error("failed to create gRPC health server", slog.Any("error", err))
			return err
		}
		go func() {
			logger.Info("gRPC health server listening", slog.String("address", healthServer.Address()))
			if serveErr := healthServer.Start(); serveErr != nil {
				logger.Error("gRPC health server exited", slog.Any("error", serveErr))
				stop()
			}
		}()
	}

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		logger.Info("dashboard listening", slog.String("address", server.Address()))
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("HTTP server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.GracefulTimeout())
	defer cancel()
	if healthServer != nil {
		healthServer.SetServing(false)
	}
	server.Shutdown(shutdownCtx)
	if healthServer != nil {
		healthServer.Shutdown(shutdownCtx)
	}

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	logger.Info("lead-dashboard stopped")
	return nil
}

// viewProvider picks where mounted leads views live. Redis is used when enabled and
// reachable; otherwise state stays in process memory.
func viewProvider(cfg config.SessionsConfig, logger *slog.Logger) cache.Provider {
	if !cfg.Redis.Enabled || cfg.Redis.Addr == "" {
		return cache.NewMemoryProvider()
	}
	provider, err := cache.NewRedisProvider(cache.RedisConfig{
		Addr:         cfg.Redis.Addr,
		Username:     cfg.Redis.Username,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
		MaxRetries:   cfg.Redis.MaxRetries,
		TLS:          cfg.Redis.TLS,
	})
	if err != nil {
		logger.Warn("redis view store unavailable, using memory", slog.Any("error", err))
		return cache.NewMemoryProvider()
	}
	return provider
}
