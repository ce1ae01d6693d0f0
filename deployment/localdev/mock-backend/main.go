// Command mock-backend serves the lead backend API from a local sqlite database for
// development against the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/utils"
)

const (
	adminUser     = "admin@example.com"
	adminPassword = "admin123"
)

func main() {
	var (
		addr string
		dsn  string
	)
	flag.StringVar(&addr, "addr", ":8000", "Listen address")
	flag.StringVar(&dsn, "db", "file::memory:?cache=shared", "sqlite DSN")
	flag.Parse()

	logger := utils.NewLogger("info", false)

	st, err := openStore(dsn)
	if err != nil {
		logger.Error("failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer st.close()

	if err := st.seed(context.Background(), &analyzer{}); err != nil {
		logger.Error("failed to seed demo leads", slog.Any("error", err))
		os.Exit(1)
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(st, &analyzer{}, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("mock backend listening", slog.String("address", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("mock backend exited", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newRouter(st *store, a *analyzer, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	v1 := r.Group("/api/v1")
	{
		v1.GET("/", func(c *gin.Context) {
			leads, err := st.listLeads(c.Request.Context())
			if err != nil {
				internalError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, leads)
		})

		v1.GET("/stats", func(c *gin.Context) {
			stats, err := st.stats(c.Request.Context())
			if err != nil {
				internalError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, stats)
		})

		v1.POST("/analyze", func(c *gin.Context) {
			var input models.LeadInput
			if err := c.ShouldBindJSON(&input); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
				return
			}
			ctx := c.Request.Context()
			settings, err := st.settings(ctx)
			if err != nil {
				internalError(c, logger, err)
				return
			}
			result, err := a.analyze(input, settings)
			if errors.Is(err, errInvalidEmail) {
				c.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid email address provided."})
				return
			}
			if err != nil {
				internalError(c, logger, err)
				return
			}
			if _, err := st.createLead(ctx, leadFromAnalysis(result)); err != nil {
				internalError(c, logger, err)
				return
			}
			logger.Info("lead analyzed", slog.String("email", input.Email), slog.Float64("score", result.LeadScore.Score))
			c.JSON(http.StatusOK, result)
		})

		v1.GET("/settings", func(c *gin.Context) {
			settings, err := st.settings(c.Request.Context())
			if err != nil {
				internalError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, settings)
		})

		v1.PUT("/settings", func(c *gin.Context) {
			var update models.SettingsUpdate
			if err := c.ShouldBindJSON(&update); err != nil {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
				return
			}
			settings, err := st.updateSettings(c.Request.Context(), update)
			if err != nil {
				internalError(c, logger, err)
				return
			}
			c.JSON(http.StatusOK, settings)
		})

		v1.POST("/auth/login", func(c *gin.Context) {
			if c.PostForm("username") != adminUser || c.PostForm("password") != adminPassword {
				c.Header("WWW-Authenticate", "Bearer")
				c.JSON(http.StatusUnauthorized, gin.H{"detail": "Incorrect username or password"})
				return
			}
			c.JSON(http.StatusOK, models.Token{AccessToken: uuid.NewString(), TokenType: "bearer"})
		})
	}
	return r
}

func internalError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Error("request failed", slog.String("path", c.Request.URL.Path), slog.Any("error", err))
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
}
