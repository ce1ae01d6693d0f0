package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/leadpilot/lead-dashboard/internal/config"
	"github.com/leadpilot/lead-dashboard/internal/guard"
	"github.com/leadpilot/lead-dashboard/internal/query"
)

//go:embed templates/*.html
var templateFS embed.FS

// RouterConfig carries the settings the HTTP surface needs.
type RouterConfig struct {
	Auth          config.AuthConfig
	SessionCookie string
}

// NewRouter assembles the dashboard routes behind the route guard.
func NewRouter(logger *slog.Logger, dashboard Dashboard, cfg RouterConfig) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SessionCookie == "" {
		cfg.SessionCookie = "lead_dashboard_sid"
	}

	policy := guard.Policy{
		CookieName:     cfg.Auth.CookieName,
		LoginPath:      cfg.Auth.LoginPath,
		LandingPath:    cfg.Auth.LandingPath,
		ProtectedPaths: cfg.Auth.ProtectedPaths,
		PublicPrefixes: cfg.Auth.PublicPrefixes,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger), policy.Middleware())
	r.SetHTMLTemplate(parseTemplates())

	h := &Handlers{
		logger:    logger,
		dashboard: dashboard,
		auth:      cfg.Auth,
		sessionCk: cfg.SessionCookie,
	}

	r.GET("/healthz", h.Health)
	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, policy.LandingPath) })

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	r.GET("/dashboard", h.Dashboard)

	leads := r.Group("/leads")
	{
		leads.GET("", h.Leads)
		leads.GET("/current", h.CurrentLeads)
		leads.POST("/search", h.SearchLeads)
		leads.POST("/filter", h.FilterLeads)
		leads.POST("/page", h.PageLeads)
		leads.GET("/:id", h.LeadDetails)
	}

	r.GET("/scoring", h.ScoringPage)
	r.POST("/scoring", h.SubmitScoring)

	r.GET("/settings", h.SettingsPage)
	r.POST("/settings", h.SaveSettings)

	return r
}

func parseTemplates() *template.Template {
	funcs := template.FuncMap{
		"badge": func(category string) string { return string(query.BadgeFor(category)) },
		"score": formatScore,
		"deref": func(b *bool) bool { return b != nil && *b },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}
