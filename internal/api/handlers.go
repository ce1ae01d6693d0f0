package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/leadpilot/lead-dashboard/internal/config"
	"github.com/leadpilot/lead-dashboard/internal/metrics"
	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/query"
	"github.com/leadpilot/lead-dashboard/internal/services"
	"github.com/leadpilot/lead-dashboard/internal/utils"
	"github.com/leadpilot/lead-dashboard/internal/views"
)

// Dashboard is the application surface the handlers drive.
type Dashboard interface {
	Overview(ctx context.Context) (services.Overview, error)
	LoadLeads(ctx context.Context, sessionID string) (services.LeadsPage, error)
	CurrentLeads(ctx context.Context, sessionID string) (services.LeadsPage, error)
	Search(ctx context.Context, sessionID, term string) (services.LeadsPage, error)
	Filter(ctx context.Context, sessionID string, status query.Status, band query.ScoreBand) (services.LeadsPage, error)
	Step(ctx context.Context, sessionID string, dir services.PageDirection) (services.LeadsPage, error)
	GoToPage(ctx context.Context, sessionID string, page int) (services.LeadsPage, error)
	LeadDetails(ctx context.Context, sessionID string, id int) (models.Lead, bool, error)
	LeaveLeads(ctx context.Context, sessionID string) error
	EndSession(ctx context.Context, sessionID string) error
	Analyze(ctx context.Context, input models.LeadInput) (models.AnalyzedLead, error)
	Settings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, update models.SettingsUpdate) error
	Login(ctx context.Context, creds models.Credentials) (models.Token, error)
}

// Handlers serves the dashboard pages as HTML or JSON.
type Handlers struct {
	logger    *slog.Logger
	dashboard Dashboard
	auth      config.AuthConfig
	sessionCk string
}

// pageView is the envelope handed to templates and JSON clients.
type pageView struct {
	Title         string `json:"-"`
	Authenticated bool   `json:"-"`
	Alert         string `json:"alert,omitempty"`
	Notice        string `json:"notice,omitempty"`
	Data          any    `json:"data"`
}

type leadsData struct {
	services.LeadsPage
	Statuses []query.Status    `json:"-"`
	Bands    []query.ScoreBand `json:"-"`
}

type loginData struct {
	Username string `json:"username,omitempty"`
}

type scoringData struct {
	Input  models.LeadInput     `json:"input"`
	Result *models.AnalyzedLead `json:"result,omitempty"`
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// LoginPage renders the login form.
func (h *Handlers) LoginPage(c *gin.Context) {
	h.leave(c)
	h.render(c, http.StatusOK, "login.html", pageView{Title: "Sign in", Data: loginData{}})
}

// Login exchanges credentials with the backend and stores the token cookie.
func (h *Handlers) Login(c *gin.Context) {
	var creds models.Credentials
	if err := c.ShouldBind(&creds); err != nil {
		h.render(c, http.StatusBadRequest, "login.html", pageView{Title: "Sign in", Alert: "Username and password are required.", Data: loginData{Username: creds.Username}})
		return
	}

	token, err := h.dashboard.Login(c.Request.Context(), creds)
	if err != nil {
		h.render(c, http.StatusUnauthorized, "login.html", pageView{
			Title: "Sign in",
			Alert: utils.UserMessage(err, "Incorrect username or password"),
			Data:  loginData{Username: creds.Username},
		})
		return
	}

	h.setCookie(c, h.auth.CookieName, token.AccessToken, int(h.auth.CookieMaxAge.Seconds()))
	if wantsJSON(c) {
		c.JSON(http.StatusOK, pageView{Data: token})
		return
	}
	c.Redirect(http.StatusSeeOther, h.auth.LandingPath)
}

// Logout clears the token cookie and retires the browser session.
func (h *Handlers) Logout(c *gin.Context) {
	if sid, err := c.Cookie(h.sessionCk); err == nil && sid != "" {
		if err := h.dashboard.EndSession(c.Request.Context(), sid); err != nil {
			h.logger.Warn("failed to end session", slog.Any("error", err))
		}
		h.setCookie(c, h.sessionCk, "", -1)
	}
	h.setCookie(c, h.auth.CookieName, "", -1)
	if wantsJSON(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, h.auth.LoginPath)
}

// Dashboard renders the stats cards and the most recent leads. Failures render empty.
func (h *Handlers) Dashboard(c *gin.Context) {
	h.leave(c)
	overview, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		overview = services.Overview{Recent: []models.Lead{}}
	}
	h.render(c, http.StatusOK, "dashboard.html", pageView{Title: "Dashboard", Authenticated: true, Data: overview})
}

// Leads is a page load: the query resets and the collection is fetched again.
func (h *Handlers) Leads(c *gin.Context) {
	page, err := h.dashboard.LoadLeads(c.Request.Context(), h.session(c))
	if err != nil {
		h.logger.Error("failed to load leads view", slog.Any("error", err))
		h.renderError(c, http.StatusInternalServerError, "Failed to load leads.")
		return
	}
	h.renderLeads(c, page)
}

// CurrentLeads re-renders the loaded view with its query intact.
func (h *Handlers) CurrentLeads(c *gin.Context) {
	page, err := h.dashboard.CurrentLeads(c.Request.Context(), h.session(c))
	h.respondLeads(c, page, err)
}

// SearchLeads replaces the search term.
func (h *Handlers) SearchLeads(c *gin.Context) {
	page, err := h.dashboard.Search(c.Request.Context(), h.session(c), c.PostForm("search"))
	h.respondLeads(c, page, err)
}

// FilterLeads replaces the status and score filters.
func (h *Handlers) FilterLeads(c *gin.Context) {
	status := query.ParseStatus(c.PostForm("status"))
	band := query.ParseScoreBand(c.PostForm("score"))
	page, err := h.dashboard.Filter(c.Request.Context(), h.session(c), status, band)
	h.respondLeads(c, page, err)
}

// PageLeads steps with dir=next|prev or jumps to an explicit page.
func (h *Handlers) PageLeads(c *gin.Context) {
	ctx := c.Request.Context()
	sid := h.session(c)

	var (
		page services.LeadsPage
		err  error
	)
	switch dir := services.PageDirection(c.PostForm("dir")); dir {
	case services.PageNext, services.PagePrev:
		page, err = h.dashboard.Step(ctx, sid, dir)
	case "":
		n, convErr := strconv.Atoi(c.PostForm("page"))
		if convErr != nil {
			h.renderError(c, http.StatusBadRequest, "page must be a number")
			return
		}
		page, err = h.dashboard.GoToPage(ctx, sid, n)
	default:
		h.renderError(c, http.StatusBadRequest, "dir must be next or prev")
		return
	}
	h.respondLeads(c, page, err)
}

// LeadDetails shows one lead from the loaded snapshot.
func (h *Handlers) LeadDetails(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		h.renderError(c, http.StatusBadRequest, "lead id must be a number")
		return
	}

	lead, ok, err := h.dashboard.LeadDetails(c.Request.Context(), h.session(c), id)
	switch {
	case errors.Is(err, views.ErrNotMounted):
		h.notMounted(c)
		return
	case err != nil:
		h.logger.Error("failed to read lead", slog.Int("id", id), slog.Any("error", err))
		h.renderError(c, http.StatusInternalServerError, "Failed to load lead.")
		return
	case !ok:
		h.renderError(c, http.StatusNotFound, "Lead not found.")
		return
	}
	h.render(c, http.StatusOK, "lead.html", pageView{Title: lead.FullName(), Authenticated: true, Data: lead})
}

// ScoringPage renders the submission form.
func (h *Handlers) ScoringPage(c *gin.Context) {
	h.leave(c)
	h.render(c, http.StatusOK, "scoring.html", pageView{Title: "Lead scoring", Authenticated: true, Data: scoringData{}})
}

// SubmitScoring forwards the form to the analysis endpoint. A failure is shown as an alert.
func (h *Handlers) SubmitScoring(c *gin.Context) {
	h.leave(c)
	var input models.LeadInput
	if err := c.ShouldBind(&input); err != nil {
		h.renderScoring(c, http.StatusBadRequest, pageView{
			Alert: "Please fill in every field with a valid email address.",
			Data:  scoringData{Input: input},
		})
		return
	}

	result, err := h.dashboard.Analyze(c.Request.Context(), input)
	if err != nil {
		h.renderScoring(c, http.StatusBadGateway, pageView{
			Alert: utils.UserMessage(err, "Failed to analyze lead. Check backend connection."),
			Data:  scoringData{Input: input},
		})
		return
	}
	h.renderScoring(c, http.StatusOK, pageView{Notice: "Lead analyzed.", Data: scoringData{Result: &result}})
}

func (h *Handlers) renderScoring(c *gin.Context, status int, view pageView) {
	view.Title = "Lead scoring"
	view.Authenticated = true
	h.render(c, status, "scoring.html", view)
}

// SettingsPage renders the current settings. A failed load renders an empty form.
func (h *Handlers) SettingsPage(c *gin.Context) {
	h.leave(c)
	settings, err := h.dashboard.Settings(c.Request.Context())
	if err != nil {
		settings = models.Settings{}
	}
	h.render(c, http.StatusOK, "settings.html", pageView{Title: "Settings", Authenticated: true, Data: settings})
}

// SaveSettings persists the form. A failure is shown as an alert.
func (h *Handlers) SaveSettings(c *gin.Context) {
	h.leave(c)
	var update models.SettingsUpdate
	if err := c.ShouldBind(&update); err != nil {
		h.renderError(c, http.StatusBadRequest, "Invalid settings.")
		return
	}

	ctx := c.Request.Context()
	if err := h.dashboard.SaveSettings(ctx, update); err != nil {
		h.render(c, http.StatusBadGateway, "settings.html", pageView{
			Title:         "Settings",
			Authenticated: true,
			Alert:         utils.UserMessage(err, "Failed to save settings."),
			Data:          settingsFromUpdate(update),
		})
		return
	}

	settings, err := h.dashboard.Settings(ctx)
	if err != nil {
		settings = settingsFromUpdate(update)
	}
	h.render(c, http.StatusOK, "settings.html", pageView{Title: "Settings", Authenticated: true, Notice: "Settings saved.", Data: settings})
}

func (h *Handlers) respondLeads(c *gin.Context, page services.LeadsPage, err error) {
	switch {
	case errors.Is(err, views.ErrNotMounted):
		h.notMounted(c)
	case err != nil:
		h.logger.Error("failed to update leads view", slog.Any("error", err))
		h.renderError(c, http.StatusInternalServerError, "Failed to update leads.")
	default:
		h.renderLeads(c, page)
	}
}

func (h *Handlers) renderLeads(c *gin.Context, page services.LeadsPage) {
	h.render(c, http.StatusOK, "leads.html", pageView{
		Title:         "Leads",
		Authenticated: true,
		Data: leadsData{
			LeadsPage: page,
			Statuses:  []query.Status{query.StatusAll, query.StatusQualified, query.StatusPending, query.StatusRejected},
			Bands:     []query.ScoreBand{query.BandAll, query.BandLow, query.BandMedium, query.BandHigh},
		},
	})
}

// notMounted sends interactions that arrive without a loaded view back to a page load.
func (h *Handlers) notMounted(c *gin.Context) {
	if wantsJSON(c) {
		c.JSON(http.StatusConflict, pageView{Alert: "Leads view is not loaded."})
		return
	}
	c.Redirect(http.StatusSeeOther, "/leads")
}

func (h *Handlers) renderError(c *gin.Context, status int, msg string) {
	h.render(c, status, "error.html", pageView{Title: "Error", Authenticated: h.hasToken(c), Alert: msg})
}

func (h *Handlers) render(c *gin.Context, status int, name string, view pageView) {
	metrics.ObservePageRender(strings.TrimSuffix(name, ".html"))
	if wantsJSON(c) {
		c.JSON(status, view)
		return
	}
	c.HTML(status, name, view)
}

// leave unmounts the session's leads view when it navigates to another page.
func (h *Handlers) leave(c *gin.Context) {
	sid, err := c.Cookie(h.sessionCk)
	if err != nil || sid == "" {
		return
	}
	if err := h.dashboard.LeaveLeads(c.Request.Context(), sid); err != nil {
		h.logger.Warn("failed to unmount leads view", slog.Any("error", err))
	}
}

// session returns the browser session id, issuing one when absent.
func (h *Handlers) session(c *gin.Context) string {
	if sid, err := c.Cookie(h.sessionCk); err == nil && sid != "" {
		return sid
	}
	sid := uuid.NewString()
	h.setCookie(c, h.sessionCk, sid, 0)
	return sid
}

func (h *Handlers) hasToken(c *gin.Context) bool {
	v, err := c.Cookie(h.auth.CookieName)
	return err == nil && v != ""
}

func (h *Handlers) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", h.auth.SecureCookie, true)
}

func wantsJSON(c *gin.Context) bool {
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func settingsFromUpdate(update models.SettingsUpdate) models.Settings {
	return models.Settings{
		SelectedModel:      update.SelectedModel,
		AutoRoutingEnabled: update.AutoRoutingEnabled,
		EnrichmentEnabled:  update.EnrichmentEnabled,
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}
