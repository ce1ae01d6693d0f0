package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/leadpilot/lead-dashboard/internal/metrics"
	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/utils"
)

const (
	leadsPath    = "/"
	statsPath    = "/stats"
	analyzePath  = "/analyze"
	settingsPath = "/settings"
	loginPath    = "/auth/login"
)

// BackendClient wraps the lead backend REST API. Every call resolves against the same
// base URL.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	latencies  *utils.LatencyTracker
}

// NewBackendClient constructs a client targeting the configured backend instance.
func NewBackendClient(baseURL string, timeout time.Duration, logger *slog.Logger) *BackendClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:    logger,
		latencies: utils.NewLatencyTracker(512),
	}
}

// BaseURL returns the normalised base URL.
func (c *BackendClient) BaseURL() string { return c.baseURL }

// ListLeads fetches the full, unsorted lead collection.
func (c *BackendClient) ListLeads(ctx context.Context) ([]models.Lead, error) {
	var leads []models.Lead
	if err := c.call(ctx, "leads", http.MethodGet, leadsPath, nil, &leads); err != nil {
		return nil, utils.NewAppError("backend.ListLeads", "failed to fetch leads", err)
	}
	if leads == nil {
		leads = []models.Lead{}
	}
	return leads, nil
}

// Stats fetches the dashboard counters.
func (c *BackendClient) Stats(ctx context.Context) (models.DashboardStats, error) {
	var stats models.DashboardStats
	if err := c.call(ctx, "stats", http.MethodGet, statsPath, nil, &stats); err != nil {
		return models.DashboardStats{}, utils.NewAppError("backend.Stats", "failed to fetch dashboard stats", err)
	}
	return stats, nil
}

// Analyze submits a lead for scoring and returns the analysis.
func (c *BackendClient) Analyze(ctx context.Context, input models.LeadInput) (models.AnalyzedLead, error) {
	var analyzed models.AnalyzedLead
	if err := c.call(ctx, "analyze", http.MethodPost, analyzePath, input, &analyzed); err != nil {
		return models.AnalyzedLead{}, utils.NewAppError("backend.Analyze", "Failed to analyze lead. Check backend connection.", err)
	}
	return analyzed, nil
}

// Settings loads the backend settings document.
func (c *BackendClient) Settings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	if err := c.call(ctx, "settings_get", http.MethodGet, settingsPath, nil, &settings); err != nil {
		return models.Settings{}, utils.NewAppError("backend.Settings", "Failed to load settings.", err)
	}
	return settings, nil
}

// UpdateSettings persists the editable settings.
func (c *BackendClient) UpdateSettings(ctx context.Context, update models.SettingsUpdate) error {
	if err := c.call(ctx, "settings_put", http.MethodPut, settingsPath, update, nil); err != nil {
		return utils.NewAppError("backend.UpdateSettings", "Failed to save settings.", err)
	}
	return nil
}

// Login exchanges credentials for an access token.
func (c *BackendClient) Login(ctx context.Context, creds models.Credentials) (models.Token, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	var token models.Token
	err := c.do(ctx, "login", http.MethodPost, loginPath, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &token)
	if err != nil {
		return models.Token{}, utils.NewAppError("backend.Login", "Incorrect username or password", err)
	}
	if token.AccessToken == "" {
		return models.Token{}, utils.NewAppError("backend.Login", "Incorrect username or password", fmt.Errorf("empty access token"))
	}
	return token, nil
}

func (c *BackendClient) call(ctx context.Context, endpoint, method, p string, payload any, out any) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.do(ctx, endpoint, method, p, contentType, body, out)
}

func (c *BackendClient) do(ctx context.Context, endpoint, method, p, contentType string, body io.Reader, out any) (err error) {
	if c == nil {
		return fmt.Errorf("backend client not initialised")
	}
	target := c.resolvePath(p)
	if target == "" {
		return fmt.Errorf("backend base URL not configured")
	}

	start := time.Now()
	defer func() {
		c.observe(endpoint, time.Since(start), err)
	}()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *BackendClient) observe(endpoint string, d time.Duration, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		c.logger.Warn("backend call failed", slog.String("endpoint", endpoint), slog.Duration("duration", d), slog.Any("error", err))
	}
	metrics.ObserveBackendCall(endpoint, d, outcome)

	c.latencies.Observe(d)
	if summary := c.latencies.Summary(); summary.Total%20 == 0 {
		c.logger.Info("backend latency",
			slog.Duration("p50", summary.P50),
			slog.Duration("p95", summary.P95),
			slog.Duration("max", summary.Max),
			slog.Int("samples", summary.Samples),
		)
	}
}

func (c *BackendClient) resolvePath(p string) string {
	if c.baseURL == "" {
		return ""
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL + "/" + strings.TrimLeft(p, "/")
	}
	joined := path.Join(u.Path, "/"+strings.TrimLeft(p, "/"))
	if (p == "/" || p == "") && !strings.HasSuffix(joined, "/") {
		// The leads collection is served at the API root, trailing slash included.
		joined += "/"
	}
	u.Path = joined
	return u.String()
}
