package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadpilot/lead-dashboard/internal/models"
)

func newTestStore(t *testing.T) *store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := openStore("file:" + name + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.close() })
	return st
}

func newTestRouter(t *testing.T) (*gin.Engine, *store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := newTestStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return newRouter(st, &analyzer{}, logger), st
}

func serve(r http.Handler, method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeCategories(t *testing.T) {
	a := analyzer{}
	cases := []struct {
		notes    string
		score    float64
		category string
		queue    string
	}{
		{"CEO. Budget approved, we need to fix churn ASAP.", 100, "Hot", "Sales"},
		{"Director, looking for a new tool.", 70, "Warm", "Presales"},
		{"Just browsing.", 40, "Cold", "Nurture"},
	}
	for _, tc := range cases {
		result, err := a.analyze(models.LeadInput{Email: "a@b.com", Notes: tc.notes}, models.Settings{})
		require.NoError(t, err)
		assert.Equal(t, tc.score, result.LeadScore.Score, tc.notes)
		assert.Equal(t, tc.category, result.LeadScore.Category, tc.notes)
		assert.Equal(t, tc.queue, result.RoutingDecision.Queue, tc.notes)
		assert.Nil(t, result.EnrichmentData.CompanyInfo)
	}
}

func TestAnalyzeRejectsInvalidEmail(t *testing.T) {
	_, err := analyzer{}.analyze(models.LeadInput{Email: "invalid@example.com"}, models.Settings{})
	assert.ErrorIs(t, err, errInvalidEmail)
}

func TestAnalyzeEnrichment(t *testing.T) {
	result, err := analyzer{}.analyze(models.LeadInput{Email: "a@b.com", CompanyName: "Tiny Startup"}, models.Settings{EnrichmentEnabled: true})
	require.NoError(t, err)
	assert.Equal(t, "Software", result.EnrichmentData.CompanyInfo["industry"])

	lead := leadFromAnalysis(result)
	require.NotNil(t, lead.EmailValid)
	assert.True(t, *lead.EmailValid)
	assert.Len(t, lead.FollowUpQuestions, 4)
}

func TestStoreStats(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	st.now = func() time.Time { return now.AddDate(0, 0, -1) }
	_, err := st.createLead(ctx, models.Lead{FirstName: "Old", Score: 40, Category: "Cold"})
	require.NoError(t, err)

	st.now = func() time.Time { return now }
	_, err = st.createLead(ctx, models.Lead{FirstName: "New", Score: 90, Category: "Hot", CompanyInfo: map[string]any{"industry": "Retail"}})
	require.NoError(t, err)
	_, err = st.createLead(ctx, models.Lead{FirstName: "Mid", Score: 65, Category: "Warm"})
	require.NoError(t, err)

	stats, err := st.stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalLeads)
	assert.Equal(t, 1, stats.QualifiedLeads)
	assert.Equal(t, 65.0, stats.AvgScore)
	assert.Equal(t, 2, stats.NewLeadsToday)
	assert.Equal(t, []models.CategoryCount{{Name: "Cold", Leads: 1}, {Name: "Hot", Leads: 1}, {Name: "Warm", Leads: 1}}, stats.LeadsByCategory)

	leads, err := st.listLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{leads[0].ID, leads[1].ID, leads[2].ID})
	assert.Equal(t, "Retail", leads[1].CompanyField("industry"))
}

func TestSeedIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.seed(ctx, &analyzer{}))
	require.NoError(t, st.seed(ctx, &analyzer{}))

	leads, err := st.listLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, len(demoLeads))
}

func TestRouterEndpoints(t *testing.T) {
	r, _ := newTestRouter(t)

	input := models.LeadInput{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@engines.io",
		CompanyName: "Analytical Engines",
		Notes:       "Head of R&D, budget approved, need it this quarter.",
	}
	body, _ := json.Marshal(input)
	rec := serve(r, http.MethodPost, "/api/v1/analyze", "application/json", bytes.NewReader(body))
	require.Equal(t, http.StatusOK, rec.Code)
	var analyzed models.AnalyzedLead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &analyzed))
	assert.Equal(t, "Hot", analyzed.LeadScore.Category)

	input.Email = "invalid@engines.io"
	body, _ = json.Marshal(input)
	rec = serve(r, http.MethodPost, "/api/v1/analyze", "application/json", bytes.NewReader(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(r, http.MethodGet, "/api/v1/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var leads []models.Lead
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &leads))
	require.Len(t, leads, 1)
	assert.Equal(t, "Sales", leads[0].Queue)

	rec = serve(r, http.MethodGet, "/api/v1/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalLeads)

	update, _ := json.Marshal(models.SettingsUpdate{SelectedModel: "gemini-1.5-pro", EnrichmentEnabled: true})
	rec = serve(r, http.MethodPut, "/api/v1/settings", "application/json", bytes.NewReader(update))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(r, http.MethodGet, "/api/v1/settings", "", nil)
	var settings models.Settings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	assert.Equal(t, "gemini-1.5-pro", settings.SelectedModel)
	assert.True(t, settings.EnrichmentEnabled)
	assert.False(t, settings.AutoRoutingEnabled)
	assert.Len(t, settings.AvailableModels, 2)
}

func TestLogin(t *testing.T) {
	r, _ := newTestRouter(t)
	form := "application/x-www-form-urlencoded"

	rec := serve(r, http.MethodPost, "/api/v1/auth/login", form, strings.NewReader(url.Values{"username": {adminUser}, "password": {adminPassword}}.Encode()))
	require.Equal(t, http.StatusOK, rec.Code)
	var token models.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "bearer", token.TokenType)

	rec = serve(r, http.MethodPost, "/api/v1/auth/login", form, strings.NewReader(url.Values{"username": {adminUser}, "password": {"nope"}}.Encode()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
