package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leadpilot/lead-dashboard/internal/models"
	"github.com/leadpilot/lead-dashboard/internal/utils"
)

type transportFunc func(*http.Request) (*http.Response, error)

func (f transportFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// stub routes every request of c through fn, keeping the client timeout.
func stub(c *BackendClient, fn transportFunc) {
	c.httpClient.Transport = fn
}

func jsonResponse(t *testing.T, status int, payload any) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     make(http.Header),
	}
}

func TestListLeadsUsesSharedBaseURL(t *testing.T) {
	client := NewBackendClient("http://localhost:8000/api/v1/", time.Second, nil)
	stub(client, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodGet {
			t.Fatalf("unexpected method: %s", req.Method)
		}
		if req.URL.String() != "http://localhost:8000/api/v1/" {
			t.Fatalf("unexpected url: %s", req.URL)
		}
		return jsonResponse(t, http.StatusOK, []map[string]any{
			{"id": 1, "first_name": "John", "company_name": "Acme Inc.", "score": 85, "category": "Hot",
				"company_info": map[string]any{"industry": "Technology"}},
			{"id": 2, "first_name": "Jane", "company_name": "Globex", "score": 72.5, "category": "Warm"},
		}), nil
	})

	leads, err := client.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].CompanyField("industry") != "Technology" {
		t.Fatalf("expected enrichment to decode, got %+v", leads[0].CompanyInfo)
	}
	if leads[1].Score != 72.5 {
		t.Fatalf("unexpected score %v", leads[1].Score)
	}
}

func TestListLeadsNullBodyYieldsEmptySlice(t *testing.T) {
	client := NewBackendClient("http://backend/api/v1", time.Second, nil)
	stub(client, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusOK, nil), nil
	})

	leads, err := client.ListLeads(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leads == nil || len(leads) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", leads)
	}
}

func TestStatsAndSettingsPaths(t *testing.T) {
	seen := map[string]string{}
	client := NewBackendClient("http://backend/api/v1", time.Second, nil)
	stub(client, func(req *http.Request) (*http.Response, error) {
		seen[req.Method+" "+req.URL.Path] = req.Header.Get("Content-Type")
		switch req.URL.Path {
		case "/api/v1/stats":
			return jsonResponse(t, http.StatusOK, map[string]any{
				"total_leads": 4, "qualified_leads": 1, "avg_score": 64.5, "new_leads_today": 2,
				"leads_by_category": []map[string]any{{"name": "Hot", "leads": 1}},
			}), nil
		case "/api/v1/settings":
			if req.Method == http.MethodPut {
				var update models.SettingsUpdate
				if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
					t.Fatalf("decode update: %v", err)
				}
				if update.SelectedModel != "gemini-1.5-pro" || !update.EnrichmentEnabled {
					t.Fatalf("unexpected update payload: %+v", update)
				}
				return jsonResponse(t, http.StatusOK, update), nil
			}
			return jsonResponse(t, http.StatusOK, map[string]any{
				"auto_routing_enabled": true,
				"selected_model":       "gemini-2.5-flash",
				"available_models":     []map[string]string{{"id": "gemini-2.5-flash", "name": "Flash"}},
			}), nil
		}
		t.Fatalf("unexpected path %s", req.URL.Path)
		return nil, nil
	})

	ctx := context.Background()
	stats, err := client.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalLeads != 4 || len(stats.LeadsByCategory) != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	settings, err := client.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if len(settings.AvailableModels) != 1 || !settings.AutoRoutingEnabled {
		t.Fatalf("unexpected settings: %+v", settings)
	}

	if err := client.UpdateSettings(ctx, models.SettingsUpdate{SelectedModel: "gemini-1.5-pro", EnrichmentEnabled: true}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if ct := seen["PUT /api/v1/settings"]; ct != "application/json" {
		t.Fatalf("expected json content type on PUT, got %q", ct)
	}
}

func TestAnalyzeFailureIsAppError(t *testing.T) {
	client := NewBackendClient("http://backend/api/v1", time.Second, nil)
	stub(client, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(t, http.StatusBadRequest, map[string]string{"detail": "Invalid email address provided."}), nil
	})

	_, err := client.Analyze(context.Background(), models.LeadInput{Email: "invalid@example.com"})
	if err == nil {
		t.Fatalf("expected error")
	}
	var appErr *utils.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Op != "backend.Analyze" {
		t.Fatalf("unexpected op %q", appErr.Op)
	}
	if !strings.Contains(err.Error(), "backend returned") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestTransportErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	client := NewBackendClient("http://backend/api/v1", time.Second, nil)
	stub(client, func(req *http.Request) (*http.Response, error) {
		return nil, boom
	})

	_, err := client.Stats(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected transport error in chain, got %v", err)
	}
}

func TestLoginPostsForm(t *testing.T) {
	client := NewBackendClient("http://backend/api/v1", time.Second, nil)
	stub(client, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v1/auth/login" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		if err := req.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if req.PostForm.Get("username") != "admin@example.com" {
			t.Fatalf("unexpected username %q", req.PostForm.Get("username"))
		}
		return jsonResponse(t, http.StatusOK, map[string]string{"access_token": "abc", "token_type": "bearer"}), nil
	})

	token, err := client.Login(context.Background(), models.Credentials{Username: "admin@example.com", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token.AccessToken != "abc" {
		t.Fatalf("unexpected token %+v", token)
	}
}

func TestResolvePath(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"http://localhost:8000/api/v1", "/", "http://localhost:8000/api/v1/"},
		{"http://localhost:8000/api/v1/", "/stats", "http://localhost:8000/api/v1/stats"},
		{"http://localhost:8000", "/", "http://localhost:8000/"},
		{"http://localhost:8000", "settings", "http://localhost:8000/settings"},
	}
	for _, tc := range cases {
		client := NewBackendClient(tc.base, time.Second, nil)
		if strings.HasSuffix(client.BaseURL(), "/") {
			t.Fatalf("BaseURL(%q) kept trailing slash: %q", tc.base, client.BaseURL())
		}
		if got := client.resolvePath(tc.path); got != tc.want {
			t.Fatalf("resolvePath(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}

	empty := NewBackendClient("", time.Second, nil)
	if _, err := empty.ListLeads(context.Background()); err == nil {
		t.Fatalf("expected error for unconfigured base URL")
	}
}
