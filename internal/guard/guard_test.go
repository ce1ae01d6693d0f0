package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testPolicy() Policy {
	return Policy{
		CookieName:     "token",
		LoginPath:      "/login",
		LandingPath:    "/dashboard",
		ProtectedPaths: []string{"/dashboard", "/leads", "/scoring", "/settings"},
		PublicPrefixes: []string{"/api", "/static", "/healthz"},
	}
}

func TestDecide(t *testing.T) {
	p := testPolicy()
	cases := []struct {
		path     string
		hasToken bool
		want     string
	}{
		{"/dashboard", false, "/login"},
		{"/leads/42", false, "/login"},
		{"/settings", false, "/login"},
		{"/dashboard", true, ""},
		{"/leads", true, ""},
		{"/login", true, "/dashboard"},
		{"/login", false, ""},
		{"/", false, "/dashboard"},
		{"/", true, "/dashboard"},
		{"/about", false, ""},
		{"/api/leads", false, ""},
		{"/static/app.css", false, ""},
		{"/healthz", false, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, p.Decide(tc.path, tc.hasToken), "path=%s token=%v", tc.path, tc.hasToken)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(testPolicy().Middleware())
	r.GET("/dashboard", func(c *gin.Context) { c.String(http.StatusOK, "dash") })
	r.GET("/login", func(c *gin.Context) { c.String(http.StatusOK, "login") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "anything"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dash", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "anything"})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: ""})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code, "an empty cookie counts as absent")
}
