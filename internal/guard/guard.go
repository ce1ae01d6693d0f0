// Package guard implements the dashboard's route policy. It checks only that the
// session cookie is present, never that it is valid.
package guard

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Policy decides redirects from the request path and cookie presence.
type Policy struct {
	CookieName     string
	LoginPath      string
	LandingPath    string
	ProtectedPaths []string
	PublicPrefixes []string
}

// Decide returns the redirect target for a request, or "" to let it through.
func (p Policy) Decide(path string, hasToken bool) string {
	if p.isPublic(path) {
		return ""
	}
	if p.isProtected(path) && !hasToken {
		return p.LoginPath
	}
	if path == p.LoginPath && hasToken {
		return p.LandingPath
	}
	if path == "/" {
		return p.LandingPath
	}
	return ""
}

func (p Policy) isProtected(path string) bool {
	for _, prefix := range p.ProtectedPaths {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func (p Policy) isPublic(path string) bool {
	for _, prefix := range p.PublicPrefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimRight(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// HasToken reports whether the request carries a non-empty session cookie.
func (p Policy) HasToken(r *http.Request) bool {
	c, err := r.Cookie(p.CookieName)
	return err == nil && c.Value != ""
}

// Middleware enforces the policy on every request passing through the engine.
func (p Policy) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if target := p.Decide(c.Request.URL.Path, p.HasToken(c.Request)); target != "" {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
