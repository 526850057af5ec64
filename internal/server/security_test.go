package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/textvault/textvault/internal/config"
)

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get("Referrer-Policy"))

	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "script-src 'self' "+monacoCDN)
	assert.Contains(t, csp, "worker-src 'self' blob:")
	assert.Contains(t, csp, "frame-ancestors 'none'")
}

func TestBuildCSPHeaderSkipsEmptyDirectives(t *testing.T) {
	got := buildCSPHeader(&CSPConfig{
		DefaultSrc: []string{"'self'"},
		ObjectSrc:  []string{"'none'"},
	})
	assert.Equal(t, "default-src 'self'; object-src 'none'", got)
}

func TestIsValidOrigin(t *testing.T) {
	allowed := []string{"localhost:*", "127.0.0.1:*", "*.textvault.dev"}

	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{"no origin", "example.com", "", true},
		{"same host", "example.com:8080", "http://example.com:8080", true},
		{"same host any case", "Example.com", "https://EXAMPLE.com", true},
		{"localhost pattern", "example.com", "http://localhost:3000", true},
		{"loopback pattern", "example.com", "http://127.0.0.1:9999", true},
		{"subdomain pattern", "example.com", "https://app.textvault.dev", true},
		{"foreign", "example.com", "https://evil.com", false},
		{"lookalike", "example.com", "http://localhost.evil.com:80", false},
		{"no host", "example.com", "null", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, isValidOrigin(req, allowed))
		})
	}
}

func TestSecurityMiddlewareBlocksCrossOriginWrites(t *testing.T) {
	cfg := config.Default()
	handler := SecurityMiddleware(SecurityConfigFromAppConfig(cfg, nil))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	post := httptest.NewRequest(http.MethodPost, "/api/pastes", strings.NewReader("{}"))
	post.Header.Set("Origin", "https://evil.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, post)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	get := httptest.NewRequest(http.MethodGet, "/", nil)
	get.Header.Set("Origin", "https://evil.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, get)
	assert.Equal(t, http.StatusNoContent, rec.Code, "reads are not origin-checked")

	local := httptest.NewRequest(http.MethodPost, "/api/pastes", strings.NewReader("{}"))
	local.Header.Set("Origin", "http://localhost:8080")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, local)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", getClientIP(req))

	req.Header.Set("X-Real-IP", " 198.51.100.2 ")
	assert.Equal(t, "198.51.100.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}
