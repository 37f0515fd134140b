package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(SecurityOptions{NoStore: true}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	h := w.Header()
	checks := []struct{ key, want string }{
		{"X-Content-Type-Options", "nosniff"},
		{"X-Frame-Options", "DENY"},
		{"Referrer-Policy", "no-referrer"},
		{"Cache-Control", "no-store"},
		{"Access-Control-Expose-Headers", "X-Request-ID"},
	}
	for _, tc := range checks {
		if got := h.Get(tc.key); got != tc.want {
			t.Errorf("%s=%q want %q", tc.key, got, tc.want)
		}
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS must be off by default")
	}
}

func TestSecurityHeaders_HSTSOnlyOverHTTPS(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 365 * 24 * time.Hour}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil)); w.Header().Get("Strict-Transport-Security") != "" {
		t.Fatal("no HSTS over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	w := do(r, req)
	if got := w.Header().Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=31536000;") {
		t.Fatalf("HSTS=%q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.TLS = &tls.ConnectionState{}
	if !isHTTPS(req) {
		t.Fatal("TLS request should count as HTTPS")
	}
}

func TestExposeHeader_NoDuplicates(t *testing.T) {
	h := http.Header{}
	exposeHeader(h, "X-Request-ID")
	exposeHeader(h, "Retry-After")
	exposeHeader(h, "x-request-id")
	if got := h.Get("Access-Control-Expose-Headers"); got != "X-Request-ID, Retry-After" {
		t.Fatalf("got %q", got)
	}
}
