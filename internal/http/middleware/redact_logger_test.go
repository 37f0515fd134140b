package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedact(t *testing.T) {
	in := "email=jane.doe@example.com&id=123e4567-e89b-42d3-a456-426614174000&phone=+1 212-555-1212&slug=w_lq3k9z0a4FhT0bQx2m"
	out := Redact(in)
	for _, leaked := range []string{"jane.doe@example.com", "123e4567", "555-1212"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("%q leaked in %q", leaked, out)
		}
	}
	for _, kept := range []string{"[REDACTED:email]", "[REDACTED:id]", "[REDACTED:phone]", "w_lq3k9z0a4FhT0bQx2m"} {
		if !strings.Contains(out, kept) {
			t.Fatalf("expected %q in %q", kept, out)
		}
	}
}

func TestRedactingLogger_MasksAndLevels(t *testing.T) {
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RequestID(), ContextLogger(), RedactingLogger(RedactOptions{MaskHeaders: []string{"X-Api-Key"}, LogHeaders: true}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/ok?email=a@b.co", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("Cookie", "session=abc")
	req.Header.Set("X-Api-Key", "k-123")
	do(r, req)

	out := buf.String()
	for _, leaked := range []string{"secret-token", "session=abc", "k-123", "a@b.co"} {
		if strings.Contains(out, leaked) {
			t.Fatalf("%q leaked: %s", leaked, out)
		}
	}
	if !strings.Contains(out, `"level":"info"`) || !strings.Contains(out, `"message":"http_request"`) {
		t.Fatalf("unexpected access log: %s", out)
	}

	buf.Reset()
	do(r, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Fatalf("4xx should warn: %s", buf.String())
	}

	buf.Reset()
	do(r, httptest.NewRequest(http.MethodGet, "/fail", nil))
	if !strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("5xx should error: %s", buf.String())
	}
}

func TestRedactingLogger_HeadersOptional(t *testing.T) {
	buf := captureLogs(t)
	r := gin.New()
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	do(r, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if strings.Contains(buf.String(), `"headers"`) {
		t.Fatalf("headers logged without LogHeaders: %s", buf.String())
	}
}
