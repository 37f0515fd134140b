package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/auth"
)

func TestRateLimiter_BurstThen429(t *testing.T) {
	rl := NewRateLimiter(0.001, 2, KeyByIP())
	r := newEngine(&recordingHandler{}, rl.Handler())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		if w := do(r, httptest.NewRequest(http.MethodPost, "/login", nil)); w.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, w.Code)
		}
	}
	w := do(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Kind != KindTooManyRequests || resp.Message != MsgRateLimited {
		t.Fatalf("resp=%+v", resp)
	}
	if n, err := strconv.Atoi(w.Header().Get("Retry-After")); err != nil || n < 1 {
		t.Fatalf("Retry-After=%q", w.Header().Get("Retry-After"))
	}
}

func TestRateLimiter_SeparateBucketsPerClient(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByClient())
	r := newEngine(&recordingHandler{}, rl.Handler())
	r.POST("/wrapped", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for _, anon := range []string{"a", "b", "c"} {
		req := httptest.NewRequest(http.MethodPost, "/wrapped", nil)
		req.AddCookie(&http.Cookie{Name: auth.AnonCookie, Value: anon})
		if w := do(r, req); w.Code != http.StatusCreated {
			t.Fatalf("anon %s: status=%d", anon, w.Code)
		}
	}
	if rl.Size() != 3 {
		t.Fatalf("buckets=%d", rl.Size())
	}
}

func TestKeyByClient_Precedence(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "203.0.113.7:1234"
	key := KeyByClient()

	if got := key(c); got != "ip:203.0.113.7" {
		t.Fatalf("got %q", got)
	}
	c.Request.AddCookie(&http.Cookie{Name: auth.AnonCookie, Value: "anon-1"})
	if got := key(c); got != "anon:anon-1" {
		t.Fatalf("got %q", got)
	}
	c.Set("userID", "admin")
	if got := key(c); got != "user:admin" {
		t.Fatalf("got %q", got)
	}
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1, KeyByIP())
	rl.gcEvery = 2
	rl.ttl = time.Minute
	now := time.Now()

	rl.limiter("old", now.Add(-2*time.Minute))
	rl.limiter("new", now)
	if rl.Size() != 1 {
		t.Fatalf("idle bucket should be evicted, size=%d", rl.Size())
	}
}

func TestRateLimiter_ReplayBypasses(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, KeyByIP())
	lookup := func(context.Context, string, string, time.Time) bool { return true }
	r := newEngine(&recordingHandler{}, IdempotencyValidator(IdempotencyOptions{}, lookup), rl.Handler())
	r.POST("/wrapped", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/wrapped", nil)
		req.Header.Set(HeaderIdempotencyKey, "same-key")
		if w := do(r, req); w.Code != http.StatusOK {
			t.Fatalf("replay %d limited: %d", i, w.Code)
		}
	}
}
