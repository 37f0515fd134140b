package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/auth"
)

// KindTooManyRequests tags rate limit rejections.
const KindTooManyRequests = "TooManyRequestsError"

// MsgRateLimited is the client-facing rate limit message.
const MsgRateLimited = "Too many requests, please slow down"

// KeyFunc selects the bucket a request draws from.
type KeyFunc func(*gin.Context) string

// KeyByClient prefers the session identity, then the anonymous tracking
// cookie, then the client IP. Prefixes keep the namespaces apart.
func KeyByClient() KeyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok && asString(v) != "" {
			return "user:" + asString(v)
		}
		if v, err := c.Cookie(auth.AnonCookie); err == nil && v != "" {
			return "anon:" + v
		}
		return "ip:" + c.ClientIP()
	}
}

// KeyByIP keys buckets on the client IP only. Use it where the caller could
// mint fresh cookies to escape the limit, such as login.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string { return "ip:" + c.ClientIP() }
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local token bucket per key. Idle buckets are
// evicted opportunistically. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
	gcEvery  uint64
}

// NewRateLimiter returns a limiter refilling rps tokens per second up to
// burst (at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByClient()
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
		gcEvery:  5000,
	}
}

// limiter returns the bucket for key. Eviction runs before the lookup so
// a stale bucket is dropped even when it is the one requested.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.gcEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// Size reports the number of live buckets.
func (rl *RateLimiter) Size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Handler rejects requests over the limit with a 429 recorded for the error
// boundary. Idempotent replays flagged by IdempotencyValidator pass free.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		now := time.Now()
		r := rl.limiter(rl.keyFn(c), now).ReserveN(now, 1)
		if r.OK() && r.DelayFrom(now) == 0 {
			c.Next()
			return
		}
		retry := 1
		if r.OK() {
			retry = max(1, int(math.Ceil(r.DelayFrom(now).Seconds())))
			r.CancelAt(now)
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		e := apperr.New(MsgRateLimited, http.StatusTooManyRequests, false, nil)
		e.Kind = KindTooManyRequests
		Fail(c, e)
	}
}
