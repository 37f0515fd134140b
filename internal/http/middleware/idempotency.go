package middleware

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/auth"
)

// HeaderIdempotencyKey is the request header carrying an idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions configures IdempotencyValidator. MaxLen <= 0 means 200;
// a nil Pattern accepts token characters only.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether owner already completed the operation
// under key and the record is still valid at now.
type IdempotencyLookup func(ctx context.Context, ownerID, key string, now time.Time) bool

// IdempotencyValidator checks the Idempotency-Key header, stashes it for the
// handler and, when lookup finds an earlier completion, marks the request as
// a replay so the rate limiter lets it through. Requests without the header
// pass untouched; malformed keys are recorded as 400.
//
// Serving the replayed result is the handler's job.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			Fail(c, apperr.BadRequest("Invalid Idempotency-Key").AddSubError(apperr.SubError{
				Path:    HeaderIdempotencyKey,
				Code:    "invalid_format",
				Message: "must be 1-" + strconv.Itoa(maxLen) + " token characters",
			}))
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil && lookup(c.Request.Context(), OwnerID(c), key, time.Now().UTC()) {
			c.Set(ctxKeyIdemReplay, true)
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
}

// OwnerID identifies the anonymous creator: the anon_id cookie, or "" for a
// first-time visitor.
func OwnerID(c *gin.Context) string {
	v, err := c.Cookie(auth.AnonCookie)
	if err != nil {
		return ""
	}
	return v
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// IsReplay reports whether IdempotencyValidator found an earlier completion.
func IsReplay(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyIdemReplay)
	b, _ := v.(bool)
	return b
}

// IsRateBypass reports whether rate limiting should be skipped.
func IsRateBypass(c *gin.Context) bool {
	v, _ := c.Get(ctxKeyRateBypass)
	b, _ := v.(bool)
	return b
}
