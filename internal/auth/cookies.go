package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Cookie names.
const (
	SessionCookie = "session"
	AnonCookie    = "anon_id"
)

// Cookie lifetimes.
const (
	SessionMaxAge = 7 * 24 * time.Hour
	AnonMaxAge    = 365 * 24 * time.Hour
)

// CookieOptions are shared by every cookie this service sets.
type CookieOptions struct {
	Domain string // empty means host-only
	Secure bool
}

// SetSession stores token in the session cookie.
func SetSession(c *gin.Context, token string, o CookieOptions) {
	setCookie(c, SessionCookie, token, SessionMaxAge, o)
}

// ClearSession expires the session cookie.
func ClearSession(c *gin.Context, o CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, "", -1, "/", o.Domain, o.Secure, true)
}

// SessionToken returns the session cookie value, or "" when absent.
func SessionToken(c *gin.Context) string {
	v, err := c.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return v
}

// EnsureAnonID returns the caller's anonymous tracking id, minting and
// setting a new one when the request carries none.
func EnsureAnonID(c *gin.Context, o CookieOptions) string {
	if v, err := c.Cookie(AnonCookie); err == nil && v != "" {
		return v
	}
	id := uuid.NewString()
	setCookie(c, AnonCookie, id, AnonMaxAge, o)
	return id
}

func setCookie(c *gin.Context, name, value string, maxAge time.Duration, o CookieOptions) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge/time.Second), "/", o.Domain, o.Secure, true)
}
