package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/auth"
)

// Messages of the access gates.
const (
	MsgNotAuthenticated = "Unauthorized access: User is not authenticated"
	MsgDevOnly          = "This endpoint is only available in development environment"
)

// Session policies, matching config.SessionAdminOnly and config.SessionRejectAdmin.
const (
	PolicyAdminOnly   = "admin-only"
	PolicyRejectAdmin = "reject-admin"
)

const ctxKeyIdentity = "session.identity"

// TokenVerifier validates a raw session token.
type TokenVerifier interface {
	Verify(raw string) (*auth.Claims, error)
}

// SessionOptions configures RequireSession.
type SessionOptions struct {
	// Policy is PolicyAdminOnly (default) or PolicyRejectAdmin.
	Policy string
	// IsAdmin reports whether an identity is the configured admin.
	IsAdmin func(identity string) bool
}

// RequireSession admits requests carrying a valid session cookie whose
// identity satisfies the policy. Under PolicyAdminOnly only the admin is
// admitted; under PolicyRejectAdmin every identity except the admin is.
// Failures are recorded as 401 Unauthorized.
//
// On success the identity is available through SessionIdentity and under
// the "userID" context key used by the rate limiter and access logs.
func RequireSession(v TokenVerifier, opts SessionOptions) gin.HandlerFunc {
	isAdmin := opts.IsAdmin
	if isAdmin == nil {
		isAdmin = func(string) bool { return false }
	}
	rejectAdmin := opts.Policy == PolicyRejectAdmin

	return func(c *gin.Context) {
		raw := auth.SessionToken(c)
		if raw == "" {
			Fail(c, apperr.Unauthorized(MsgNotAuthenticated))
			return
		}
		claims, err := v.Verify(raw)
		if err != nil {
			Fail(c, apperr.Unauthorized(MsgNotAuthenticated).CausedBy(err))
			return
		}
		if isAdmin(claims.Identity) == rejectAdmin {
			Fail(c, apperr.Unauthorized(MsgNotAuthenticated))
			return
		}
		c.Set(ctxKeyIdentity, claims.Identity)
		c.Set("userID", claims.Identity)
		c.Next()
	}
}

// SessionIdentity returns the identity admitted by RequireSession.
func SessionIdentity(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	s := asString(v)
	return s, ok && s != ""
}

// DevOnly lets requests through only when dev is true; otherwise it records
// a 403 Forbidden.
func DevOnly(dev bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !dev {
			Fail(c, apperr.Forbidden(MsgDevOnly))
			return
		}
		c.Next()
	}
}
