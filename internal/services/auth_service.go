package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/auth"
)

// AuthService checks admin credentials and issues session tokens.
type AuthService struct {
	Tokens   *auth.Tokens
	Username string
	Password string
}

// NewAuthService returns an AuthService for the configured admin account.
func NewAuthService(tokens *auth.Tokens, username, password string) *AuthService {
	return &AuthService{Tokens: tokens, Username: username, Password: password}
}

// Login verifies username and password and returns a signed session token
// whose identity is the username. Any mismatch, including an unconfigured
// admin account, yields the same BadRequest error.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	_, span := otel.Tracer("services/AuthService").Start(ctx, "Login",
		trace.WithAttributes(attribute.String("auth.username", username)),
	)
	defer span.End()

	userOK := equal(username, s.Username)
	passOK := equal(password, s.Password)
	if s.Username == "" || s.Password == "" || !(userOK && passOK) {
		return "", fail(span, apperr.BadRequest(MsgBadCredentials))
	}
	token, err := s.Tokens.Issue(username)
	if err != nil {
		return "", fail(span, apperr.InternalServer("").CausedBy(err))
	}
	return token, nil
}

// IsAdmin reports whether identity names the configured admin account.
func (s *AuthService) IsAdmin(identity string) bool {
	return s.Username != "" && equal(identity, s.Username)
}

// equal compares fixed-size digests so timing leaks neither content nor length.
func equal(a, b string) bool {
	ha, hb := sha256.Sum256([]byte(a)), sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(ha[:], hb[:]) == 1
}
