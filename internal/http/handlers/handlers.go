// Package handlers contains the HTTP endpoint handlers of the wrapped API.
//
// Endpoints:
//   - GET  /ping                  : liveness ("pong")
//   - GET  /api/ping              : API liveness ("api pong")
//   - POST /api/ping              : echo the JSON body
//   - POST /api/auth/login        : admin login, sets the session cookie
//   - POST /api/auth/logout       : clears the session cookie
//   - POST /api/wrapped/upload    : multipart image upload
//   - GET  /api/wrapped/image     : image proxy by object key
//   - GET  /api/wrapped/stats     : aggregate statistics (session)
//   - GET  /api/wrapped/list      : cursor-paginated listing (session)
//   - POST /api/wrapped           : create a wrapped
//   - GET  /api/wrapped/{slug}    : fetch a wrapped by slug
//
// Handlers are error-returning (pipeline.HandlerFunc). They never render
// failures themselves; the error boundary does.
package handlers

import (
	"context"
	"io"

	"github.com/tbourn/go-wrapped-backend/internal/auth"
	"github.com/tbourn/go-wrapped-backend/internal/domain"
	"github.com/tbourn/go-wrapped-backend/internal/repo"
	"github.com/tbourn/go-wrapped-backend/internal/services"
	"github.com/tbourn/go-wrapped-backend/internal/storage"
)

// WrappedService is the subset of services.WrappedService used here.
type WrappedService interface {
	Create(ctx context.Context, p services.CreateParams) (*domain.Wrapped, bool, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Wrapped, error)
	List(ctx context.Context, req repo.PageRequest) (repo.Page[domain.Wrapped], error)
	Stats(ctx context.Context) (*repo.WrappedStats, error)
}

// AuthService is the subset of services.AuthService used here.
type AuthService interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// UploadService is the subset of services.UploadService used here.
type UploadService interface {
	Save(ctx context.Context, filename string, r io.Reader) (*services.Upload, error)
	Open(ctx context.Context, key string) (*storage.Object, error)
}

// Handlers bundles the services behind the endpoints.
type Handlers struct {
	wrapped WrappedService
	auth    AuthService
	uploads UploadService
	cookies auth.CookieOptions
}

// New wires handlers to their services. cookies applies to every cookie the
// handlers set (session and anonymous id).
func New(wrapped WrappedService, authSvc AuthService, uploads UploadService, cookies auth.CookieOptions) *Handlers {
	return &Handlers{wrapped: wrapped, auth: authSvc, uploads: uploads, cookies: cookies}
}
