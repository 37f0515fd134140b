package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/auth"
	"github.com/tbourn/go-wrapped-backend/internal/http/middleware"
	"github.com/tbourn/go-wrapped-backend/internal/http/pipeline"
	"github.com/tbourn/go-wrapped-backend/internal/repo"
	"github.com/tbourn/go-wrapped-backend/internal/services"
	"github.com/tbourn/go-wrapped-backend/internal/storage"
	"github.com/tbourn/go-wrapped-backend/internal/supervisor"
)

func init() { gin.SetMode(gin.TestMode) }

const (
	testSecret   = "handlers-test-secret-0123456789"
	testAdmin    = "admin"
	testPassword = "s3cret!"
)

// tinyPNG is enough of a PNG for content sniffing.
var tinyPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type testEnv struct {
	r      *gin.Engine
	store  *storage.MemoryStore
	tokens *auth.Tokens
}

// newEnv builds an engine with the production middleware that matter to
// handlers (ids, logger, error boundary, recovery, gates) over a private
// SQLite database and an in-memory object store.
func newEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := repo.Open(filepath.Join(t.TempDir(), "handlers.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = repo.Closer(db)(context.Background()) })
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		store:  storage.NewMemory(),
		tokens: auth.NewTokens(testSecret, time.Hour),
	}
	authSvc := services.NewAuthService(env.tokens, testAdmin, testPassword)
	wrappedSvc := services.NewWrappedService(db, time.Hour)
	h := New(wrappedSvc, authSvc, services.NewUploadService(env.store, ImageURL), auth.CookieOptions{})

	env.r = newEngine(t)
	register(env.r, h, env.tokens, authSvc, wrappedSvc)
	return env
}

func newEngine(t *testing.T) *gin.Engine {
	t.Helper()
	nop := zerolog.Nop()
	sup := supervisor.New(supervisor.Options{Logger: &nop, Exit: func(int) {}})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.ContextLogger(),
		middleware.ErrorBoundary(sup),
		middleware.Recovery(),
	)
	return r
}

func register(r *gin.Engine, h *Handlers, tokens *auth.Tokens, authSvc *services.AuthService, wrappedSvc *services.WrappedService) {
	session := middleware.RequireSession(tokens, middleware.SessionOptions{IsAdmin: authSvc.IsAdmin})
	idem := middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, wrappedSvc.HasReplay)
	opts := pipeline.Options{Silent: true}

	root := pipeline.NewRouter(&r.RouterGroup, opts)
	root.GET("/ping", h.Ping)

	api := pipeline.NewRouter(r.Group("/api"), opts)
	api.GET("/ping", h.APIPing)
	api.POST("/ping", h.APIPingEcho)
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)

	wr := pipeline.NewRouter(r.Group("/api/wrapped"), opts)
	wr.POST("/upload", h.UploadImage)
	wr.GET("/image", h.GetImage)
	wr.GET("/stats", h.WrappedStats, session)
	wr.GET("/list", h.ListWrapped, session)
	wr.POST("", h.CreateWrapped, idem)
	wr.GET("/:slug", h.GetWrapped)
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

// adminCookie is a valid session for the configured admin.
func (e *testEnv) adminCookie(t *testing.T) *http.Cookie {
	t.Helper()
	tok, err := e.tokens.Issue(testAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return &http.Cookie{Name: auth.SessionCookie, Value: tok}
}

func jsonRequest(t *testing.T, method, target string, v any) *http.Request {
	t.Helper()
	var body io.Reader = http.NoBody
	switch b := v.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperr.Response {
	t.Helper()
	return decode[apperr.Response](t, w)
}

// hasSubError reports whether resp lists a failure for path with code.
func hasSubError(resp apperr.Response, path, code string) bool {
	for _, s := range resp.SubErrors {
		if s.Path == path && s.Code == code {
			return true
		}
	}
	return false
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestErrorResponse_MatchesRenderedShape(t *testing.T) {
	raw, err := json.Marshal(apperr.BadRequest("x").AddSubError(apperr.SubError{Path: "p", Code: "c", Message: "m"}).ToResponse())
	if err != nil {
		t.Fatal(err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc ErrorResponse
	if err := dec.Decode(&doc); err != nil {
		t.Fatalf("documented shape drifted: %v", err)
	}
	if doc.Status != http.StatusBadRequest || len(doc.SubErrors) != 1 || doc.SubErrors[0].Path != "p" {
		t.Fatalf("got %+v", doc)
	}
}
