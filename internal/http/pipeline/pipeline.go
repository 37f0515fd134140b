// Package pipeline adapts error-returning handlers to Gin.
//
// Handlers in this service have the signature
//
//	func(c *gin.Context) error
//
// and never write error responses themselves. Wrap funnels every returned
// error, and every panic, into c.Errors and aborts the chain, so the global
// error boundary (middleware.ErrorBoundary) is the single place where faults
// are normalized, logged and rendered.
//
// Router registers wrapped handlers explicitly per method and logs each
// registration:
//
//	api := pipeline.NewRouter(r.Group("/api/wrapped"), pipeline.Options{Name: "Wrapped Router"})
//	api.POST("", h.CreateWrapped)
//	api.GET("/:slug", h.GetWrapped)
//
// Entry/exit logging is emitted at debug level and can be suppressed per
// registration with Silent, without affecting error propagation.
package pipeline

import (
	"fmt"
	"net/http"
	"path"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
	"github.com/tbourn/go-wrapped-backend/internal/http/middleware"
)

// HandlerFunc is a Gin handler that reports failure by returning an error.
type HandlerFunc func(c *gin.Context) error

// Options controls logging of wrapped handlers and registrations.
type Options struct {
	// Name prefixes registration logs, e.g. "Wrapped Router".
	Name string
	// Silent suppresses entering/exited and registration logs.
	Silent bool
	// Logger is used for registration logs. Defaults to the global logger.
	// Per-request logs use the request-scoped logger.
	Logger *zerolog.Logger
}

// Wrap converts fn into a gin.HandlerFunc. A non-nil error returned by fn, or
// a panic raised inside it, is recorded with c.Error and the chain is
// aborted. Nothing is re-panicked into Gin.
func Wrap(fn HandlerFunc, opts Options) gin.HandlerFunc {
	name := funcName(fn)
	return func(c *gin.Context) {
		lg := middleware.LoggerFrom(c)
		if !opts.Silent {
			lg.Debug().
				Str("handler", name).
				Str("method", c.Request.Method).
				Str("path", c.Request.URL.Path).
				Msg("entering")
		}

		if err := invoke(fn, c); err != nil {
			if !opts.Silent {
				lg.Debug().
					Str("handler", name).
					Int("status", apperr.StatusOf(err)).
					Msg("failed")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		if !opts.Silent {
			lg.Debug().
				Str("handler", name).
				Int("status", c.Writer.Status()).
				Msg("exited")
		}
	}
}

// invoke runs fn and turns a panic into an *apperr.Panic.
func invoke(fn HandlerFunc, c *gin.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = &apperr.Panic{Value: rec, Trace: string(debug.Stack())}
		}
	}()
	return fn(c)
}

// Router registers wrapped handlers on a Gin route group.
type Router struct {
	group *gin.RouterGroup
	opts  Options
}

// NewRouter returns a Router over group.
func NewRouter(group *gin.RouterGroup, opts Options) *Router {
	return &Router{group: group, opts: opts}
}

// Silent returns a Router sharing the same group whose registrations and
// handlers do not log.
func (r *Router) Silent() *Router {
	o := r.opts
	o.Silent = true
	return &Router{group: r.group, opts: o}
}

// Use adds plain Gin middleware to the underlying group.
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.group.Use(mw...)
	return r
}

// Group returns a Router for a sub-group with the same options.
func (r *Router) Group(relativePath string, mw ...gin.HandlerFunc) *Router {
	return &Router{group: r.group.Group(relativePath, mw...), opts: r.opts}
}

// Handle registers fn for method and relativePath. mw run before fn.
func (r *Router) Handle(method, relativePath string, fn HandlerFunc, mw ...gin.HandlerFunc) {
	chain := make([]gin.HandlerFunc, 0, len(mw)+1)
	chain = append(chain, mw...)
	chain = append(chain, Wrap(fn, r.opts))
	r.group.Handle(method, relativePath, chain...)

	if r.opts.Silent {
		return
	}
	lg := r.opts.Logger
	if lg == nil {
		lg = &log.Logger
	}
	full := joinPaths(r.group.BasePath(), relativePath)
	lg.Info().
		Str("method", method).
		Str("path", full).
		Str("handler", funcName(fn)).
		Msg(registrationLine(r.opts.Name, method, full))
}

func (r *Router) GET(p string, fn HandlerFunc, mw ...gin.HandlerFunc) {
	r.Handle(http.MethodGet, p, fn, mw...)
}

func (r *Router) POST(p string, fn HandlerFunc, mw ...gin.HandlerFunc) {
	r.Handle(http.MethodPost, p, fn, mw...)
}

func (r *Router) PUT(p string, fn HandlerFunc, mw ...gin.HandlerFunc) {
	r.Handle(http.MethodPut, p, fn, mw...)
}

func (r *Router) PATCH(p string, fn HandlerFunc, mw ...gin.HandlerFunc) {
	r.Handle(http.MethodPatch, p, fn, mw...)
}

func (r *Router) DELETE(p string, fn HandlerFunc, mw ...gin.HandlerFunc) {
	r.Handle(http.MethodDelete, p, fn, mw...)
}

func registrationLine(name, method, full string) string {
	if name == "" {
		return fmt.Sprintf("%s %s", method, full)
	}
	return fmt.Sprintf("[%s] %s %s", name, method, full)
}

func joinPaths(base, rel string) string {
	if rel == "" {
		return base
	}
	joined := path.Join(base, rel)
	if strings.HasSuffix(rel, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return joined
}

// funcName returns the short name of fn for logs, e.g. "(*Handler).CreateWrapped-fm".
func funcName(fn HandlerFunc) string {
	if fn == nil {
		return ""
	}
	full := runtime.FuncForPC(reflect.ValueOf(fn).Pointer()).Name()
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.Index(full, "."); i >= 0 {
		full = full[i+1:]
	}
	return full
}
