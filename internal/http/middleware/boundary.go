package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
)

// ErrorHandler turns a fault into the response for the current request.
// supervisor.Supervisor implements it.
type ErrorHandler interface {
	HandleError(ctx context.Context, fault any) apperr.Response
}

// ErrorBoundary is the single place where request failures are rendered.
//
// After the chain has run, the last error recorded on the context (by the
// pipeline wrapper, Recovery or a gate middleware) is passed to h, and the
// returned object is written as JSON with its status. When the handler had
// already started the response, the fault is still handled, so it is logged
// and can trigger shutdown, but nothing more is written.
func ErrorBoundary(h ErrorHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil {
			return
		}
		resp := h.HandleError(c.Request.Context(), last.Err)
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(resp.Status, resp)
	}
}

// Fail records err for ErrorBoundary and aborts the chain. Gate middleware
// use it instead of writing their own error bodies.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
