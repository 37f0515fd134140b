package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
)

func TestErrorBoundary_RendersTypedError(t *testing.T) {
	h := &recordingHandler{}
	r := newEngine(h)
	r.GET("/x", func(c *gin.Context) {
		Fail(c, apperr.BadRequest("Invalid request body").AddSubError(apperr.SubError{Path: "year", Code: "max", Message: "too big"}))
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Kind != apperr.KindBadRequest || resp.Message != "Invalid request body" || len(resp.SubErrors) != 1 || resp.SubErrors[0].Path != "year" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestErrorBoundary_NoErrorNoCall(t *testing.T) {
	h := &recordingHandler{}
	r := newEngine(h)
	r.GET("/ok", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })

	if w := do(r, httptest.NewRequest(http.MethodGet, "/ok", nil)); w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if h.count() != 0 {
		t.Fatal("handler must not run without errors")
	}
}

func TestErrorBoundary_UsesLastError(t *testing.T) {
	h := &recordingHandler{}
	r := newEngine(h)
	r.GET("/x", func(c *gin.Context) {
		_ = c.Error(errors.New("first"))
		Fail(c, apperr.Conflict("second"))
	})

	resp := decodeResponse(t, do(r, httptest.NewRequest(http.MethodGet, "/x", nil)))
	if resp.Status != http.StatusConflict || resp.Message != "second" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestErrorBoundary_AlreadyWrittenStillHandled(t *testing.T) {
	h := &recordingHandler{}
	r := newEngine(h)
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		Fail(c, errors.New("late failure"))
	})

	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusOK || w.Body.String() != "partial" {
		t.Fatalf("status=%d body=%q", w.Code, w.Body.String())
	}
	if h.count() != 1 {
		t.Fatal("late failure must still reach the handler")
	}
}

func TestErrorBoundary_RawErrorIs500(t *testing.T) {
	h := &recordingHandler{}
	r := newEngine(h)
	r.GET("/x", func(c *gin.Context) { Fail(c, errors.New("db exploded")) })

	w := do(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	resp := decodeResponse(t, w)
	if w.Code != http.StatusInternalServerError || resp.Kind != apperr.KindUnknown || resp.SubErrors == nil {
		t.Fatalf("status=%d resp=%+v", w.Code, resp)
	}
}
