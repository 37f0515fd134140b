package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-wrapped-backend/internal/apperr"
)

func init() { gin.SetMode(gin.TestMode) }

// recordingHandler normalizes faults like the supervisor does, without the
// process lifecycle, and remembers what it saw.
type recordingHandler struct {
	mu     sync.Mutex
	faults []any
}

func (h *recordingHandler) HandleError(_ context.Context, fault any) apperr.Response {
	h.mu.Lock()
	h.faults = append(h.faults, fault)
	h.mu.Unlock()
	return apperr.Normalize(fault).ToResponse()
}

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.faults)
}

// newEngine returns an engine with the boundary installed and mw added.
func newEngine(h ErrorHandler, mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ContextLogger(), ErrorBoundary(h), Recovery())
	r.Use(mw...)
	return r
}

func do(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) apperr.Response {
	t.Helper()
	var resp apperr.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return resp
}

// captureLogs swaps the global logger for one writing to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	return buf
}
