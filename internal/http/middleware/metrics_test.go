package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_LabelsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/wrapped/:slug", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/api/wrapped/:slug", "200"))
	do(r, httptest.NewRequest(http.MethodGet, "/api/wrapped/w_a", nil))
	do(r, httptest.NewRequest(http.MethodGet, "/api/wrapped/w_b", nil))
	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/api/wrapped/:slug", "200"))
	if after-before != 2 {
		t.Fatalf("expected 2 requests on the route label, got %v", after-before)
	}

	beforeMiss := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, unmatchedRoute, "404"))
	do(r, httptest.NewRequest(http.MethodGet, "/random/probe", nil))
	if got := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, unmatchedRoute, "404")) - beforeMiss; got != 1 {
		t.Fatalf("unmatched requests should share one label, got %v", got)
	}
	if testutil.ToFloat64(httpInflight) != 0 {
		t.Fatal("inflight gauge should return to zero")
	}
}

func TestCountEvent(t *testing.T) {
	before := testutil.ToFloat64(domainEvents.WithLabelValues(EventWrappedCreated))
	CountEvent(EventWrappedCreated)
	if got := testutil.ToFloat64(domainEvents.WithLabelValues(EventWrappedCreated)) - before; got != 1 {
		t.Fatalf("delta=%v", got)
	}
}
