package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_CountsByRoutePattern(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/u/:username", func(c *echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for _, name := range []string{"alex", "sam"} {
		req := httptest.NewRequest(http.MethodGet, "/u/"+name, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/u/:username", "200"))
	if got != 2 {
		t.Fatalf("expected 2 requests on route pattern, got %v", got)
	}
}

func TestMiddleware_ErrorStatus(t *testing.T) {
	m := New()
	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/boom", func(c *echo.Context) error {
		return errors.New("boom")
	})
	e.GET("/gone", func(c *echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "gone")
	})

	for _, path := range []string{"/boom", "/gone"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/boom", "500")); got != 1 {
		t.Fatalf("expected 1 internal error, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/gone", "404")); got != 1 {
		t.Fatalf("expected 1 not found, got %v", got)
	}
}

func TestObserveHelpers(t *testing.T) {
	m := New()
	m.ObserveOperation("create", "ok")
	m.ObserveOperation("create", "username_taken")
	m.ObserveRateLimited("availability")
	m.ObserveEvent("profile.created", nil)
	m.ObserveEvent("profile.created", errors.New("broker down"))

	if got := testutil.ToFloat64(m.operations.WithLabelValues("create", "username_taken")); got != 1 {
		t.Fatalf("expected 1 username_taken, got %v", got)
	}
	if got := testutil.ToFloat64(m.rateLimited.WithLabelValues("availability")); got != 1 {
		t.Fatalf("expected 1 rate limited, got %v", got)
	}
	if got := testutil.ToFloat64(m.events.WithLabelValues("profile.created", "error")); got != 1 {
		t.Fatalf("expected 1 failed event, got %v", got)
	}
}

func TestObserveHelpers_NilReceiver(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("get", "ok")
	m.ObserveRateLimited("availability")
	m.ObserveEvent("profile.updated", nil)
}

func TestHandler_ExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveOperation("get", "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cv_profile_operations_total") {
		t.Fatal("expected profile operations metric in exposition output")
	}
}
