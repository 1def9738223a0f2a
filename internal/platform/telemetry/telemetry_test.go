package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestEcho(p *Provider) *echo.Echo {
	e := echo.New()
	e.Use(p.Middleware())
	e.GET("/records/:id", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/fail", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusBadGateway, "upstream")
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("boom")
	})
	e.GET("/metrics", p.Handler())
	return e
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	p := NewProvider()
	e := newTestEcho(p)

	get(e, "/records/6f1c0a52-0000-4000-8000-000000000001")
	get(e, "/records/6f1c0a52-0000-4000-8000-000000000002")

	if n := p.RequestCount(http.MethodGet, "/records/:id", http.StatusOK); n != 2 {
		t.Fatalf("expected 2 requests under the route pattern, got %d", n)
	}
}

func TestMiddleware_ErrorStatus(t *testing.T) {
	p := NewProvider()
	e := newTestEcho(p)

	get(e, "/fail")
	get(e, "/boom")

	if n := p.RequestCount(http.MethodGet, "/fail", http.StatusBadGateway); n != 1 {
		t.Errorf("expected the HTTP error status to be recorded, got %d", n)
	}
	if n := p.RequestCount(http.MethodGet, "/boom", http.StatusInternalServerError); n != 1 {
		t.Errorf("expected a plain error to count as 500, got %d", n)
	}
}

func TestMiddleware_Unmatched(t *testing.T) {
	p := NewProvider()
	e := newTestEcho(p)

	get(e, "/nope/123")

	if n := p.RequestCount(http.MethodGet, "unmatched", http.StatusNotFound); n != 1 {
		t.Errorf("expected unknown paths under one label, got %d", n)
	}
}

func TestMiddleware_ActiveRequests(t *testing.T) {
	p := NewProvider()
	e := echo.New()
	e.Use(p.Middleware())

	var during int64
	e.GET("/slow", func(c echo.Context) error {
		during = p.ActiveRequests()
		return c.NoContent(http.StatusNoContent)
	})
	get(e, "/slow")

	if during != 1 {
		t.Errorf("expected 1 active request inside the handler, got %d", during)
	}
	if p.ActiveRequests() != 0 {
		t.Errorf("expected 0 active requests afterwards, got %d", p.ActiveRequests())
	}
}

func TestMiddleware_ConcurrentSafe(t *testing.T) {
	p := NewProvider()
	e := newTestEcho(p)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			get(e, "/records/x")
		}()
	}
	wg.Wait()

	if n := p.RequestCount(http.MethodGet, "/records/:id", http.StatusOK); n != 50 {
		t.Errorf("expected 50, got %d", n)
	}
}

// ---------------------------------------------------------------------------
// Extraction counters
// ---------------------------------------------------------------------------

func TestObserveExtraction(t *testing.T) {
	p := NewProvider()
	p.ObserveExtraction("provider")
	p.ObserveExtraction("provider")
	p.ObserveExtraction("cache_hit")

	if n := p.ExtractionCount("provider"); n != 2 {
		t.Errorf("expected 2 provider extractions, got %d", n)
	}
	if n := p.ExtractionCount("cache_hit"); n != 1 {
		t.Errorf("expected 1 cache hit, got %d", n)
	}
	if n := p.ExtractionCount("error"); n != 0 {
		t.Errorf("expected 0 errors, got %d", n)
	}
}

// ---------------------------------------------------------------------------
// Handler
// ---------------------------------------------------------------------------

func TestHandler_PrometheusFormat(t *testing.T) {
	p := NewProvider()
	p.ObserveExtraction("cache_hit")
	p.RegisterGauge("db_pool_idle_connections", "Idle database connections.", func() int64 { return 3 })
	e := newTestEcho(p)
	get(e, "/records/abc")

	rec := get(e, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get(echo.HeaderContentType); ct != ContentType {
		t.Errorf("expected content type %q, got %q", ContentType, ct)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"# TYPE http_server_request_duration_seconds histogram",
		`http_server_request_duration_seconds_bucket{method="GET",route="/records/:id",status_code="200",le="+Inf"} 1`,
		`http_server_request_duration_seconds_count{method="GET",route="/records/:id",status_code="200"} 1`,
		"http_server_active_requests 1",
		`nursia_extractions_total{outcome="cache_hit"} 1`,
		"# TYPE db_pool_idle_connections gauge",
		"db_pool_idle_connections 3",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected metrics output to contain %q\n%s", want, body)
		}
	}
}

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

func TestHistogram_Buckets(t *testing.T) {
	h := newHistogram([]float64{0.1, 1, 10})
	for _, v := range []float64{0.05, 0.5, 0.7, 5, 50} {
		h.Observe(v)
	}

	cum := h.cumulativeBuckets()
	want := []int64{1, 3, 4}
	for i := range want {
		if cum[i] != want[i] {
			t.Errorf("bucket %d: expected %d, got %d", i, want[i], cum[i])
		}
	}
	if h.Count() != 5 {
		t.Errorf("expected count 5, got %d", h.Count())
	}
	if got := h.Sum(); got < 56.24 || got > 56.26 {
		t.Errorf("expected sum 56.25, got %g", got)
	}
}
