package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

// ---------------------------------------------------------------------------
// Histogram
// ---------------------------------------------------------------------------

// durationBuckets are request duration boundaries in seconds. The upper end
// leaves room for extraction calls, which wait on the vision provider.
var durationBuckets = []float64{
	0.010, 0.025, 0.050, 0.100, 0.250, 0.500, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0,
}

// histogram keeps non-cumulative bucket counts; cumulative counts are
// computed at export time.
type histogram struct {
	boundaries   []float64
	bucketCounts []int64
	count        int64
	sum          uint64 // math.Float64bits
	mu           sync.Mutex
}

func newHistogram(boundaries []float64) *histogram {
	return &histogram{
		boundaries:   boundaries,
		bucketCounts: make([]int64, len(boundaries)),
	}
}

func (h *histogram) Observe(v float64) {
	atomic.AddInt64(&h.count, 1)
	for {
		old := atomic.LoadUint64(&h.sum)
		next := math.Float64bits(math.Float64frombits(old) + v)
		if atomic.CompareAndSwapUint64(&h.sum, old, next) {
			break
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.boundaries {
		if v <= b {
			h.bucketCounts[i]++
			return
		}
	}
}

func (h *histogram) Count() int64 {
	return atomic.LoadInt64(&h.count)
}

func (h *histogram) Sum() float64 {
	return math.Float64frombits(atomic.LoadUint64(&h.sum))
}

func (h *histogram) cumulativeBuckets() []int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	cum := make([]int64, len(h.bucketCounts))
	var running int64
	for i, c := range h.bucketCounts {
		running += c
		cum[i] = running
	}
	return cum
}

// ---------------------------------------------------------------------------
// Labeled stores
// ---------------------------------------------------------------------------

// labelsKey joins label values into a store key.
func labelsKey(values ...string) string {
	return strings.Join(values, "|")
}

type histogramStore struct {
	mu    sync.RWMutex
	items map[string]*histogram
}

func (s *histogramStore) getOrCreate(key string) *histogram {
	s.mu.RLock()
	h, ok := s.items[key]
	s.mu.RUnlock()
	if ok {
		return h
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok = s.items[key]; !ok {
		h = newHistogram(durationBuckets)
		s.items[key] = h
	}
	return h
}

func (s *histogramStore) get(key string) *histogram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[key]
}

func (s *histogramStore) snapshot() map[string]*histogram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]*histogram, len(s.items))
	for k, v := range s.items {
		cp[k] = v
	}
	return cp
}

type counterStore struct {
	mu    sync.RWMutex
	items map[string]*int64
}

func (s *counterStore) add(key string, delta int64) {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		s.mu.Lock()
		if p, ok = s.items[key]; !ok {
			p = new(int64)
			s.items[key] = p
		}
		s.mu.Unlock()
	}
	atomic.AddInt64(p, delta)
}

func (s *counterStore) get(key string) int64 {
	s.mu.RLock()
	p, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return atomic.LoadInt64(p)
}

func (s *counterStore) snapshot() map[string]int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]int64, len(s.items))
	for k, p := range s.items {
		cp[k] = atomic.LoadInt64(p)
	}
	return cp
}

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// ContentType is the media type of the Prometheus text format.
const ContentType = "text/plain; version=0.0.4; charset=utf-8"

// GaugeFunc reports the current value of a gauge at scrape time.
type GaugeFunc func() int64

type gauge struct {
	name string
	help string
	fn   GaugeFunc
}

// Provider holds the in-process metrics of the API server.
type Provider struct {
	requests    *histogramStore // method|route|status
	active      int64
	extractions *counterStore // outcome

	gaugesMu sync.RWMutex
	gauges   []gauge
}

func NewProvider() *Provider {
	return &Provider{
		requests:    &histogramStore{items: make(map[string]*histogram)},
		extractions: &counterStore{items: make(map[string]*int64)},
	}
}

// RegisterGauge adds a gauge sampled on every scrape, e.g. pool statistics.
func (p *Provider) RegisterGauge(name, help string, fn GaugeFunc) {
	p.gaugesMu.Lock()
	defer p.gaugesMu.Unlock()
	p.gauges = append(p.gauges, gauge{name: name, help: help, fn: fn})
}

// ObserveExtraction counts one extraction attempt by outcome.
func (p *Provider) ObserveExtraction(outcome string) {
	p.extractions.add(outcome, 1)
}

// ExtractionCount returns how many extractions ended with outcome.
func (p *Provider) ExtractionCount(outcome string) int64 {
	return p.extractions.get(outcome)
}

// RequestCount returns the number of requests seen for a method, route
// pattern and status code.
func (p *Provider) RequestCount(method, route string, status int) int64 {
	h := p.requests.get(labelsKey(method, route, strconv.Itoa(status)))
	if h == nil {
		return 0
	}
	return h.Count()
}

// ActiveRequests returns the number of requests in flight.
func (p *Provider) ActiveRequests() int64 {
	return atomic.LoadInt64(&p.active)
}

// Middleware records request duration by method, route pattern and status.
// Record ids never become labels: the route pattern is used, and requests
// that matched no route are reported under "unmatched".
func (p *Provider) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			atomic.AddInt64(&p.active, 1)
			defer atomic.AddInt64(&p.active, -1)

			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if err != nil {
				status = http.StatusInternalServerError
			}
			route := c.Path()
			if err == echo.ErrNotFound || route == "" || strings.HasSuffix(route, "/*") {
				route = "unmatched"
			}
			key := labelsKey(c.Request().Method, route, strconv.Itoa(status))
			p.requests.getOrCreate(key).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the metrics in Prometheus text exposition format.
func (p *Provider) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder

		b.WriteString("# HELP http_server_request_duration_seconds Duration of HTTP requests in seconds.\n")
		b.WriteString("# TYPE http_server_request_duration_seconds histogram\n")
		requests := p.requests.snapshot()
		for _, key := range sortedKeys(requests) {
			parts := strings.SplitN(key, "|", 3)
			if len(parts) != 3 {
				continue
			}
			labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", parts[0], parts[1], parts[2])
			writeHistogram(&b, "http_server_request_duration_seconds", labels, requests[key])
		}
		b.WriteByte('\n')

		b.WriteString("# HELP http_server_active_requests Number of active HTTP requests.\n")
		b.WriteString("# TYPE http_server_active_requests gauge\n")
		fmt.Fprintf(&b, "http_server_active_requests %d\n\n", p.ActiveRequests())

		b.WriteString("# HELP nursia_extractions_total Form extractions by outcome.\n")
		b.WriteString("# TYPE nursia_extractions_total counter\n")
		extractions := p.extractions.snapshot()
		for _, outcome := range sortedKeys(extractions) {
			fmt.Fprintf(&b, "nursia_extractions_total{outcome=%q} %d\n", outcome, extractions[outcome])
		}
		b.WriteByte('\n')

		p.gaugesMu.RLock()
		gauges := append([]gauge(nil), p.gauges...)
		p.gaugesMu.RUnlock()
		for _, g := range gauges {
			fmt.Fprintf(&b, "# HELP %s %s\n", g.name, g.help)
			fmt.Fprintf(&b, "# TYPE %s gauge\n", g.name)
			fmt.Fprintf(&b, "%s %d\n\n", g.name, g.fn())
		}

		return c.Blob(http.StatusOK, ContentType, []byte(b.String()))
	}
}

func writeHistogram(b *strings.Builder, name, labels string, h *histogram) {
	cum := h.cumulativeBuckets()
	total := h.Count()
	for i, boundary := range h.boundaries {
		fmt.Fprintf(b, "%s_bucket{%s,le=\"%g\"} %d\n", name, labels, boundary, cum[i])
	}
	fmt.Fprintf(b, "%s_bucket{%s,le=\"+Inf\"} %d\n", name, labels, total)
	fmt.Fprintf(b, "%s_sum{%s} %g\n", name, labels, h.Sum())
	fmt.Fprintf(b, "%s_count{%s} %d\n", name, labels, total)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
