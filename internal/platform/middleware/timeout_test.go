package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestTimeout_CompletesWithinDeadline(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := func(c echo.Context) error {
		called = true
		return c.String(http.StatusOK, "ok")
	}

	err := RequestTimeout(TimeoutConfig{Timeout: 5 * time.Second})(handler)(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to be called")
	}
}

func TestRequestTimeout_ReturnsTimeoutOnExpiry(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}

	err := RequestTimeout(TimeoutConfig{Timeout: 50 * time.Millisecond})(handler)(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", httpErr.Code)
	}
}

func TestRequestTimeout_LateWriteFinishesBeforeReturn(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	finished := false
	handler := func(c echo.Context) error {
		time.Sleep(80 * time.Millisecond)
		err := c.String(http.StatusOK, "late")
		finished = true
		return err
	}

	err := RequestTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})(handler)(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !finished {
		t.Fatal("expected the handler to finish before the middleware returned")
	}
	if rec.Code != http.StatusOK || rec.Body.String() != "late" {
		t.Errorf("expected the handler's answer, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequestTimeout_SilentOverrunAnswersTimeout(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		time.Sleep(60 * time.Millisecond)
		return nil
	}

	err := RequestTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond})(handler)(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusGatewayTimeout {
		t.Errorf("expected 504, got %d", httpErr.Code)
	}
}

func TestRequestTimeout_SkipsPrefixes(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/ai/extract", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); ok {
			t.Error("expected no deadline on a skipped path")
		}
		time.Sleep(80 * time.Millisecond)
		return nil
	}

	if err := RequestTimeout(TimeoutConfig{Timeout: 20 * time.Millisecond, SkipPrefixes: []string{"/ai/"}})(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_ContextHasDeadline(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		if _, ok := c.Request().Context().Deadline(); !ok {
			t.Error("expected request context to carry a deadline")
		}
		return nil
	}

	if err := RequestTimeout(TimeoutConfig{Timeout: time.Second})(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestTimeout_PropagatesHandlerError(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	want := errors.New("handler failed")
	err := RequestTimeout(TimeoutConfig{Timeout: time.Second})(func(c echo.Context) error { return want })(c)

	if !errors.Is(err, want) {
		t.Errorf("expected handler error, got %v", err)
	}
}

func TestRequestTimeout_RecoversHandlerPanic(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := func(c echo.Context) error {
		var m map[string]int
		m["boom"]++
		return nil
	}

	err := RequestTimeout(TimeoutConfig{Timeout: time.Second, Logger: zerolog.Nop()})(handler)(c)

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", httpErr.Code)
	}
}
