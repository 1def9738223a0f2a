package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nursia/nursia-api/internal/normalize"
)

func newTestHandler(ext Extractor) (*Handler, *echo.Echo) {
	return NewHandler(NewService(ext, nil, normalize.New(), zerolog.Nop())), echo.New()
}

func postExtract(t *testing.T, h *Handler, e *echo.Echo, body string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/ai/extract", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return rec, h.Extract(e.NewContext(req, rec))
}

func expectStatus(t *testing.T, err error, code int) {
	t.Helper()
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *echo.HTTPError with status %d, got %v", code, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected status %d, got %d", code, httpErr.Code)
	}
}

func TestHandler_Extract(t *testing.T) {
	h, e := newTestHandler(&fakeExtractor{data: answer()})

	rec, err := postExtract(t, h, e, `{"image":"`+testImage+`"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data   map[string]any `json:"data"`
		Record map[string]any `json:"record"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data["nome"] != "Maria da Silva" {
		t.Errorf("expected the raw answer under data, got %v", resp.Data)
	}
	if resp.Record["name"] != "Maria da Silva" {
		t.Errorf("expected the canonical record under record, got %v", resp.Record)
	}
	if _, ok := resp.Record["nome"]; ok {
		t.Error("canonical record must not carry raw keys")
	}
}

func TestHandler_Extract_Errors(t *testing.T) {
	tests := []struct {
		name string
		ext  Extractor
		body string
		code int
	}{
		{"missing image", &fakeExtractor{}, `{}`, http.StatusBadRequest},
		{"image is not a string", &fakeExtractor{}, `{"image":42}`, http.StatusBadRequest},
		{"not a data url", &fakeExtractor{}, `{"image":"https://example.com/a.png"}`, http.StatusBadRequest},
		{"malformed body", &fakeExtractor{}, `{"image":`, http.StatusBadRequest},
		{"api key unset", &fakeExtractor{err: ErrNotConfigured}, `{"image":"` + testImage + `"}`, http.StatusInternalServerError},
		{"provider failure", &fakeExtractor{err: ErrUpstream}, `{"image":"` + testImage + `"}`, http.StatusBadGateway},
		{"deadline", &fakeExtractor{err: context.DeadlineExceeded}, `{"image":"` + testImage + `"}`, http.StatusGatewayTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, e := newTestHandler(tt.ext)
			_, err := postExtract(t, h, e, tt.body)
			expectStatus(t, err, tt.code)
		})
	}
}

func TestHandler_Extract_MisconfiguredMessage(t *testing.T) {
	h, e := newTestHandler(&fakeExtractor{err: ErrNotConfigured})
	_, err := postExtract(t, h, e, `{"image":"`+testImage+`"}`)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T", err)
	}
	if !strings.Contains(httpErr.Message.(string), "OPENAI_API_KEY") {
		t.Errorf("expected message to name OPENAI_API_KEY, got %v", httpErr.Message)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, e := newTestHandler(&fakeExtractor{data: answer()})
	h.RegisterRoutes(e.Group(""))

	req := httptest.NewRequest(http.MethodPost, "/ai/extract", strings.NewReader(`{"image":"`+testImage+`"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
