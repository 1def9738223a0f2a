package record

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nursia/nursia-api/internal/normalize"
	"github.com/nursia/nursia-api/internal/platform/middleware"
)

func newTestHandler() (*Handler, *mockRecordRepo, *echo.Echo) {
	svc, repo := newTestService()
	return NewHandler(svc, normalize.New()), repo, echo.New()
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func expectHTTPStatus(t *testing.T, err error, code int) {
	t.Helper()
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *echo.HTTPError with status %d, got %v", code, err)
	}
	if httpErr.Code != code {
		t.Errorf("expected status %d, got %d (%v)", code, httpErr.Code, httpErr.Message)
	}
}

func TestHandler_CreateRecord_LegacyForm(t *testing.T) {
	h, _, e := newTestHandler()

	body := `{"nome":" Maria da Silva ","dataAtendimento":"01/03/2025","sexo":"feminino",
		"religiao":"Católica","religiaoPraticante":"sim","moradiaTipo":"propria"}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/records", body), rec)

	if err := h.CreateRecord(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var got map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["name"] != "Maria da Silva" || got["sex"] != "F" {
		t.Errorf("expected normalized identity, got %v", got)
	}
	religion, _ := got["religion"].(map[string]any)
	if religion["name"] != "Católica" || religion["isPracticing"] != true {
		t.Errorf("unexpected religion: %v", got["religion"])
	}
	housing, _ := got["housing"].(map[string]any)
	if housing["type"] != "Owned" || housing["hasElectricity"] != true {
		t.Errorf("unexpected housing: %v", got["housing"])
	}
	if _, ok := got["nome"]; ok {
		t.Error("legacy keys must not leak into the stored record")
	}
	if got["id"] == nil || got["createdAt"] == nil {
		t.Errorf("expected id and timestamps, got %v", got)
	}
	if c.Get(middleware.RecordIDKey) != got["id"] {
		t.Errorf("expected record id on the context for auditing, got %v", c.Get(middleware.RecordIDKey))
	}
}

func TestHandler_CreateRecord_MissingRequired(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/records", `{"nome":"Maria"}`), httptest.NewRecorder())

	err := h.CreateRecord(c)
	expectHTTPStatus(t, err, http.StatusBadRequest)
	if msg := err.(*echo.HTTPError).Message.(string); !strings.Contains(msg, "visitDate") {
		t.Errorf("expected message to name visitDate, got %q", msg)
	}
}

func TestHandler_CreateRecord_BadBody(t *testing.T) {
	h, _, e := newTestHandler()
	for _, body := range []string{`[1,2]`, `{"nome":`, `"texto"`} {
		c := e.NewContext(jsonRequest(http.MethodPost, "/records", body), httptest.NewRecorder())
		expectHTTPStatus(t, h.CreateRecord(c), http.StatusBadRequest)
	}
}

func TestHandler_CreateRecord_EmptyBody(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPost, "/records", ""), httptest.NewRecorder())
	expectHTTPStatus(t, h.CreateRecord(c), http.StatusBadRequest)
}

func TestHandler_GetRecord(t *testing.T) {
	h, _, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validRecord("Maria"))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := h.GetRecord(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got NursingRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID || *got.Name != "Maria" {
		t.Errorf("unexpected record: %+v", got)
	}
}

func TestHandler_GetRecord_Errors(t *testing.T) {
	h, _, e := newTestHandler()

	tests := []struct {
		id   string
		code int
	}{
		{"not-a-uuid", http.StatusBadRequest},
		{uuid.New().String(), http.StatusNotFound},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tt.id)
		expectHTTPStatus(t, h.GetRecord(c), tt.code)
	}
}

func TestHandler_ListRecords(t *testing.T) {
	h, _, e := newTestHandler()
	for _, n := range []string{"Maria", "João", "Mariana"} {
		h.svc.Create(context.Background(), validRecord(n))
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/records?q=mari&limit=1", nil), rec)
	if err := h.ListRecords(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Data    []NursingRecord `json:"data"`
		Total   int             `json:"total"`
		Limit   int             `json:"limit"`
		HasMore bool            `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Data) != 1 || resp.Limit != 1 || !resp.HasMore {
		t.Errorf("unexpected page: %+v", resp)
	}
	if *resp.Data[0].Name != "Mariana" {
		t.Errorf("expected newest match first, got %q", *resp.Data[0].Name)
	}
}

func TestHandler_ListRecords_EmptyIsArray(t *testing.T) {
	h, _, e := newTestHandler()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/records", nil), rec)
	if err := h.ListRecords(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Errorf("expected an empty data array, got %s", rec.Body.String())
	}
}

func TestHandler_UpdateRecord(t *testing.T) {
	h, _, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validRecord("Maria"))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, "/", `{"tabagista":"sim","cigarrosDia":"10"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())

	if err := h.UpdateRecord(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got NursingRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TobaccoUse == nil || got.TobaccoUse.IsSmoker == nil || !*got.TobaccoUse.IsSmoker {
		t.Errorf("expected tobacco use to be patched, got %+v", got.TobaccoUse)
	}
	if got.Name == nil || *got.Name != "Maria" {
		t.Error("expected name to survive the patch")
	}
}

func TestHandler_UpdateRecord_NothingRecognized(t *testing.T) {
	h, _, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validRecord("Maria"))

	c := e.NewContext(jsonRequest(http.MethodPatch, "/", `{"campoDesconhecido":"x","nome":"  "}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	expectHTTPStatus(t, h.UpdateRecord(c), http.StatusBadRequest)
}

func TestHandler_DeleteRecord(t *testing.T) {
	h, _, e := newTestHandler()
	created, _ := h.svc.Create(context.Background(), validRecord("Maria"))

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	if err := h.DeleteRecord(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"ok":true}` {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/", nil), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(created.ID.String())
	expectHTTPStatus(t, h.DeleteRecord(c), http.StatusNotFound)
}

func TestHandler_RepositoryFailureIs500(t *testing.T) {
	h, repo, e := newTestHandler()
	repo.listErr = errors.New("connection reset")

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/records", nil), httptest.NewRecorder())
	err := h.ListRecords(c)
	expectHTTPStatus(t, err, http.StatusInternalServerError)
	if msg := err.(*echo.HTTPError).Message; msg != "internal server error" {
		t.Errorf("expected the cause to stay internal, got %v", msg)
	}
}

func TestHandler_RegisterRoutes(t *testing.T) {
	h, _, e := newTestHandler()
	h.RegisterRoutes(e.Group(""), e.Group(""))

	want := map[string]bool{
		"GET /records":             true,
		"GET /records/export.xlsx": true,
		"GET /records/:id":         true,
		"POST /records":            true,
		"PATCH /records/:id":       true,
		"DELETE /records/:id":      true,
	}
	for _, r := range e.Routes() {
		delete(want, r.Method+" "+r.Path)
	}
	if len(want) != 0 {
		t.Errorf("routes not registered: %v", want)
	}
}

func TestHandler_ExportRouteWinsOverID(t *testing.T) {
	h, _, e := newTestHandler()
	h.RegisterRoutes(e.Group(""), e.Group(""))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/records/export.xlsx", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get(echo.HeaderContentDisposition), "attachment;") {
		t.Errorf("expected attachment disposition, got %q", rec.Header().Get(echo.HeaderContentDisposition))
	}
}
