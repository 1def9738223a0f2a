package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nursia/nursia-api/internal/normalize"
	"github.com/nursia/nursia-api/internal/platform/middleware"
	"github.com/nursia/nursia-api/pkg/pagination"
)

type Handler struct {
	svc        *Service
	normalizer *normalize.Normalizer
}

func NewHandler(svc *Service, n *normalize.Normalizer) *Handler {
	return &Handler{svc: svc, normalizer: n}
}

// RegisterRoutes mounts reads on the access-gated group and writes on the
// admin-gated group.
func (h *Handler) RegisterRoutes(read, admin *echo.Group) {
	read.GET("/records", h.ListRecords)
	read.GET("/records/export.xlsx", h.ExportRecords)
	read.GET("/records/:id", h.GetRecord)

	admin.POST("/records", h.CreateRecord)
	admin.PATCH("/records/:id", h.UpdateRecord)
	admin.DELETE("/records/:id", h.DeleteRecord)
}

func (h *Handler) CreateRecord(c echo.Context) error {
	raw, err := decodePayload(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Create(c.Request().Context(), h.normalizer.Normalize(raw))
	if err != nil {
		return toHTTPError(err)
	}
	c.Set(middleware.RecordIDKey, rec.ID.String())
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("q"), pg.Limit, pg.Offset)
	if err != nil {
		return toHTTPError(err)
	}
	if items == nil {
		items = []*NursingRecord{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	raw, err := decodePayload(c)
	if err != nil {
		return err
	}
	rec, err := h.svc.Update(c.Request().Context(), id, h.normalizer.Normalize(raw))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteRecord(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) ExportRecords(c echo.Context) error {
	items, err := h.svc.ListAll(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return toHTTPError(err)
	}
	data, err := ExportXLSX(items)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to build export").SetInternal(err)
	}
	name := fmt.Sprintf("registros-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// decodePayload reads the body as a loose JSON object. The engine decides
// what to keep, so no schema is applied here. An empty body is an empty
// payload.
func decodePayload(c echo.Context) (map[string]any, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return nil, httpErr
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	if len(body) == 0 {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "body must be a JSON object")
	}
	return raw, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "record not found")
	case errors.Is(err, ErrValidation), errors.Is(err, ErrEmptyPatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}
