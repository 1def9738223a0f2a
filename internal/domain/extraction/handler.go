package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ExtractRequest struct {
	Image string `json:"image"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts POST /ai/extract on the admin-gated group. The extra
// middleware, typically the extraction deadline, applies to this route only.
func (h *Handler) RegisterRoutes(admin *echo.Group, mw ...echo.MiddlewareFunc) {
	admin.POST("/ai/extract", h.Extract, mw...)
}

func (h *Handler) Extract(c echo.Context) error {
	var req ExtractRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr
		}
		return echo.NewHTTPError(http.StatusBadRequest, ErrImageInvalid.Error())
	}

	res, err := h.svc.Extract(c.Request().Context(), req.Image)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, res)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrImageInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError,
			"server is misconfigured: OPENAI_API_KEY missing").SetInternal(err)
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "extraction timed out").SetInternal(err)
	case errors.Is(err, ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "extraction failed").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "extraction failed").SetInternal(err)
	}
}
