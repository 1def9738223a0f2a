package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type LoginRequest struct {
	Password string `json:"password"`
	AsAdmin  bool   `json:"asAdmin"`
}

// LoginResponse hands the client the headers it must send from now on.
// Admins get the access password too, since every route checks it.
type LoginResponse struct {
	Role      Role   `json:"role"`
	AccessKey string `json:"accessKey"`
	AdminKey  string `json:"adminKey,omitempty"`
}

// LoginHandler exchanges a typed password for the gate secrets.
type LoginHandler struct {
	gate *Gate
}

func NewLoginHandler(gate *Gate) *LoginHandler {
	return &LoginHandler{gate: gate}
}

// RegisterRoutes mounts POST /auth/login. The extra middleware, typically a
// rate limiter, applies to the login route only.
func (h *LoginHandler) RegisterRoutes(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	g := e.Group("/auth")
	g.POST("/login", h.Login, mw...)
}

func (h *LoginHandler) Login(c echo.Context) error {
	if err := h.gate.Configured(); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError,
			"server is misconfigured: ACCESS_PASSWORD/ADMIN_KEY missing").SetInternal(err)
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}

	if req.AsAdmin {
		if !secretEqual(req.Password, h.gate.adminKey) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid admin password")
		}
		return c.JSON(http.StatusOK, LoginResponse{
			Role:      RoleAdmin,
			AccessKey: h.gate.accessPassword,
			AdminKey:  h.gate.adminKey,
		})
	}

	if !secretEqual(req.Password, h.gate.accessPassword) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid password")
	}
	return c.JSON(http.StatusOK, LoginResponse{Role: RoleNurse, AccessKey: h.gate.accessPassword})
}
