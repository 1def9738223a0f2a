package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	AccessHeader = "X-Access-Password"
	AdminHeader  = "X-Admin-Key"
)

// Role is the privilege a request was granted by the gate.
type Role string

const (
	RoleNurse Role = "nurse"
	RoleAdmin Role = "admin"
)

type contextKey string

const roleKey contextKey = "role"

// ErrSecretNotConfigured is returned when a shared secret is unset, which
// leaves every route it guards unusable.
var ErrSecretNotConfigured = errors.New("shared secret not configured")

// Gate checks the two shared secrets: the access password every client
// sends and the admin key that unlocks writes.
type Gate struct {
	accessPassword string
	adminKey       string
}

func NewGate(accessPassword, adminKey string) *Gate {
	return &Gate{accessPassword: accessPassword, adminKey: adminKey}
}

// Configured reports whether both secrets are set.
func (g *Gate) Configured() error {
	if g.accessPassword == "" || g.adminKey == "" {
		return ErrSecretNotConfigured
	}
	return nil
}

// RequireAccess rejects requests without the access password.
func (g *Gate) RequireAccess() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.accessPassword == "" {
				return misconfigured("ACCESS_PASSWORD")
			}
			if !secretEqual(c.Request().Header.Get(AccessHeader), g.accessPassword) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing access password")
			}
			if RoleFromContext(c.Request().Context()) == "" {
				setRole(c, RoleNurse)
			}
			return next(c)
		}
	}
}

// RequireAdmin rejects requests without the admin key. It is applied on
// top of RequireAccess.
func (g *Gate) RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if g.adminKey == "" {
				return misconfigured("ADMIN_KEY")
			}
			if !secretEqual(c.Request().Header.Get(AdminHeader), g.adminKey) {
				return echo.NewHTTPError(http.StatusForbidden, "admin key required")
			}
			setRole(c, RoleAdmin)
			return next(c)
		}
	}
}

func setRole(c echo.Context, role Role) {
	ctx := context.WithValue(c.Request().Context(), roleKey, role)
	c.SetRequest(c.Request().WithContext(ctx))
}

// RoleFromContext returns the role granted to the request, or "" when the
// request did not pass the gate.
func RoleFromContext(ctx context.Context) Role {
	role, _ := ctx.Value(roleKey).(Role)
	return role
}

func misconfigured(name string) error {
	return echo.NewHTTPError(http.StatusInternalServerError,
		"server is misconfigured: "+name+" missing").SetInternal(ErrSecretNotConfigured)
}

// secretEqual compares in constant time. An empty value never matches.
func secretEqual(provided, expected string) bool {
	if provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}
