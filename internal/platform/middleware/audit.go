package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/nursia/nursia-api/internal/platform/auth"
)

// RecordIDKey is the echo context key a handler sets when it creates a
// record, so the audit entry can name it.
const RecordIDKey = "record_id"

// auditEntry describes one audited request.
type auditEntry struct {
	Role       auth.Role
	Resource   string
	RecordID   string
	Action     string // create, update, delete, extract
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	RequestID  string
	StatusCode int
}

// Audit logs every request that changes patient data or sends an image out
// for extraction. Reads are covered by the request logger.
func Audit(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !isAuditable(req.Method, req.URL.Path) {
				return next(c)
			}

			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}

			entry := auditEntry{
				Path:       req.URL.Path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: status,
				Role:       auth.RoleFromContext(c.Request().Context()),
				Action:     auditAction(req.Method, req.URL.Path),
				Resource:   resourceFromPath(req.URL.Path),
				RecordID:   recordID(c),
			}
			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			logger.Info().
				Str("type", "audit").
				Str("request_id", entry.RequestID).
				Str("role", string(entry.Role)).
				Str("resource", entry.Resource).
				Str("record_id", entry.RecordID).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Str("user_agent", entry.UserAgent).
				Int("status", entry.StatusCode).
				Msg("audit")

			return err
		}
	}
}

func isAuditable(method, path string) bool {
	if strings.HasPrefix(path, "/ai/") {
		return method == http.MethodPost
	}
	if !strings.HasPrefix(path, "/records") {
		return false
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func auditAction(method, path string) string {
	if strings.HasPrefix(path, "/ai/") {
		return "extract"
	}
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// resourceFromPath returns the first path segment: /records/123 -> records.
func resourceFromPath(path string) string {
	seg := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)
	if seg[0] == "" {
		return "unknown"
	}
	return seg[0]
}

// recordID prefers the route parameter, then the id the handler set, then
// the second path segment when it parses as a UUID.
func recordID(c echo.Context) string {
	if id := c.Param("id"); id != "" {
		return id
	}
	if id, ok := c.Get(RecordIDKey).(string); ok {
		return id
	}
	seg := strings.Split(strings.TrimPrefix(c.Request().URL.Path, "/"), "/")
	if len(seg) > 1 && isUUIDLike(seg[1]) {
		return seg[1]
	}
	return ""
}

func isUUIDLike(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
