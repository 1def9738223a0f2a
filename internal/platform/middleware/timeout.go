package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// TimeoutConfig configures RequestTimeout.
type TimeoutConfig struct {
	Timeout time.Duration
	// SkipPrefixes are left without a deadline here because a route-level
	// RequestTimeout gives them their own.
	SkipPrefixes []string
	Logger       zerolog.Logger
}

// RequestTimeout puts a deadline on the request context. The handler runs on
// the request goroutine and is expected to honor the context; once it returns
// after the deadline without having written a response, the answer is a 504.
// A response the handler already committed is left as is. Panics are
// recovered here and answered with a 500.
func RequestTimeout(cfg TimeoutConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			for _, p := range cfg.SkipPrefixes {
				if strings.HasPrefix(path, p) {
					return next(c)
				}
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), cfg.Timeout)
			defer cancel()
			c.SetRequest(c.Request().WithContext(ctx))

			err := runGuarded(cfg.Logger, c, next)
			if c.Response().Committed {
				return err
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return echo.NewHTTPError(http.StatusGatewayTimeout,
					"request processing exceeded the allowed time limit")
			}
			return err
		}
	}
}
