package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// errPanic is what a recovered handler panic turns into. The panic value and
// stack stay in the log.
var errPanic = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")

// Recovery turns handler panics into 500 answers.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = logPanic(logger, c, r)
				}
			}()
			return next(c)
		}
	}
}

// runGuarded calls next and reports a panic as an error instead of unwinding
// the caller.
func runGuarded(logger zerolog.Logger, c echo.Context, next echo.HandlerFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = logPanic(logger, c, r)
		}
	}()
	return next(c)
}

func logPanic(logger zerolog.Logger, c echo.Context, r any) error {
	stack := make([]byte, 4096)
	stack = stack[:runtime.Stack(stack, false)]

	rid, _ := c.Get("request_id").(string)
	req := c.Request()
	logger.Error().
		Str("request_id", rid).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("panic", fmt.Sprint(r)).
		Bytes("stack", stack).
		Msg("panic recovered")
	return errPanic
}
