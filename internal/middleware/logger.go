package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/file-manager/internal/logging"
)

// RequestLogger writes one structured line per request.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// let echo write the error response so the status is final
				c.Error(err)
			}

			status := c.Response().Status
			args := []any{
				"request_id", requestID(c),
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"latency_ms", float64(time.Since(start).Microseconds()) / 1000,
			}
			if uid := CurrentUserID(c); uid != "" {
				args = append(args, "user_id", uid.String())
			}
			ctx := c.Request().Context()
			switch {
			case status >= 500:
				log.Error(ctx, "request", append(args, "error", err)...)
			case status >= 400:
				log.Warn(ctx, "request", args...)
			default:
				log.Info(ctx, "request", args...)
			}
			return nil
		}
	}
}
