// Package middleware provides Echo middleware for logging, metrics, security
// headers, forwarded scheme resolution and authorization parsing.
package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger returns an Echo middleware that logs each request with slog.
// The client-facing scheme is taken from ProxyScheme when it ran.
func RequestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			attrs := []any{
				"method", req.Method,
				"path", req.URL.Path,
				"status", res.Status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
				"bytes_out", res.Size,
				"scheme", ResolvedURL(c).Scheme,
			}
			if err != nil {
				attrs = append(attrs, "err", err)
			}

			logger.Info("request", attrs...)

			return err
		}
	}
}
