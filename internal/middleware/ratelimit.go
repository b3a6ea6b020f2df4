package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"httpmsgutils/internal/config"
)

// RateLimiter returns a per-IP rate limiter backed by echo's in-memory store.
// Rejections are answered with a JSON error body.
func RateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStore(rate.Limit(cfg.RequestsPerSecond))
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "client identity unavailable",
			})
		},
	})
}
