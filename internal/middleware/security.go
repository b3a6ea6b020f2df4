package middleware

import (
	"github.com/labstack/echo/v4"
)

// hopByHopHeaders are connection-level headers that must not reach handlers.
// Proxy is included to keep httpoxy-style values out of the signal table.
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// securityHeaders are set on every response.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "no-referrer"},
}

// SecurityHeaders returns an Echo middleware that strips hop-by-hop headers
// from requests and adds security headers to responses. The response headers
// are staged in a Before hook so they also land on responses committed
// directly by a transmitter.
func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, h := range hopByHopHeaders {
				c.Request().Header.Del(h)
			}

			res := c.Response()
			res.Before(func() {
				for _, h := range securityHeaders {
					res.Header().Set(h[0], h[1])
				}
			})

			return next(c)
		}
	}
}
