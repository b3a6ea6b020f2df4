package middleware

import (
	"github.com/labstack/echo/v4"

	"httpmsgutils/internal/authorization"
	"httpmsgutils/internal/metrics"
)

// AuthorizationKey is the echo context key holding authorization.Parts.
const AuthorizationKey = "authorization"

// Authorization returns an Echo middleware that splits the Authorization
// header into type and credentials. A missing or blank header is not an
// error; nothing is stored and the request continues.
func Authorization(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			parts, ok := authorization.ParseRequest(c.Request(), authorization.DefaultHeader)
			if ok {
				c.Set(AuthorizationKey, parts)
			}
			m.AuthorizationParsed.WithLabelValues(metrics.NormalizeAuthType(parts.Type)).Inc()

			return next(c)
		}
	}
}

// AuthorizationParts returns the parts stored by Authorization.
func AuthorizationParts(c echo.Context) (authorization.Parts, bool) {
	p, ok := c.Get(AuthorizationKey).(authorization.Parts)
	return p, ok
}
