package middleware

import (
	"net/url"

	"github.com/labstack/echo/v4"

	"httpmsgutils/internal/config"
	"httpmsgutils/internal/metrics"
	"httpmsgutils/internal/proxyscheme"
)

// ResolvedURLKey is the echo context key holding the client-facing *url.URL.
const ResolvedURLKey = "resolved_url"

// ProxyScheme returns an Echo middleware that resolves the client-facing URL
// of each request and stores it under ResolvedURLKey. Forwarded signals are
// only consulted when cfg.TrustForwarded is set; otherwise the URL reflects
// the connection as this server sees it.
func ProxyScheme(cfg config.ProxyConfig, m *metrics.Metrics) echo.MiddlewareFunc {
	fallback := cfg.Fallback()
	rules := cfg.Rules()
	keys := cfg.Keys()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if !cfg.TrustForwarded {
				c.Set(ResolvedURLKey, proxyscheme.RequestURL(req))
				m.SchemeResolutions.WithLabelValues("untrusted", "none").Inc()
				return next(c)
			}

			resolver := proxyscheme.New(
				proxyscheme.SignalsFromRequest(req),
				proxyscheme.WithHTTPSRules(rules),
				proxyscheme.WithPortKeys(keys),
			)
			resolved := resolver.ResolveRequest(req, cfg.DetectPort, fallback)
			c.Set(ResolvedURLKey, resolved.URL)

			if rule, ok := resolver.DetectHTTPS(); ok {
				m.SchemeResolutions.WithLabelValues("https", rule.Key).Inc()
			} else {
				m.SchemeResolutions.WithLabelValues("unchanged", "none").Inc()
			}

			return next(c)
		}
	}
}

// ResolvedURL returns the URL stored by ProxyScheme, falling back to the
// request as received when the middleware did not run.
func ResolvedURL(c echo.Context) *url.URL {
	if u, ok := c.Get(ResolvedURLKey).(*url.URL); ok {
		return u
	}
	return proxyscheme.RequestURL(c.Request())
}
