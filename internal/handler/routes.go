package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"httpmsgutils/internal/config"
	"httpmsgutils/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
func RegisterRoutes(
	e *echo.Echo,
	cfg *config.Config,
	m *metrics.Metrics,
	whoami *WhoamiHandler,
	session *SessionHandler,
	health *HealthHandler,
) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	e.GET("/whoami", whoami.Handle)
	e.POST("/session", session.Create)
	e.DELETE("/session", session.Delete)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
