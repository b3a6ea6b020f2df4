package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"httpmsgutils/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status reports the build version and how forwarded headers are treated.
func (h *HealthHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":           "ok",
		"version":          string(h.version),
		"trust_forwarded":  strconv.FormatBool(h.cfg.Proxy.TrustForwarded),
		"detect_port":      strconv.FormatBool(h.cfg.Proxy.DetectPort),
		"port_fallback":    h.cfg.Proxy.Fallback().String(),
		"full_status_line": strconv.FormatBool(h.cfg.Transmit.FullStatusLine),
	})
}
