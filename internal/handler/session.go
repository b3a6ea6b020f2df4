package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"httpmsgutils/internal/metrics"
	"httpmsgutils/internal/middleware"
	"httpmsgutils/internal/service"
)

// SessionHandler issues and expires the session cookie.
type SessionHandler struct {
	sessions *service.SessionService
	metrics  *metrics.Metrics
	out      *Responder
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(sessions *service.SessionService, m *metrics.Metrics, out *Responder) *SessionHandler {
	return &SessionHandler{sessions: sessions, metrics: m, out: out}
}

// Create answers POST /session with a new session cookie. The cookie is
// marked Secure when the client reached us over https.
func (h *SessionHandler) Create(c echo.Context) error {
	ck := h.sessions.Issue(isHTTPS(c))

	resp, err := jsonResponse(http.StatusCreated, map[string]string{
		"status": "issued",
		"cookie": ck.Name,
	})
	if err != nil {
		return err
	}

	h.metrics.CookiesIssued.WithLabelValues("issue").Inc()
	return h.out.Send(c, ck.AddTo(resp))
}

// Delete answers DELETE /session with an expiring cookie for the presented session.
func (h *SessionHandler) Delete(c echo.Context) error {
	ck, err := h.sessions.Expire(c.Request(), isHTTPS(c))
	if errors.Is(err, service.ErrNoSession) {
		return c.JSON(http.StatusNotFound, map[string]string{
			"error": err.Error(),
		})
	}
	if err != nil {
		return err
	}

	resp, err := jsonResponse(http.StatusOK, map[string]string{
		"status": "expired",
		"cookie": ck.Name,
	})
	if err != nil {
		return err
	}

	h.metrics.CookiesIssued.WithLabelValues("expire").Inc()
	return h.out.Send(c, ck.SetOn(resp))
}

func isHTTPS(c echo.Context) bool {
	return middleware.ResolvedURL(c).Scheme == "https"
}
