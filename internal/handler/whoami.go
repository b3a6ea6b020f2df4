package handler

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"httpmsgutils/internal/middleware"
	"httpmsgutils/internal/service"
)

// WhoamiHandler describes the request as the service understood it.
type WhoamiHandler struct {
	sessions *service.SessionService
	out      *Responder
}

// NewWhoamiHandler creates a WhoamiHandler.
func NewWhoamiHandler(sessions *service.SessionService, out *Responder) *WhoamiHandler {
	return &WhoamiHandler{sessions: sessions, out: out}
}

type whoamiBody struct {
	URL           string    `json:"url"`
	Scheme        string    `json:"scheme"`
	Host          string    `json:"host"`
	Port          string    `json:"port,omitempty"`
	Authorization *authBody `json:"authorization,omitempty"`
	Session       bool      `json:"session"`
	Cookies       []string  `json:"cookies"`
}

// authBody never carries the credentials themselves.
type authBody struct {
	Type              string `json:"type"`
	CredentialsLength int    `json:"credentials_length"`
}

// Handle answers GET /whoami.
func (h *WhoamiHandler) Handle(c echo.Context) error {
	u := middleware.ResolvedURL(c)

	body := whoamiBody{
		URL:     u.String(),
		Scheme:  u.Scheme,
		Host:    u.Hostname(),
		Port:    u.Port(),
		Cookies: []string{},
	}
	if parts, ok := middleware.AuthorizationParts(c); ok {
		body.Authorization = &authBody{
			Type:              parts.Type,
			CredentialsLength: len(parts.Credentials),
		}
	}
	_, body.Session = h.sessions.Lookup(c.Request())
	for _, ck := range c.Request().Cookies() {
		if !slices.Contains(body.Cookies, ck.Name) {
			body.Cookies = append(body.Cookies, ck.Name)
		}
	}
	slices.Sort(body.Cookies)

	resp, err := jsonResponse(http.StatusOK, body)
	if err != nil {
		return err
	}
	return h.out.Send(c, resp.WithHeader("Cache-Control", "no-store"))
}
