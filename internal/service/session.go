// Package service implements session cookie issuing and expiry.
package service

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"httpmsgutils/internal/config"
	"httpmsgutils/internal/cookie"
)

// ErrNoSession is returned when a request carries no session cookie.
var ErrNoSession = errors.New("no session cookie presented")

// SessionService builds session cookies from the [cookie] configuration.
type SessionService struct {
	cfg    config.CookieConfig
	logger *slog.Logger
	newID  func() string
}

// NewSessionService creates a SessionService.
func NewSessionService(cfg *config.Config, logger *slog.Logger) *SessionService {
	return &SessionService{
		cfg:    cfg.Cookie,
		logger: logger.With("component", "session_service"),
		newID:  uuid.NewString,
	}
}

// Name returns the session cookie name.
func (s *SessionService) Name() string {
	return s.cfg.Name
}

// Issue returns a fresh session cookie. secure forces the Secure attribute
// on, for requests that reached the client over https.
func (s *SessionService) Issue(secure bool) cookie.Cookie {
	c := s.base(secure).WithValue(s.newID())
	s.logger.Debug("session issued", "name", c.Name, "secure", c.Secure)
	return c
}

// Expire returns a cookie that deletes the session presented by r.
func (s *SessionService) Expire(r *http.Request, secure bool) (cookie.Cookie, error) {
	if _, ok := s.Lookup(r); !ok {
		return cookie.Cookie{}, ErrNoSession
	}
	c := s.base(secure).WithExpireNow()
	s.logger.Debug("session expired", "name", c.Name)
	return c, nil
}

// Lookup returns the session id presented by r.
func (s *SessionService) Lookup(r *http.Request) (string, bool) {
	hc, err := r.Cookie(s.cfg.Name)
	if err != nil || hc.Value == "" {
		return "", false
	}
	return hc.Value, true
}

func (s *SessionService) base(secure bool) cookie.Cookie {
	opts := []cookie.Option{
		cookie.Path(s.cfg.Path),
		cookie.Domain(s.cfg.Domain),
		cookie.Secure(s.cfg.Secure || secure),
		cookie.HTTPOnly(s.cfg.HTTPOnly),
		cookie.Expiration(s.cfg.MaxAgeSeconds),
	}
	if s.cfg.SameSite != "" {
		opts = append(opts, cookie.SameSite(s.cfg.SameSite))
	}
	return cookie.New(s.cfg.Name, opts...)
}
