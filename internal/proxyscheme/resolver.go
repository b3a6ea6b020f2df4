// Package proxyscheme recovers the scheme and port a client actually used
// when a request reached the server through a reverse proxy or load balancer
// that rewrote them.
//
// Detection is table driven. HTTPS rules are checked in order and the first
// signal whose value matches (case-insensitively) wins; forwarded port keys
// are checked in order and the first value that is a valid TCP port wins.
// The resolver only ever sets the scheme to "https": a request that is
// already secure is never downgraded, whatever the signals say.
package proxyscheme

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Rule maps a signal key to the value that marks the original connection as HTTPS.
type Rule struct {
	Key   string
	Value string
}

// DefaultHTTPSRules lists the well-known forwarded-protocol signals in the
// order they are consulted.
var DefaultHTTPSRules = []Rule{
	{Key: "HTTP_X_FORWARDED_PROTOCOL", Value: "https"},
	{Key: "HTTP_X_FORWARDED_PROTO", Value: "https"},
	{Key: "HTTP_X_FORWARDED_SSL", Value: "on"},
	{Key: "HTTP_FRONT_END_HTTPS", Value: "on"},
	{Key: "HTTP_X_URL_SCHEME", Value: "https"},
	{Key: "HTTPS", Value: "on"},
}

// DefaultPortKeys lists the forwarded-port signals in the order they are consulted.
var DefaultPortKeys = []string{"HTTP_X_FORWARDED_PORT"}

type fallbackMode int

const (
	keepPort fallbackMode = iota
	removePort
	setPort
)

// Fallback decides what happens to the port when no forwarded port is found.
// The zero value is KeepPort.
type Fallback struct {
	mode fallbackMode
	port int
}

var (
	// KeepPort leaves the port of the URL as it is.
	KeepPort = Fallback{mode: keepPort}
	// RemovePort strips the port so the scheme default applies.
	RemovePort = Fallback{mode: removePort}
)

// Port returns a Fallback that sets the given port.
func Port(p int) Fallback {
	return Fallback{mode: setPort, port: p}
}

// ParseFallback converts a configuration value ("keep", "remove" or "port")
// into a Fallback. port is only used by "port" and must be 1-65535.
func ParseFallback(mode string, port int) (Fallback, error) {
	switch strings.ToLower(mode) {
	case "", "keep":
		return KeepPort, nil
	case "remove":
		return RemovePort, nil
	case "port":
		if !validPort(port) {
			return Fallback{}, fmt.Errorf("fallback port must be 1-65535; got %d", port)
		}
		return Port(port), nil
	default:
		return Fallback{}, fmt.Errorf("unknown port fallback %q", mode)
	}
}

func (f Fallback) String() string {
	switch f.mode {
	case removePort:
		return "remove"
	case setPort:
		return strconv.Itoa(f.port)
	default:
		return "keep"
	}
}

// Resolver applies detection rules to one signal snapshot. It holds no
// mutable state and may be shared between goroutines.
type Resolver struct {
	signals    Signals
	httpsRules []Rule
	portKeys   []string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPSRules replaces the HTTPS detection table. A nil slice keeps the defaults.
func WithHTTPSRules(rules []Rule) Option {
	return func(r *Resolver) {
		if rules != nil {
			r.httpsRules = append([]Rule(nil), rules...)
		}
	}
}

// WithPortKeys replaces the forwarded port keys. A nil slice keeps the defaults.
func WithPortKeys(keys []string) Option {
	return func(r *Resolver) {
		if keys != nil {
			r.portKeys = append([]string(nil), keys...)
		}
	}
}

// New returns a Resolver over signals using the default tables unless
// overridden by opts.
func New(signals Signals, opts ...Option) *Resolver {
	r := &Resolver{
		signals:    signals,
		httpsRules: DefaultHTTPSRules,
		portKeys:   DefaultPortKeys,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DetectHTTPS returns the first HTTPS rule satisfied by the signals.
func (r *Resolver) DetectHTTPS() (Rule, bool) {
	for _, rule := range r.httpsRules {
		if v, ok := r.signals.Lookup(rule.Key); ok && strings.EqualFold(v, rule.Value) {
			return rule, true
		}
	}
	return Rule{}, false
}

// ResolveScheme returns a copy of u reflecting the client-facing scheme and,
// when detectPort is set, port.
//
// If an HTTPS rule matches, the scheme becomes "https" and the port is
// resolved with fallback. Otherwise the scheme is left alone and the port is
// resolved with KeepPort, so a forwarded port still applies but nothing is
// stripped or invented.
func (r *Resolver) ResolveScheme(u *url.URL, detectPort bool, fallback Fallback) *url.URL {
	out := cloneURL(u)

	if _, ok := r.DetectHTTPS(); ok {
		out.Scheme = "https"
		if detectPort {
			return r.ResolvePort(out, fallback)
		}
		return out
	}

	if detectPort {
		return r.ResolvePort(out, KeepPort)
	}
	return out
}

// ResolvePort returns a copy of u carrying the first valid forwarded port.
// Values that are not integers in 1-65535 are skipped. Without a valid
// candidate, fallback decides the port.
func (r *Resolver) ResolvePort(u *url.URL, fallback Fallback) *url.URL {
	out := cloneURL(u)

	if p, ok := r.ForwardedPort(); ok {
		out.Host = hostWithPort(out.Hostname(), p)
		return out
	}

	switch fallback.mode {
	case removePort:
		out.Host = hostWithPort(out.Hostname(), 0)
	case setPort:
		out.Host = hostWithPort(out.Hostname(), fallback.port)
	}
	return out
}

// ForwardedPort returns the first valid port found under the port keys.
func (r *Resolver) ForwardedPort() (int, bool) {
	for _, key := range r.portKeys {
		v, ok := r.signals.Lookup(key)
		if !ok {
			continue
		}
		p, err := strconv.Atoi(strings.TrimSpace(v))
		if err == nil && validPort(p) {
			return p, true
		}
	}
	return 0, false
}

// ResolveRequest returns a shallow clone of req whose URL is the resolved
// absolute URL of the request (see RequestURL).
func (r *Resolver) ResolveRequest(req *http.Request, detectPort bool, fallback Fallback) *http.Request {
	out := req.Clone(req.Context())
	out.URL = r.ResolveScheme(RequestURL(req), detectPort, fallback)
	return out
}

// RequestURL returns the absolute URL of a server-side request as seen by
// this server: http or https depending on TLS, host from the Host header.
func RequestURL(req *http.Request) *url.URL {
	u := cloneURL(req.URL)
	if u.Scheme == "" {
		u.Scheme = "http"
		if req.TLS != nil {
			u.Scheme = "https"
		}
	}
	if u.Host == "" {
		u.Host = req.Host
	}
	return u
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

// hostWithPort joins host and port, bracketing IPv6 literals. A zero port
// yields the bare host.
func hostWithPort(host string, port int) string {
	if port == 0 {
		if strings.Contains(host, ":") {
			return "[" + host + "]"
		}
		return host
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return &url.URL{}
	}
	out := *u
	if u.User != nil {
		user := *u.User
		out.User = &user
	}
	return &out
}
