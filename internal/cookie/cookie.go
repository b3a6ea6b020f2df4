// Package cookie builds and encodes Set-Cookie header values.
//
// A Cookie is a plain value: the With methods return modified copies and
// never touch the receiver. Names and values are not checked against the
// RFC 6265 cookie grammar; callers passing separators or control characters
// get them back in the encoded header.
package cookie

import (
	"httpmsgutils/internal/message"
)

// HeaderName is the response header a cookie is encoded into.
const HeaderName = "Set-Cookie"

// ExpireNowSeconds is the relative expiration set by WithExpireNow: one week
// in the past.
const ExpireNowSeconds = -604800

// SameSite attribute values.
const (
	SameSiteNone   = "None"
	SameSiteLax    = "Lax"
	SameSiteStrict = "Strict"
)

// Cookie describes a cookie to be sent to the client. Expiration is relative
// to the moment of encoding, in seconds; zero makes it a session cookie.
// Empty string and false attributes are omitted from the encoded header.
type Cookie struct {
	Name       string
	Value      string
	Expiration int
	Path       string
	Domain     string
	Secure     bool
	HTTPOnly   bool
	SameSite   string
}

// Option configures a Cookie built by New.
type Option func(*Cookie)

func Value(v string) Option { return func(c *Cookie) { c.Value = v } }
func Expiration(s int) Option { return func(c *Cookie) { c.Expiration = s } }
func Path(p string) Option { return func(c *Cookie) { c.Path = p } }
func Domain(d string) Option { return func(c *Cookie) { c.Domain = d } }
func Secure(b bool) Option { return func(c *Cookie) { c.Secure = b } }
func HTTPOnly(b bool) Option { return func(c *Cookie) { c.HTTPOnly = b } }
func SameSite(s string) Option { return func(c *Cookie) { c.SameSite = s } }

// New returns a session cookie named name with SameSite=None, then applies opts.
// Pass SameSite("") to omit the attribute.
func New(name string, opts ...Option) Cookie {
	c := Cookie{Name: name, SameSite: SameSiteNone}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Cookie) WithName(name string) Cookie {
	c.Name = name
	return c
}

func (c Cookie) WithValue(value string) Cookie {
	c.Value = value
	return c
}

// WithExpiration returns a copy valid for the given number of seconds from
// the time it is encoded. Zero turns it into a session cookie.
func (c Cookie) WithExpiration(seconds int) Cookie {
	c.Expiration = seconds
	return c
}

// WithExpireNow returns a copy with a cleared value and an expiration in the
// past, which tells the client to drop the cookie.
func (c Cookie) WithExpireNow() Cookie {
	c.Expiration = ExpireNowSeconds
	c.Value = ""
	return c
}

func (c Cookie) WithPath(path string) Cookie {
	c.Path = path
	return c
}

func (c Cookie) WithDomain(domain string) Cookie {
	c.Domain = domain
	return c
}

func (c Cookie) WithSecure(secure bool) Cookie {
	c.Secure = secure
	return c
}

func (c Cookie) WithHTTPOnly(httpOnly bool) Cookie {
	c.HTTPOnly = httpOnly
	return c
}

// WithSameSite returns a copy with the given SameSite value; "" omits the attribute.
func (c Cookie) WithSameSite(sameSite string) Cookie {
	c.SameSite = sameSite
	return c
}

// HeaderValue encodes c using the current time.
func (c Cookie) HeaderValue() string {
	return DefaultEncoder.Encode(c)
}

// AddTo returns a copy of resp with c appended as a Set-Cookie header.
func (c Cookie) AddTo(resp message.Response) message.Response {
	return resp.WithAddedHeader(HeaderName, c.HeaderValue())
}

// SetOn returns a copy of resp whose only Set-Cookie header is c.
func (c Cookie) SetOn(resp message.Response) message.Response {
	return resp.WithHeader(HeaderName, c.HeaderValue())
}
