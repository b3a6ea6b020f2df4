package cookie

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEncoder encodes with the wall clock.
var DefaultEncoder = Encoder{}

// Encoder renders a Cookie as a Set-Cookie header value.
type Encoder struct {
	// Now returns the reference time for relative expirations. nil means time.Now.
	Now func() time.Time
}

func (e Encoder) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Encode returns the Set-Cookie value for c. Attributes are written in a
// fixed order: expires, path, domain, secure, httponly, samesite.
func (e Encoder) Encode(c Cookie) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(formEncode(c.Value))

	if c.Expiration != 0 {
		b.WriteString("; expires=")
		b.WriteString(e.expires(c).Format(http.TimeFormat))
	}
	if c.Path != "" {
		b.WriteString("; path=")
		b.WriteString(c.Path)
	}
	if c.Domain != "" {
		b.WriteString("; domain=")
		b.WriteString(c.Domain)
	}
	if c.Secure {
		b.WriteString("; secure")
	}
	if c.HTTPOnly {
		b.WriteString("; httponly")
	}
	if c.SameSite != "" {
		b.WriteString("; samesite=")
		b.WriteString(c.SameSite)
	}
	return b.String()
}

func (e Encoder) expires(c Cookie) time.Time {
	return e.now().Add(time.Duration(c.Expiration) * time.Second).UTC()
}

// formEncode applies application/x-www-form-urlencoded escaping: space becomes
// '+', and only ASCII letters, digits, '-', '_' and '.' pass through.
func formEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "~", "%7E")
}

// Options mirrors the attributes of a Cookie with an absolute expiration, in
// the shape expected by cookie-setting callbacks.
type Options struct {
	Expires  time.Time
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// Setter is a native cookie-setting mechanism.
type Setter func(name, value string, opts Options) error

// Apply hands c to set, converting the relative expiration into an absolute
// time. A session cookie is passed with a zero Expires.
func (c Cookie) Apply(set Setter) error {
	return DefaultEncoder.Apply(c, set)
}

// Apply hands c to set using e's clock.
func (e Encoder) Apply(c Cookie, set Setter) error {
	opts := Options{
		Path:     c.Path,
		Domain:   c.Domain,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: c.SameSite,
	}
	if c.Expiration != 0 {
		opts.Expires = e.expires(c)
	}
	return set(c.Name, c.Value, opts)
}

// ResponseWriterSetter returns a Setter writing through http.SetCookie.
func ResponseWriterSetter(w http.ResponseWriter) Setter {
	return func(name, value string, opts Options) error {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Expires:  opts.Expires,
			Path:     opts.Path,
			Domain:   opts.Domain,
			Secure:   opts.Secure,
			HttpOnly: opts.HTTPOnly,
			SameSite: sameSiteMode(opts.SameSite),
		})
		return nil
	}
}

func sameSiteMode(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteDefaultMode
	}
}
