package proxyscheme

import (
	"net/http"
	"slices"
	"strings"
)

// Signals is an ordered, read-only snapshot of the proxy-related values seen
// for one request, keyed the way a CGI environment is (HTTP_X_FORWARDED_PROTO,
// HTTPS, ...). Keys are case-sensitive.
type Signals struct {
	keys   []string
	values map[string]string
}

// NewSignals builds a snapshot from key/value pairs. A trailing odd key is ignored.
func NewSignals(pairs ...string) Signals {
	s := Signals{values: make(map[string]string, len(pairs)/2)}
	for i := 0; i+1 < len(pairs); i += 2 {
		s.set(pairs[i], pairs[i+1])
	}
	return s
}

func (s *Signals) set(key, value string) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// With returns a copy of s where key holds value.
func (s Signals) With(key, value string) Signals {
	out := Signals{
		keys:   slices.Clone(s.keys),
		values: make(map[string]string, len(s.values)+1),
	}
	for k, v := range s.values {
		out.values[k] = v
	}
	out.set(key, value)
	return out
}

// Lookup returns the value stored under key.
func (s Signals) Lookup(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (s Signals) Keys() []string {
	return slices.Clone(s.keys)
}

// Len returns the number of keys.
func (s Signals) Len() int {
	return len(s.keys)
}

// SignalsFromRequest derives the CGI-style signal table of r: every header
// becomes HTTP_<NAME> with dashes turned into underscores, and HTTPS=on is
// added when r arrived over TLS. The Proxy header is skipped (httpoxy).
func SignalsFromRequest(r *http.Request) Signals {
	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	slices.Sort(names)

	pairs := make([]string, 0, 2*len(names)+2)
	for _, name := range names {
		key := cgiKey(name)
		if key == "PROXY" {
			continue
		}
		sep := ", "
		if key == "COOKIE" {
			sep = "; "
		}
		pairs = append(pairs, "HTTP_"+key, strings.Join(r.Header[name], sep))
	}
	if r.TLS != nil {
		pairs = append(pairs, "HTTPS", "on")
	}
	return NewSignals(pairs...)
}

// SignalsFromEnviron parses KEY=VALUE entries such as os.Environ(). Entries
// without '=' are ignored and later duplicates win.
func SignalsFromEnviron(environ []string) Signals {
	pairs := make([]string, 0, 2*len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			pairs = append(pairs, k, v)
		}
	}
	return NewSignals(pairs...)
}

func cgiKey(header string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - ('a' - 'A')
		case r == '-':
			return '_'
		}
		return r
	}, header)
}
