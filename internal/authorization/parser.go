// Package authorization splits an Authorization header into its
// <type> and <credentials> parts as described by RFC 7235.
//
// The parser is agnostic of the authorization scheme: Basic, Bearer and any
// custom scheme are returned the same way.
package authorization

import (
	"net/http"
	"strings"
	"unicode"
)

// DefaultHeader is the header read by ParseRequest when no name is given.
const DefaultHeader = "Authorization"

// Parts is a parsed `Authorization: <type> <credentials>` header.
// Both fields are non-empty when returned by Parse.
type Parts struct {
	Type        string
	Credentials string
}

// Parse splits headerValue into type and credentials. Surrounding whitespace
// is trimmed and the run of whitespace separating the two parts is dropped;
// whitespace inside the credentials is kept verbatim.
//
// ok is false for empty input or a value lacking credentials. That is a
// normal outcome meaning "no usable authorization", not an error.
func Parse(headerValue string) (p Parts, ok bool) {
	v := strings.TrimSpace(headerValue)
	if v == "" {
		return Parts{}, false
	}

	i := strings.IndexFunc(v, unicode.IsSpace)
	if i < 0 {
		return Parts{}, false
	}

	// v is trimmed, so the remainder is never empty.
	return Parts{
		Type:        v[:i],
		Credentials: strings.TrimLeftFunc(v[i:], unicode.IsSpace),
	}, true
}

// ParseRequest parses the named header of r. An empty headerName reads
// DefaultHeader. Multiple header lines are combined with ", " before parsing.
func ParseRequest(r *http.Request, headerName string) (Parts, bool) {
	if headerName == "" {
		headerName = DefaultHeader
	}
	return Parse(strings.Join(r.Header.Values(headerName), ", "))
}
