package message

import (
	"io"
	"net/http"
	"slices"
	"strings"
)

// DefaultProtocolVersion is the HTTP version used by NewResponse.
const DefaultProtocolVersion = "1.1"

// Response is an immutable HTTP response: status, reason phrase, protocol
// version, ordered headers and a body stream. Every With method returns a
// new Response and leaves the receiver untouched. The body reader itself is
// shared between copies.
type Response struct {
	statusCode   int
	reasonPhrase string
	protocol     string
	header       Header
	body         io.Reader
}

// NewResponse returns a Response with the standard reason phrase for status.
// A nil body is replaced with an empty reader.
func NewResponse(status int, body io.Reader) Response {
	if body == nil {
		body = http.NoBody
	}
	return Response{
		statusCode:   status,
		reasonPhrase: http.StatusText(status),
		protocol:     DefaultProtocolVersion,
		body:         body,
	}
}

// FromUpstream converts a net/http response. Header names are taken in
// sorted order since http.Header carries no ordering.
func FromUpstream(resp *http.Response) Response {
	r := NewResponse(resp.StatusCode, resp.Body)
	if resp.ProtoMajor > 0 {
		r.protocol = strings.TrimPrefix(resp.Proto, "HTTP/")
	}
	if _, reason, ok := strings.Cut(resp.Status, " "); ok && reason != "" {
		r.reasonPhrase = reason
	}

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		for _, v := range resp.Header[name] {
			r.header.Add(name, v)
		}
	}
	return r
}

func (r Response) StatusCode() int         { return r.statusCode }
func (r Response) ReasonPhrase() string    { return r.reasonPhrase }
func (r Response) ProtocolVersion() string { return r.protocol }

// Body returns the body stream.
func (r Response) Body() io.Reader {
	if r.body == nil {
		return http.NoBody
	}
	return r.body
}

// Headers returns a copy of the response headers.
func (r Response) Headers() Header {
	return r.header.Clone()
}

// Header returns the values stored under name joined by ", ".
func (r Response) Header(name string) string {
	return r.header.Line(name)
}

// WithStatus returns a copy with the given status. An empty reason falls back
// to the standard text for code.
func (r Response) WithStatus(code int, reason string) Response {
	if reason == "" {
		reason = http.StatusText(code)
	}
	r.statusCode = code
	r.reasonPhrase = reason
	return r
}

// WithProtocolVersion returns a copy with the given version, e.g. "1.0".
func (r Response) WithProtocolVersion(version string) Response {
	r.protocol = version
	return r
}

// WithHeader returns a copy where name holds only value.
func (r Response) WithHeader(name, value string) Response {
	r.header = r.header.Clone()
	r.header.Set(name, value)
	return r
}

// WithAddedHeader returns a copy with value appended to name.
func (r Response) WithAddedHeader(name, value string) Response {
	r.header = r.header.Clone()
	r.header.Add(name, value)
	return r
}

// WithoutHeader returns a copy with name removed.
func (r Response) WithoutHeader(name string) Response {
	r.header = r.header.Clone()
	r.header.Del(name)
	return r
}

// WithBody returns a copy using body as the body stream.
func (r Response) WithBody(body io.Reader) Response {
	r.body = body
	return r
}
