package transmit

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrHeadersSent is returned when a status or header is emitted after the
// body has started.
var ErrHeadersSent = errors.New("headers already sent")

func splitHeaderLine(line string) (name, value string, err error) {
	name, value, ok := strings.Cut(line, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("malformed header line %q", line)
	}
	return name, strings.TrimSpace(value), nil
}

// ResponseWriterOutput adapts an http.ResponseWriter. Headers are staged in
// w.Header() and the status is committed on the first body write or on Flush.
// net/http owns the status line, so StatusLine only keeps the code.
type ResponseWriterOutput struct {
	w         http.ResponseWriter
	status    int
	committed bool
}

// NewResponseWriterOutput returns an Output writing to w.
func NewResponseWriterOutput(w http.ResponseWriter) *ResponseWriterOutput {
	return &ResponseWriterOutput{w: w, status: http.StatusOK}
}

func (o *ResponseWriterOutput) SetStatus(code int) error {
	if o.committed {
		return ErrHeadersSent
	}
	o.status = code
	return nil
}

func (o *ResponseWriterOutput) StatusLine(_ string, code int) error {
	return o.SetStatus(code)
}

func (o *ResponseWriterOutput) Header(line string, replace bool) error {
	if o.committed {
		return ErrHeadersSent
	}
	name, value, err := splitHeaderLine(line)
	if err != nil {
		return err
	}
	if replace {
		o.w.Header().Set(name, value)
	} else {
		o.w.Header().Add(name, value)
	}
	return nil
}

func (o *ResponseWriterOutput) Write(p []byte) (int, error) {
	o.commit()
	return o.w.Write(p)
}

// Flush commits the status when no body was written and flushes w when it
// supports it.
func (o *ResponseWriterOutput) Flush() error {
	o.commit()
	if err := http.NewResponseController(o.w).Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}
	return nil
}

func (o *ResponseWriterOutput) commit() {
	if !o.committed {
		o.committed = true
		o.w.WriteHeader(o.status)
	}
}

// WireOutput writes a raw HTTP/1.x response to an io.Writer such as a
// hijacked connection. The header block is held back until the first body
// byte or Flush so replace semantics can still drop earlier lines. Framing
// headers (Content-Length, Connection) are the caller's concern.
type WireOutput struct {
	bw         *bufio.Writer
	statusLine string
	headers    []string
	committed  bool
}

// NewWireOutput returns an Output writing raw HTTP to w.
func NewWireOutput(w io.Writer) *WireOutput {
	return &WireOutput{
		bw:         bufio.NewWriterSize(w, ChunkSize),
		statusLine: statusLine(http.StatusOK),
	}
}

func statusLine(code int) string {
	return fmt.Sprintf("HTTP/1.1 %d %s", code, http.StatusText(code))
}

func (o *WireOutput) SetStatus(code int) error {
	if o.committed {
		return ErrHeadersSent
	}
	o.statusLine = statusLine(code)
	return nil
}

func (o *WireOutput) StatusLine(line string, _ int) error {
	if o.committed {
		return ErrHeadersSent
	}
	o.statusLine = line
	return nil
}

func (o *WireOutput) Header(line string, replace bool) error {
	if o.committed {
		return ErrHeadersSent
	}
	name, _, err := splitHeaderLine(line)
	if err != nil {
		return err
	}
	if replace {
		kept := o.headers[:0]
		for _, h := range o.headers {
			if n, _, _ := splitHeaderLine(h); !strings.EqualFold(n, name) {
				kept = append(kept, h)
			}
		}
		o.headers = kept
	}
	o.headers = append(o.headers, line)
	return nil
}

func (o *WireOutput) Write(p []byte) (int, error) {
	if err := o.commit(); err != nil {
		return 0, err
	}
	return o.bw.Write(p)
}

// Flush writes any pending head and buffered body bytes.
func (o *WireOutput) Flush() error {
	if err := o.commit(); err != nil {
		return err
	}
	return o.bw.Flush()
}

func (o *WireOutput) commit() error {
	if o.committed {
		return nil
	}
	o.committed = true

	var head bytes.Buffer
	head.WriteString(o.statusLine)
	head.WriteString("\r\n")
	for _, h := range o.headers {
		head.WriteString(h)
		head.WriteString("\r\n")
	}
	head.WriteString("\r\n")
	_, err := o.bw.Write(head.Bytes())
	return err
}

// HeaderCall is one recorded Output.Header call.
type HeaderCall struct {
	Line    string
	Replace bool
}

// Recorder is an Output that keeps every call, for tests and diagnostics.
type Recorder struct {
	Status     int
	StatusText string
	Headers    []HeaderCall
	Body       bytes.Buffer
	Writes     int
}

func (r *Recorder) SetStatus(code int) error {
	r.Status = code
	return nil
}

func (r *Recorder) StatusLine(line string, code int) error {
	r.Status = code
	r.StatusText = line
	return nil
}

func (r *Recorder) Header(line string, replace bool) error {
	r.Headers = append(r.Headers, HeaderCall{Line: line, Replace: replace})
	return nil
}

func (r *Recorder) Write(p []byte) (int, error) {
	r.Writes++
	return r.Body.Write(p)
}
