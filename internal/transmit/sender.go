// Package transmit writes a message.Response onto a live output: status,
// headers, then the body streamed in fixed-size chunks.
//
// Nothing is retried. Once the status or a header has gone out it cannot be
// taken back, so any output failure is returned to the caller as is.
// Send must be called at most once per response and output.
package transmit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"httpmsgutils/internal/message"
)

// ChunkSize is the size of the body chunks handed to Output.Write.
const ChunkSize = 8 * 1024

var (
	// ErrStatus wraps failures while emitting the status.
	ErrStatus = errors.New("transmit status")
	// ErrHeader wraps failures while emitting a header line.
	ErrHeader = errors.New("transmit header")
	// ErrBody wraps failures while rewinding, reading or writing the body.
	ErrBody = errors.New("transmit body")
)

// Output is the channel a response is written to.
type Output interface {
	// SetStatus sets the numeric status; the reason phrase is left to the output.
	SetStatus(code int) error
	// StatusLine emits a literal status line such as "HTTP/1.1 200 OK".
	StatusLine(line string, code int) error
	// Header emits one "Name: value" line. replace=false keeps earlier lines
	// of the same name.
	Header(line string, replace bool) error
	// Write emits a chunk of body bytes.
	Write(p []byte) (int, error)
}

// Flusher is implemented by outputs that buffer and need to be told the
// response is complete.
type Flusher interface {
	Flush() error
}

// Sender transmits responses. The zero value is not usable; use New.
type Sender struct {
	fullStatusLine bool
	rewindBody     bool
	logger         *slog.Logger
}

// Option configures a Sender.
type Option func(*Sender)

// WithFullStatusLine makes Send emit a literal "HTTP/<version> <code> <reason>"
// line instead of just the status code. This allows non-standard reason
// phrases and protocol versions the output would not pick itself, so it can
// produce non-conformant responses when misused.
func WithFullStatusLine(enabled bool) Option {
	return func(s *Sender) { s.fullStatusLine = enabled }
}

// WithRewindBody controls whether seekable bodies are rewound before sending.
// Enabled by default.
func WithRewindBody(enabled bool) Option {
	return func(s *Sender) { s.rewindBody = enabled }
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sender) {
		if logger != nil {
			s.logger = logger.With("component", "transmit")
		}
	}
}

// New returns a Sender in minimal status mode with body rewinding enabled.
func New(opts ...Option) *Sender {
	s := &Sender{
		rewindBody: true,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send writes resp to out. The first value of each header is written with
// replace semantics and every further value is appended, so repeated
// headers such as Set-Cookie reach the client as separate lines.
func (s *Sender) Send(resp message.Response, out Output) error {
	if err := s.sendStatus(resp, out); err != nil {
		return err
	}

	headers := resp.Headers()
	sent := make(map[string]bool, headers.Len())
	for _, name := range headers.Names() {
		lower := strings.ToLower(name)
		for _, v := range headers.Values(name) {
			if err := out.Header(name+": "+v, !sent[lower]); err != nil {
				return fmt.Errorf("%w %s: %w", ErrHeader, name, err)
			}
			sent[lower] = true
		}
	}

	n, err := s.sendBody(resp.Body(), out)
	if err != nil {
		return err
	}

	if f, ok := out.(Flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("%w: flush: %w", ErrBody, err)
		}
	}

	s.logger.Debug("response sent",
		"status", resp.StatusCode(),
		"headers", headers.Len(),
		"bytes", n,
	)
	return nil
}

func (s *Sender) sendStatus(resp message.Response, out Output) error {
	var err error
	if s.fullStatusLine {
		line := fmt.Sprintf("HTTP/%s %d %s",
			resp.ProtocolVersion(),
			resp.StatusCode(),
			resp.ReasonPhrase(),
		)
		err = out.StatusLine(line, resp.StatusCode())
	} else {
		err = out.SetStatus(resp.StatusCode())
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStatus, err)
	}
	return nil
}

func (s *Sender) sendBody(body io.Reader, out Output) (int64, error) {
	if seeker, ok := body.(io.Seeker); ok && s.rewindBody {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return 0, fmt.Errorf("%w: rewind: %w", ErrBody, err)
		}
	}

	var total int64
	buf := make([]byte, ChunkSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return total, fmt.Errorf("%w: write: %w", ErrBody, err)
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, fmt.Errorf("%w: read: %w", ErrBody, rerr)
		}
	}
}
