package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/labstack/echo/v4"

	"httpmsgutils/internal/message"
	"httpmsgutils/internal/metrics"
	"httpmsgutils/internal/transmit"
)

// Responder writes message.Response values to echo through the transmitter.
type Responder struct {
	sender  *transmit.Sender
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewResponder creates a Responder.
func NewResponder(s *transmit.Sender, m *metrics.Metrics, logger *slog.Logger) *Responder {
	return &Responder{
		sender:  s,
		metrics: m,
		logger:  logger.With("component", "responder"),
	}
}

// Send transmits resp. A failure after the status went out cannot be turned
// into an error response any more, so it is only logged.
func (r *Responder) Send(c echo.Context, resp message.Response) error {
	res := c.Response()
	before := res.Size

	err := r.sender.Send(resp, transmit.NewResponseWriterOutput(res))
	r.metrics.ResponseBytes.Add(float64(res.Size - before))
	if err == nil {
		return nil
	}

	if res.Committed {
		r.logger.Error("transmitting response",
			"err", err,
			"path", c.Request().URL.Path,
		)
		return nil
	}
	return fmt.Errorf("send response: %w", err)
}

// jsonResponse encodes v as the body of a new response. The body is a
// bytes.Reader so the transmitter can rewind it.
func jsonResponse(status int, v any) (message.Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return message.Response{}, fmt.Errorf("encode response: %w", err)
	}
	return message.NewResponse(status, bytes.NewReader(b)).
		WithHeader(echo.HeaderContentType, echo.MIMEApplicationJSON).
		WithHeader(echo.HeaderContentLength, strconv.Itoa(len(b))), nil
}
