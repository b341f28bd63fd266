// Package recognition turns clips into transcripts with a bounded retry loop
// over a speech backend.
package recognition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/forPelevin/autosub/internal/logging"
	"github.com/forPelevin/autosub/internal/ports"
)

const DefaultRetries = 3

// Error reports that the backend rejected a clip on every attempt.
type Error struct {
	Code     int
	Message  string
	Attempts int
}

func (e *Error) Error() string {
	return fmt.Sprintf("speech recognition failed after %d attempt(s): %s, err_code: %d", e.Attempts, e.Message, e.Code)
}

// Result is the outcome for one clip. Err is nil on success; Text may still
// be empty when the backend heard nothing.
type Result struct {
	Text string
	Err  error
}

type Client struct {
	backend ports.SpeechBackend
	rate    int
	lang    string
	retries int
	logger  *slog.Logger
}

type Options struct {
	Rate    int
	Lang    string
	Retries int
	Logger  *slog.Logger
}

func New(backend ports.SpeechBackend, opts Options) *Client {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Client{
		backend: backend,
		rate:    opts.Rate,
		lang:    opts.Lang,
		retries: opts.Retries,
		logger:  logging.NewComponentLogger(opts.Logger, "recognition"),
	}
}

func (c *Client) attempts() int {
	if c.retries < 1 {
		return 1
	}
	return c.retries
}

// Recognize sends clip to the backend, retrying while the API reports an
// error code. Transport errors and cancellation are returned immediately.
func (c *Client) Recognize(ctx context.Context, clip []byte) Result {
	var last Error
	attempts := c.attempts()
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return Result{Err: err}
		}
		rec, err := c.backend.Recognize(ctx, clip, c.rate, c.lang)
		if err != nil {
			return Result{Err: err}
		}
		if rec.Code == 0 {
			if len(rec.Candidates) == 0 {
				return Result{}
			}
			return Result{Text: strings.TrimSpace(rec.Candidates[0])}
		}
		last = Error{Code: rec.Code, Message: rec.Message, Attempts: i + 1}
		c.logger.Debug("recognition attempt rejected",
			slog.Int("attempt", i+1),
			slog.Int("err_no", rec.Code),
			slog.String("err_msg", rec.Message))
	}
	return Result{Err: &last}
}
