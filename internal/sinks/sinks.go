// Package sinks holds what the report pushers have in common.
package sinks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketdigest/internal/components/telemetry"

	"github.com/go-resty/resty/v2"
)

// Sink is an external destination the report text is pushed to.
type Sink interface {
	Name() string
	Push(ctx context.Context, text string) error
}

var (
	// ErrMissingCredentials is returned before any network call when a sink is not configured.
	ErrMissingCredentials = errors.New("missing credentials")
	ErrRejected           = errors.New("push rejected")
)

const DefaultTimeout = 20 * time.Second

// NewHttpClient creates the instrumented client every sink pushes through, `secrets`
// are kept out of its telemetry.
func NewHttpClient(baseUrl string, timeout time.Duration, tel telemetry.API, secrets ...string) *resty.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(baseUrl).
		SetTimeout(timeout)
	telemetry.InstrumentResty(client, tel, secrets...)
	return client
}

// CheckResponse turns a transport error or any non-2xx status into an error.
func CheckResponse(res *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !res.IsSuccess() {
		return fmt.Errorf("%w: %s: %s", ErrRejected, res.Status(), Truncate(res.String(), 200))
	}
	return nil
}

// Truncate keeps the first `limit` characters of text.
func Truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// Chunk splits text into contiguous pieces of at most `size` characters. Joining the
// pieces gives back the original text.
func Chunk(text string, size int) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]string, 0, (len(runes)+size-1)/size)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
