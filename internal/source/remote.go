package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Storbiic/ETL-Dashboard/internal/config"
)

// Opener opens a sheet location: a local path or an http(s) URL. Remote
// reads retry transport errors, 429 and 5xx with exponential backoff.
type Opener struct {
	Client *http.Client
	// Retries is the number of attempts after the first one.
	Retries    int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// OpenerFrom reads timeout_seconds and retries from loader options.
func OpenerFrom(o config.Options) *Opener {
	timeout := time.Duration(o.Int("timeout_seconds", 30)) * time.Second
	return &Opener{
		Client:     &http.Client{Timeout: timeout},
		Retries:    o.Int("retries", 3),
		Backoff:    200 * time.Millisecond,
		MaxBackoff: 5 * time.Second,
	}
}

// IsRemote reports whether loc is an http(s) URL.
func IsRemote(loc string) bool {
	l := strings.ToLower(loc)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Open returns a reader for loc. The caller closes it.
func (o *Opener) Open(ctx context.Context, loc string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !IsRemote(loc) {
		f, err := os.Open(loc)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", loc, err)
		}
		return f, nil
	}

	client := o.Client
	if client == nil {
		client = http.DefaultClient
	}
	var lastErr error
	for attempt := 0; attempt <= o.Retries; attempt++ {
		if attempt > 0 {
			if err := wait(ctx, backoff(o.Backoff, attempt-1, o.MaxBackoff)); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", loc, err)
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		}
		_ = resp.Body.Close()
		lastErr = fmt.Errorf("status %s", resp.Status)
		if !retryable(resp.StatusCode) {
			break
		}
	}
	return nil, fmt.Errorf("fetch %s: %w", loc, lastErr)
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoff is initial * 2^retry, capped at max.
func backoff(initial time.Duration, retry int, max time.Duration) time.Duration {
	d := initial << retry
	if max > 0 && (d > max || d <= 0) {
		return max
	}
	return d
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
