// Package httpds downloads an extract over HTTP(S). Transport errors and
// 429/5xx answers are retried with exponential backoff; any other non-2xx
// status fails immediately.
package httpds

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrStatus is wrapped by Open for a final non-2xx response.
var ErrStatus = errors.New("httpds: unexpected status")

// Config tunes the client. Zero values get defaults: Timeout 2m, MaxRetries
// 3, InitialBackoff 200ms, MaxBackoff 5s. A negative MaxRetries disables
// retries.
//
// Timeout bounds each attempt until the response headers arrive. Reading the
// body is bounded only by the caller's context, since a large extract may
// take longer to stream than to answer.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Header is sent with every request.
	Header http.Header

	// Transport replaces http.DefaultTransport, mostly for tests.
	Transport http.RoundTripper
}

// Source fetches one URL. It is safe for concurrent use.
type Source struct {
	url     string
	client  *http.Client
	timeout time.Duration
	header  http.Header
	retries int
	initial time.Duration
	max     time.Duration
	wait    func(ctx context.Context, d time.Duration) error
}

// NewSource returns a Source for url.
func NewSource(url string, cfg Config) *Source {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Source{
		url:     url,
		client:  &http.Client{Transport: cfg.Transport},
		timeout: cfg.Timeout,
		header:  cfg.Header.Clone(),
		retries: cfg.MaxRetries,
		initial: cfg.InitialBackoff,
		max:     cfg.MaxBackoff,
		wait:    waitContext,
	}
}

// URL returns the configured URL.
func (s *Source) URL() string { return s.url }

// Open performs the GET and returns the response body.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.url == "" {
		return nil, fmt.Errorf("httpds: url must not be empty")
	}

	var lastErr error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			if err := s.wait(ctx, backoff(s.initial, attempt-1, s.max)); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, cancel, err := s.do(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return &body{ReadCloser: resp.Body, cancel: cancel}, nil
		case retryable(resp.StatusCode):
			_ = resp.Body.Close()
			cancel()
			lastErr = fmt.Errorf("%w %d from %s", ErrStatus, resp.StatusCode, s.url)
		default:
			_ = resp.Body.Close()
			cancel()
			return nil, fmt.Errorf("%w %d from %s", ErrStatus, resp.StatusCode, s.url)
		}
	}
	return nil, lastErr
}

// do sends one GET on a context of its own. A timer cancels that context if
// the headers take longer than the timeout; once they arrive the timer is
// stopped and the returned cancel func belongs to the caller.
func (s *Source) do(ctx context.Context) (*http.Response, context.CancelFunc, error) {
	reqCtx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, s.url, nil)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("httpds: build request: %w", err)
	}
	for k, vs := range s.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	timer := time.AfterFunc(s.timeout, cancel)
	resp, err := s.client.Do(req)
	if !timer.Stop() {
		if err == nil {
			_ = resp.Body.Close()
		}
		cancel()
		return nil, nil, fmt.Errorf("httpds: GET %s: no response headers within %s", s.url, s.timeout)
	}
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("httpds: GET %s: %w", s.url, err)
	}
	return resp, cancel, nil
}

// body releases the request context together with the response body.
type body struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *body) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoff doubles initial per retry, capped at max.
func backoff(initial time.Duration, retry int, max time.Duration) time.Duration {
	d := initial
	for i := 0; i < retry && d < max; i++ {
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

func waitContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
