package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// ErrIdleTimeout is returned when a response stalls for longer than
// Options.IdleTimeout.
var ErrIdleTimeout = errors.New("no data received within idle timeout")

type Options struct {
	// Timeout caps the whole exchange, body included.
	Timeout time.Duration
	// IdleTimeout caps connecting, waiting for headers and every gap between
	// body reads, so a slow but steady stream is never cut off.
	IdleTimeout time.Duration
	// MaxAttempts counts the first try; values below 1 mean a single attempt.
	MaxAttempts int
	RetryDelay  time.Duration
	// Header is sent with every request. Credentials go here, never in URLs.
	Header http.Header
}

type Client struct {
	client      *http.Client
	idleTimeout time.Duration
	maxAttempts int
	retryDelay  time.Duration
	header      http.Header
}

func New(opts Options) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Client{
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		idleTimeout: opts.IdleTimeout,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		header:      opts.Header.Clone(),
	}
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Body)
}

// RetryError reports that every attempt failed.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error {
	return e.Last
}

// HTTPClient exposes the underlying client for SDKs that accept one.
// Default headers and the idle timeout are not applied through it.
func (c *Client) HTTPClient() *http.Client {
	return c.client
}

// Retry calls fn until it succeeds or the attempt budget is spent, waiting
// a fixed delay between attempts. onRetry, if set, runs before each wait.
// When more than one attempt was allowed the final error is a *RetryError.
func (c *Client) Retry(ctx context.Context, fn func(ctx context.Context) error, onRetry func(attempt int, err error)) error {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if onRetry != nil {
				onRetry(attempt-1, lastErr)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return lastErr
		}
	}

	if c.maxAttempts == 1 {
		return lastErr
	}
	return &RetryError{Attempts: c.maxAttempts, Last: lastErr}
}

// Do sends a single request and converts non-2xx responses into *StatusError.
// The caller closes the body of a successful response.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	for k, vs := range c.header {
		if req.Header.Get(k) == "" {
			req.Header[k] = vs
		}
	}

	var idle *idleTimer
	if c.idleTimeout > 0 {
		ctx, cancel := context.WithCancel(req.Context())
		idle = newIdleTimer(c.idleTimeout, cancel)
		req = req.WithContext(ctx)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if idle != nil {
			idle.stop()
			if idle.expired() {
				return nil, idle.err()
			}
		}
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		if idle != nil {
			idle.stop()
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if idle != nil {
		idle.touch()
		resp.Body = &idleBody{ReadCloser: resp.Body, timer: idle}
	}
	return resp, nil
}

// idleTimer cancels the request once no progress was made for d.
type idleTimer struct {
	d      time.Duration
	t      *time.Timer
	cancel context.CancelFunc
	fired  atomic.Bool
}

func newIdleTimer(d time.Duration, cancel context.CancelFunc) *idleTimer {
	it := &idleTimer{d: d, cancel: cancel}
	it.t = time.AfterFunc(d, func() {
		it.fired.Store(true)
		cancel()
	})
	return it
}

func (it *idleTimer) touch() {
	if !it.fired.Load() {
		it.t.Reset(it.d)
	}
}

func (it *idleTimer) stop() {
	it.t.Stop()
	it.cancel()
}

func (it *idleTimer) expired() bool {
	return it.fired.Load()
}

func (it *idleTimer) err() error {
	return fmt.Errorf("%w (%s)", ErrIdleTimeout, it.d)
}

type idleBody struct {
	io.ReadCloser
	timer *idleTimer
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.timer.touch()
	}
	if err != nil && err != io.EOF && b.timer.expired() {
		err = b.timer.err()
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.stop()
	return b.ReadCloser.Close()
}

func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.Do(req)
}

func (c *Client) Post(ctx context.Context, url string, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(req)
}

func (c *Client) PostJSON(ctx context.Context, url string, body []byte) (*http.Response, error) {
	return c.Post(ctx, url, "application/json", body)
}
