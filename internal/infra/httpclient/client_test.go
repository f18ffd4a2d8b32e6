package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetry_SucceedsOnSecondAttempt(t *testing.T) {
	c := New(Options{MaxAttempts: 3, RetryDelay: time.Millisecond})

	calls := 0
	var retried []int
	err := c.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("connection refused")
		}
		return nil
	}, func(attempt int, err error) {
		retried = append(retried, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retried)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	c := New(Options{MaxAttempts: 3, RetryDelay: time.Millisecond})

	calls := 0
	cause := errors.New("connection refused")
	err := c.Retry(context.Background(), func(ctx context.Context) error {
		calls++
		return cause
	}, nil)

	var retryErr *RetryError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 3, retryErr.Attempts)
	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetry_SingleAttemptReturnsRawError(t *testing.T) {
	c := New(Options{})
	cause := errors.New("boom")

	err := c.Retry(context.Background(), func(ctx context.Context) error { return cause }, nil)
	assert.Same(t, cause, err)
}

func TestRetry_StopsWhenContextCancelled(t *testing.T) {
	c := New(Options{MaxAttempts: 3, RetryDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := c.Retry(ctx, func(ctx context.Context) error {
		calls++
		cancel()
		return errors.New("connection reset")
	}, nil)

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad key"))
	}))
	defer server.Close()

	c := New(Options{Timeout: time.Second})
	_, err := c.Get(context.Background(), server.URL)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "bad key", statusErr.Body)
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	defer server.Close()

	c := New(Options{Timeout: time.Second})
	resp, err := c.PostJSON(context.Background(), server.URL, []byte(`{"a":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"a":1}`, string(body))
}

func TestDo_DefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Goog-Api-Key"))
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c := New(Options{Timeout: time.Second, Header: http.Header{"X-Goog-Api-Key": {"secret"}}})
	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
}

func TestIdleTimeout_SteadyStreamOutlivesTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 8; i++ {
			w.Write([]byte("chunk\n"))
			flusher.Flush()
			select {
			case <-r.Context().Done():
				return
			case <-time.After(40 * time.Millisecond):
			}
		}
	}))
	defer server.Close()

	c := New(Options{IdleTimeout: 150 * time.Millisecond})
	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 8*len("chunk\n"), len(body))
}

func TestIdleTimeout_StalledBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("first\n"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := New(Options{IdleTimeout: 100 * time.Millisecond})
	resp, err := c.Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = io.ReadAll(resp.Body)
	assert.ErrorIs(t, err, ErrIdleTimeout)
}

func TestIdleTimeout_StalledHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := New(Options{IdleTimeout: 100 * time.Millisecond})
	_, err := c.Get(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrIdleTimeout)
}

func TestHTTPClient_CarriesTimeout(t *testing.T) {
	c := New(Options{Timeout: 7 * time.Second})
	assert.Equal(t, 7*time.Second, c.HTTPClient().Timeout)
}
