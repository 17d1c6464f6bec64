package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) total() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sum time.Duration
	for _, d := range c.sleeps {
		sum += d
	}
	return sum
}

func newTestClient(clock Clock, retries int) *Client {
	return New(nil, Options{
		MaxRetries:     retries,
		InitialBackoff: time.Second,
		MaxBackoff:     3 * time.Second,
		Clock:          clock,
	})
}

func TestRetryAfterBackoff(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	clock := newFakeClock()
	resp, err := newTestClient(clock, 3).Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, 2, resp.Attempts)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
	assert.GreaterOrEqual(t, clock.total(), 2*time.Second)
}

func TestRetryAfterHTTPDate(t *testing.T) {
	clock := newFakeClock()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", clock.Now().Add(5*time.Second).Format(http.TimeFormat))
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, err := newTestClient(clock, 3).Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{5 * time.Second}, clock.sleeps)
}

func TestRateLimitedWithoutHeaderUsesInitialBackoff(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	clock := newFakeClock()
	_, err := newTestClient(clock, 3).Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{time.Second, time.Second}, clock.sleeps)
}

func TestServerErrorsBackoffExponentially(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	clock := newFakeClock()
	_, err := newTestClient(clock, 3).Get(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))
	assert.False(t, errors.Is(err, ErrUnavailable))

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, http.StatusServiceUnavailable, fetchErr.Status)
	assert.Equal(t, 4, fetchErr.Attempts)
	assert.EqualValues(t, 4, atomic.LoadInt32(&hits))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, clock.sleeps)
}

func TestNotFoundIsPermanent(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	clock := newFakeClock()
	_, err := newTestClient(clock, 3).Get(context.Background(), Request{URL: srv.URL})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
	assert.Empty(t, clock.sleeps)
}

func TestConnectionErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	clock := newFakeClock()
	_, err := newTestClient(clock, 1).Get(context.Background(), Request{URL: url})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTransient))

	var fetchErr *Error
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 0, fetchErr.Status)
	assert.Equal(t, 2, fetchErr.Attempts)
}

func TestFixedHeadersAndBasicAuth(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := New(nil, Options{UserAgent: "casskit-test", Accept: "text/plain", Clock: newFakeClock()})
	_, err := client.Get(context.Background(), Request{URL: srv.URL, Username: "me@example.org", Password: "secret"})
	require.NoError(t, err)

	assert.Equal(t, "casskit-test", got.Get("User-Agent"))
	assert.Equal(t, "text/plain", got.Get("Accept"))
	assert.Equal(t, "Basic bWVAZXhhbXBsZS5vcmc6c2VjcmV0", got.Get("Authorization"))
	_, err = uuid.Parse(got.Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestDecodeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if r.URL.Path == "/bad" {
			_, _ = w.Write([]byte("<html>"))
			return
		}
		_, _ = w.Write([]byte(`{"url":"https://example.org/file.csv"}`))
	}))
	defer srv.Close()

	client := newTestClient(newFakeClock(), 0)
	var payload struct {
		URL string `json:"url"`
	}
	require.NoError(t, client.GetJSON(context.Background(), Request{URL: srv.URL + "/ok"}, &payload))
	assert.Equal(t, "https://example.org/file.csv", payload.URL)

	err := client.GetJSON(context.Background(), Request{URL: srv.URL + "/bad"}, &payload)
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestRateLimiterSpacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	clock := newFakeClock()
	client := newTestClient(clock, 0)
	limiter := NewRateLimiter(10)
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), Request{URL: srv.URL, Limiter: limiter})
		require.NoError(t, err)
	}
	assert.InDelta(t, float64(200*time.Millisecond), float64(clock.total()), float64(time.Millisecond))
}

func TestCancelledContextStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestClient(newFakeClock(), 3).Get(ctx, Request{URL: srv.URL})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryAfterParsing(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := map[string]time.Duration{
		"":                              -1,
		"3":                             3 * time.Second,
		"3.5":                           3500 * time.Millisecond,
		"0.25":                          250 * time.Millisecond,
		"-1":                            -1,
		"NaN":                           -1,
		"soon":                          -1,
		"99999999999999999999":          maxDuration,
		"Fri, 01 Mar 2024 12:00:10 GMT": 10 * time.Second,
		"Fri, 01 Mar 2024 11:00:00 GMT": 0,
	}
	for value, want := range cases {
		h := http.Header{}
		if value != "" {
			h.Set("Retry-After", value)
		}
		assert.Equal(t, want, retryAfter(h, now), "Retry-After %q", value)
	}
}

func TestFractionalRetryAfterIsHonoured(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "3.5")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	clock := newFakeClock()
	_, err := New(nil, Options{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     3 * time.Second,
		Clock:          clock,
	}).Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{3500 * time.Millisecond}, clock.sleeps)
}

func TestRetryAfterIsCapped(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "99999999999999")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	clock := newFakeClock()
	_, err := New(nil, Options{
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     3 * time.Second,
		MaxRetryAfter:  30 * time.Second,
		Clock:          clock,
	}).Get(context.Background(), Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second}, clock.sleeps)

	assert.Equal(t, DefaultMaxRetryAfter, New(nil, Options{}).opts.MaxRetryAfter)
}
