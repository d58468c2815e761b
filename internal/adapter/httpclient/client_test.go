package httpclient

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"go.uber.org/zap"
)

// newTestClient returns a client whose sleeps are recorded instead of waited.
func newTestClient(t *testing.T, attempts int) (*Client, *[]time.Duration) {
	t.Helper()
	opts := DefaultOptions()
	opts.UserAgent = "test-agent/1.0"
	opts.Attempts = attempts
	opts.Timeout = 5 * time.Second
	opts.BaseSleep = 100 * time.Millisecond

	c, err := New(opts, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var sleeps []time.Duration
	c.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	return c, &sleeps
}

func TestPersistent503ReturnsLastResponse(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, sleeps := newTestClient(t, 3)
	resp, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", resp.StatusCode)
	}
	if calls.Load() != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", calls.Load())
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("expected sleeps %v, got %v", want, *sleeps)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleep %d: expected %v, got %v", i, want[i], (*sleeps)[i])
		}
	}
}

func TestRetryOn429ThenSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	c, sleeps := newTestClient(t, 3)
	resp, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
	if len(*sleeps) != 1 {
		t.Errorf("expected one sleep, got %v", *sleeps)
	}
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c, sleeps := newTestClient(t, 3)
	resp, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", calls.Load())
	}
	if len(*sleeps) != 0 {
		t.Errorf("expected no sleeps, got %v", *sleeps)
	}
}

func TestTransportErrorExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c, sleeps := newTestClient(t, 3)
	_, err := c.Get(context.Background(), url)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if len(*sleeps) != 2 {
		t.Errorf("expected 2 sleeps between 3 attempts, got %v", *sleeps)
	}
}

func TestTransportErrorWinsOverLastStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer does not support hijacking")
				return
			}
			conn, _, _ := hj.Hijack()
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c, _ := newTestClient(t, 2)
	_, err := c.Get(context.Background(), server.URL)
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
}

func TestSessionHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent/1.0" {
			t.Errorf("expected user agent test-agent/1.0, got %q", got)
		}
		if got := r.Header.Get("Accept-Language"); got != defaultAcceptLanguage {
			t.Errorf("unexpected Accept-Language %q", got)
		}
		if got := r.Header.Get("Accept"); got != defaultAccept {
			t.Errorf("unexpected Accept %q", got)
		}
	}))
	defer server.Close()

	c, _ := newTestClient(t, 1)
	for i := 0; i < 2; i++ {
		resp, err := c.Get(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		resp.Body.Close()
	}
}

func TestCookiesPersistAcrossRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
			return
		}
		ck, err := r.Cookie("session")
		if err != nil || ck.Value != "abc" {
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer server.Close()

	c, _ := newTestClient(t, 1)
	resp, err := c.Get(context.Background(), server.URL+"/login")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	resp, err = c.Get(context.Background(), server.URL+"/product")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected cookie to be sent back, got status %d", resp.StatusCode)
	}
}

func TestDecodesCompressedBodies(t *testing.T) {
	payload := []byte("<html><body>hola</body></html>")

	var brBuf bytes.Buffer
	bw := brotli.NewWriter(&brBuf)
	bw.Write(payload)
	bw.Close()

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	gw.Write(payload)
	gw.Close()

	tests := []struct {
		encoding string
		body     []byte
	}{
		{"br", brBuf.Bytes()},
		{"gzip", gzBuf.Bytes()},
		{"", payload},
	}

	for _, tt := range tests {
		t.Run("encoding="+tt.encoding, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Write(tt.body)
			}))
			defer server.Close()

			c, _ := newTestClient(t, 1)
			resp, err := c.Get(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			defer resp.Body.Close()

			got, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if !bytes.Equal(got, payload) {
				t.Errorf("expected %q, got %q", payload, got)
			}
		})
	}
}

func TestCancelledContextStopsRetrying(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c, _ := newTestClient(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	c.sleep = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := c.Get(ctx, server.URL)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
