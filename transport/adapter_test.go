package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/resourcekit/resilience"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// flaky fails the first n round trips with a connection error.
func flaky(n int32, calls *int32) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if atomic.AddInt32(calls, 1) <= n {
			return nil, errors.New("connection reset by peer")
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Etag": []string{"v1"}},
			Body:       io.NopCloser(strings.NewReader(`{}`)),
		}, nil
	})}
}

func fastRetry() *resilience.RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = time.Millisecond
	return cfg
}

func TestAdapter_Do_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/api/widgets/1" {
			t.Errorf("expected /api/widgets/1, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("expected Accept header, got %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("User-Agent"), "resourcekit/") {
			t.Errorf("expected default user agent, got %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Location", "/api/widgets/1")
		w.Header().Set("ETag", "abc")
		w.Write([]byte(`{"kind":"Widget"}`))
	}))
	defer srv.Close()

	a, err := New(Config{BaseURL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := a.Do(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     "widgets/1",
		Headers: map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("expected success, got %d", resp.StatusCode)
	}
	if resp.Header("content-location") != "/api/widgets/1" {
		t.Errorf("expected case-insensitive header lookup, got %q", resp.Header("content-location"))
	}
	if resp.Header("etag") != "abc" {
		t.Errorf("expected etag 'abc', got %q", resp.Header("etag"))
	}
	if string(resp.Body) != `{"kind":"Widget"}` {
		t.Errorf("unexpected body %s", resp.Body)
	}
}

func TestAdapter_StatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
		w.Write([]byte("stale"))
	}))
	defer srv.Close()

	a, _ := New(Config{BaseURL: srv.URL})
	resp, err := a.Do(context.Background(), Request{Method: http.MethodPatch, URL: "/r/1", Body: []byte(`{}`)})
	if err != nil {
		t.Fatalf("expected no error for 412, got %v", err)
	}
	if resp.StatusCode != http.StatusPreconditionFailed || string(resp.Body) != "stale" {
		t.Errorf("unexpected response %d %s", resp.StatusCode, resp.Body)
	}
}

func TestAdapter_HeaderPrecedence(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
	}))
	defer srv.Close()

	a, _ := New(Config{
		BaseURL:   srv.URL,
		UserAgent: "tester/1",
		Headers:   map[string]string{"X-Tenant": "default", "X-Env": "test"},
	})
	a.Do(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     "/",
		Headers: map[string]string{"X-Tenant": "acme"},
	})

	if got.Get("X-Tenant") != "acme" {
		t.Errorf("request header should win, got %q", got.Get("X-Tenant"))
	}
	if got.Get("X-Env") != "test" {
		t.Errorf("expected default header, got %q", got.Get("X-Env"))
	}
	if got.Get("User-Agent") != "tester/1" {
		t.Errorf("expected configured user agent, got %q", got.Get("User-Agent"))
	}
}

func TestAdapter_Resolve(t *testing.T) {
	a, _ := New(Config{BaseURL: "http://api.local/v1"})
	tests := []struct {
		ref  string
		want string
	}{
		{"widgets/1", "http://api.local/v1/widgets/1"},
		{"/v1/widgets/1", "http://api.local/v1/widgets/1"},
		{"http://other.local/x", "http://other.local/x"},
	}
	for _, tc := range tests {
		got, err := a.Resolve(tc.ref)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.ref, err)
		}
		if got != tc.want {
			t.Errorf("resolve %s: expected %s, got %s", tc.ref, tc.want, got)
		}
	}
}

func TestAdapter_RetryIdempotentOnly(t *testing.T) {
	tests := []struct {
		method    string
		wantCalls int32
		wantErr   bool
	}{
		{http.MethodGet, 3, false},
		{http.MethodDelete, 3, false},
		{http.MethodPatch, 1, true},
		{http.MethodPost, 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.method, func(t *testing.T) {
			var calls int32
			a, err := New(Config{BaseURL: "http://api.local", Retry: fastRetry()}, WithHTTPClient(flaky(2, &calls)))
			if err != nil {
				t.Fatal(err)
			}
			_, err = a.Do(context.Background(), Request{Method: tc.method, URL: "/r/1"})
			if (err != nil) != tc.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tc.wantErr)
			}
			if calls != tc.wantCalls {
				t.Errorf("expected %d calls, got %d", tc.wantCalls, calls)
			}
			if err != nil && !IsConnection(err) {
				t.Errorf("expected connection error, got %v", err)
			}
		})
	}
}

func TestAdapter_CircuitBreaker(t *testing.T) {
	var calls int32
	a, _ := New(Config{
		BaseURL:        "http://api.local",
		CircuitBreaker: resilience.BreakerConfig{Enabled: true, MaxFailures: 2, Cooldown: time.Hour},
	}, WithHTTPClient(flaky(100, &calls)))

	for i := 0; i < 2; i++ {
		if _, err := a.Do(context.Background(), Request{Method: http.MethodGet, URL: "/"}); !IsConnection(err) {
			t.Fatalf("attempt %d: expected connection error, got %v", i, err)
		}
	}
	if a.Available() {
		t.Error("expected breaker to be open")
	}
	_, err := a.Do(context.Background(), Request{Method: http.MethodGet, URL: "/"})
	if !IsCircuitOpen(err) {
		t.Errorf("expected circuit open error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected the open circuit to skip the network, got %d calls", calls)
	}
}

func TestAdapter_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	a, _ := New(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := a.Do(ctx, Request{Method: http.MethodGet, URL: "/"})

	var te *Error
	if !errors.As(err, &te) || te.Code != ErrCodeCanceled {
		t.Fatalf("expected canceled error, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("cancellation must not be retryable")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected errors.Is(err, context.Canceled)")
	}
}

func TestAdapter_InvalidURL(t *testing.T) {
	a, _ := New(Config{})
	_, err := a.Do(context.Background(), Request{Method: http.MethodGet, URL: "://bad"})
	var te *Error
	if !errors.As(err, &te) || te.Code != ErrCodeInvalidRequest {
		t.Errorf("expected invalid request error, got %v", err)
	}
}

func TestError_Message(t *testing.T) {
	e := &Error{Code: ErrCodeConnection, Method: "GET", URL: "http://x/r/1", Err: errors.New("refused")}
	if e.Error() != "GET http://x/r/1: connection: refused" {
		t.Errorf("unexpected message %q", e.Error())
	}
	if NewTimeoutError(errors.New("slow")).Error() != "timeout: slow" {
		t.Errorf("unexpected message %q", NewTimeoutError(errors.New("slow")).Error())
	}
}
