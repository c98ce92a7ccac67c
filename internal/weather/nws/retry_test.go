package nws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func buildGet(t *testing.T, url string) func() (*http.Request, error) {
	t.Helper()
	return func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, url, nil)
	}
}

func TestDoWithRetryStopsOnFirstSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, attempts, err := doWithRetry(context.Background(), srv.Client(), buildGet(t, srv.URL), 3, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if attempts != 1 {
		t.Errorf("attempts = %d; want 1", attempts)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server saw %d requests; want 1", got)
	}
}

func TestDoWithRetryExhaustsAttemptsAndReturnsLastResponse(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("X-Attempt", string(rune('0'+n)))
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, attempts, err := doWithRetry(context.Background(), srv.Client(), buildGet(t, srv.URL), 3, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if attempts != 3 {
		t.Errorf("attempts = %d; want 3", attempts)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d requests; want 3", got)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d; want 500", resp.StatusCode)
	}
	// The returned response is the final attempt's, not an earlier one.
	if got := resp.Header.Get("X-Attempt"); got != "3" {
		t.Errorf("returned attempt %q; want attempt 3", got)
	}
}

func TestDoWithRetrySucceedsMidway(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, attempts, err := doWithRetry(context.Background(), srv.Client(), buildGet(t, srv.URL), 3, time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if attempts != 3 {
		t.Errorf("attempts = %d; want 3", attempts)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d; want 200", resp.StatusCode)
	}
}

func TestDoWithRetryClampsAttemptsBelowOne(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	for _, maxAttempts := range []int{0, -1} {
		resp, attempts, err := doWithRetry(context.Background(), srv.Client(), buildGet(t, srv.URL), maxAttempts, time.Millisecond)
		if resp != nil || attempts != 0 || err != nil {
			t.Errorf("maxAttempts=%d: got (%v, %d, %v); want (nil, 0, nil)", maxAttempts, resp, attempts, err)
		}
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("server saw %d requests; want 0", got)
	}
}

func TestDoWithRetryHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, attempts, err := doWithRetry(ctx, srv.Client(), buildGet(t, srv.URL), 3, time.Millisecond)
	if err == nil {
		t.Fatal("expected a context error")
	}
	if attempts != 0 {
		t.Errorf("attempts = %d; want 0", attempts)
	}
}
