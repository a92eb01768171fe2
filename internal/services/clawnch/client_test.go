package clawnch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"agentlaunch/internal/services"
	"agentlaunch/internal/services/clawnch"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := clawnch.New("", 0); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestLaunchRequiresPostID(t *testing.T) {
	client, err := clawnch.New("https://example.test", 0)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Launch(context.Background(), "k", "  "); err == nil {
		t.Fatal("expected error for empty post id")
	}
}

func TestLaunchRetriesServerErrorsThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"clanker_url":"https://clanker.test/t","token_address":"0xdead"}`))
	}))
	t.Cleanup(server.Close)

	var delays []time.Duration
	client, _ := clawnch.New(server.URL, 0, clawnch.WithSleeper(func(d time.Duration) {
		delays = append(delays, d)
	}))

	resp, err := client.Launch(context.Background(), "k", "p1")
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if !resp.Success || resp.ClankerURL == "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if len(delays) != 2 || delays[0] != 2*time.Second || delays[1] != 4*time.Second {
		t.Fatalf("expected linear 2s,4s backoff, got %v", delays)
	}
}

func TestLaunchClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"agent not claimed by a human"}`))
	}))
	t.Cleanup(server.Close)

	client, _ := clawnch.New(server.URL, 0, clawnch.WithSleeper(func(time.Duration) {
		t.Fatal("sleeper should not run for 4xx")
	}))

	_, err := client.Launch(context.Background(), "k", "p1")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", got)
	}
	if services.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("status code lost: %v", err)
	}
}

func TestLaunchExhaustsRetriesAndReturnsLastError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client, _ := clawnch.New(server.URL, 0, clawnch.WithSleeper(func(time.Duration) {}))

	_, err := client.Launch(context.Background(), "k", "p1")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
	if services.StatusCode(err) != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 to survive the retry loop, got %v", err)
	}
}

func TestLaunchStopsWhenContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	client, _ := clawnch.New(server.URL, 0, clawnch.WithSleeper(func(time.Duration) {
		cancel()
	}))

	if _, err := client.Launch(ctx, "k", "p1"); err == nil {
		t.Fatal("expected context cancellation to abort the retry loop")
	}
}
