package fal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"agentlaunch/internal/services/fal"
)

const fallbackURL = "https://iili.io/fLUphxa.jpg"

func newClient(t *testing.T, serverURL string, opts ...fal.Option) *fal.Client {
	t.Helper()
	return fal.New(fal.Config{
		APIKey:      "key",
		BaseURL:     serverURL,
		ImageModel:  "fal-ai/flux/schnell",
		TextModel:   "openrouter/router",
		FallbackURL: fallbackURL,
	}, opts...)
}

func TestGenerateLogoSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/fal-ai/flux/schnell") {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Key key" {
			t.Fatalf("unexpected auth header %q", got)
		}
		_, _ = w.Write([]byte(`{"images":[{"url":"https://img.test/logo.png"}]}`))
	}))
	t.Cleanup(server.Close)

	url := newClient(t, server.URL).GenerateLogo(context.Background(), "MyToken")
	if url != "https://img.test/logo.png" {
		t.Fatalf("GenerateLogo = %q", url)
	}
}

func TestGenerateLogoNestedImages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"images":[{"url":"https://img.test/nested.png"}]}}`))
	}))
	t.Cleanup(server.Close)

	url := newClient(t, server.URL).GenerateLogo(context.Background(), "MyToken")
	if url != "https://img.test/nested.png" {
		t.Fatalf("GenerateLogo = %q", url)
	}
}

func TestGenerateLogoFailureReturnsFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	url := newClient(t, server.URL).GenerateLogo(context.Background(), "MyToken")
	if url != fallbackURL {
		t.Fatalf("expected fallback, got %q", url)
	}
}

func TestGenerateLogoWithoutKeySkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	t.Cleanup(server.Close)

	client := fal.New(fal.Config{BaseURL: server.URL, ImageModel: "m", FallbackURL: fallbackURL})
	if url := client.GenerateLogo(context.Background(), "x"); url != fallbackURL {
		t.Fatalf("expected fallback, got %q", url)
	}
	if calls.Load() != 0 {
		t.Fatal("expected no network call without an API key")
	}
}

func TestRandomizeUpstream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"output":"\"ChainWalker\""}}`))
	}))
	t.Cleanup(server.Close)

	name, err := newClient(t, server.URL).Randomize(context.Background(), fal.KindName)
	if err != nil {
		t.Fatalf("Randomize returned error: %v", err)
	}
	if name != "ChainWalker" {
		t.Fatalf("Randomize = %q, want quotes stripped", name)
	}
}

func TestRandomizeFallsBackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL, fal.WithPicker(func(int) int { return 0 }))
	name, err := client.Randomize(context.Background(), fal.KindName)
	if err != nil {
		t.Fatalf("Randomize returned error: %v", err)
	}
	if name != "CryptoOracle" {
		t.Fatalf("expected first fallback name, got %q", name)
	}

	soul, err := client.Randomize(context.Background(), fal.KindSoul)
	if err != nil {
		t.Fatalf("Randomize returned error: %v", err)
	}
	if !strings.Contains(soul, "oracle") {
		t.Fatalf("unexpected fallback soul %q", soul)
	}
}

func TestRandomizeRejectsUnknownKind(t *testing.T) {
	client := fal.New(fal.Config{BaseURL: "https://example.test", FallbackURL: fallbackURL})
	if _, err := client.Randomize(context.Background(), fal.Kind("color")); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestRandomizeShortOutputCountsAsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output":"ok"}`))
	}))
	t.Cleanup(server.Close)

	client := newClient(t, server.URL, fal.WithPicker(func(int) int { return 1 }))
	name, err := client.Randomize(context.Background(), fal.KindName)
	if err != nil {
		t.Fatalf("Randomize returned error: %v", err)
	}
	if name != "BasedAnon" {
		t.Fatalf("expected fallback for short output, got %q", name)
	}
}
