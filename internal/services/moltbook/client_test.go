package moltbook_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"agentlaunch/internal/services"
	"agentlaunch/internal/services/moltbook"
)

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := moltbook.New("", "clawnch"); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestRegisterAgentSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/agents/register" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["name"] != "Bot" || body["description"] != "x" {
			t.Fatalf("unexpected request body: %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"agent":{"id":"a1","name":"Bot","api_key":"k","claim_url":"https://example.test/claim"}}`))
	}))
	t.Cleanup(server.Close)

	client, err := moltbook.New(server.URL, "clawnch")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	agent, err := client.RegisterAgent(context.Background(), "Bot", "x")
	if err != nil {
		t.Fatalf("RegisterAgent returned error: %v", err)
	}
	if agent.ID == "" || agent.Name != "Bot" || agent.APIKey == "" || agent.ClaimURL == "" {
		t.Fatalf("incomplete agent: %+v", agent)
	}
}

func TestRegisterAgentErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":"name taken"}`))
	}))
	t.Cleanup(server.Close)

	client, _ := moltbook.New(server.URL, "clawnch")
	_, err := client.RegisterAgent(context.Background(), "Bot", "x")
	if err == nil || !errors.Is(err, services.ErrUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCreatePostSendsBearerAndSubmolt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", got)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["submolt"] != "clawnch" {
			t.Fatalf("unexpected submolt %q", body["submolt"])
		}
		_, _ = w.Write([]byte(`{"success":true,"post":{"id":"p7"}}`))
	}))
	t.Cleanup(server.Close)

	client, _ := moltbook.New(server.URL, "clawnch")
	env, err := client.CreatePost(context.Background(), "secret", "t", "c")
	if err != nil {
		t.Fatalf("CreatePost returned error: %v", err)
	}
	if env.PostID() != "p7" {
		t.Fatalf("PostID = %q, want p7", env.PostID())
	}
}

func TestCreatePostRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, _ := moltbook.New(server.URL, "clawnch")
	_, err := client.CreatePost(context.Background(), "k", "t", "c")
	if services.StatusCode(err) != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
}

func TestPostIDPriority(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"post wins", `{"post":{"id":"a"},"data":{"id":"b"},"id":"c"}`, "a"},
		{"data second", `{"data":{"id":"b"},"id":"c"}`, "b"},
		{"top level last", `{"id":"c"}`, "c"},
		{"numeric id", `{"data":{"id":42}}`, "42"},
		{"none", `{"success":true}`, ""},
	}
	for _, tc := range cases {
		var env moltbook.PostEnvelope
		if err := json.Unmarshal([]byte(tc.body), &env); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if got := env.PostID(); got != tc.want {
			t.Errorf("%s: PostID = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestAcceptedShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"success true", `{"success":true}`, true},
		{"post ref only", `{"post":{"id":"p1"}}`, true},
		{"data ref only", `{"data":{"id":"p1"}}`, true},
		{"success false no refs", `{"success":false,"error":"nope"}`, false},
		{"empty", `{}`, false},
	}
	for _, tc := range cases {
		var env moltbook.PostEnvelope
		if err := json.Unmarshal([]byte(tc.body), &env); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if got := env.Accepted(); got != tc.want {
			t.Errorf("%s: Accepted = %v, want %v", tc.name, got, tc.want)
		}
	}
}
