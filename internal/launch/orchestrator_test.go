package launch_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"agentlaunch/internal/launch"
	"agentlaunch/internal/services"
	"agentlaunch/internal/services/clawnch"
	"agentlaunch/internal/services/moltbook"
)

func envelope(t *testing.T, body string) *moltbook.PostEnvelope {
	t.Helper()
	var env moltbook.PostEnvelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	return &env
}

type fakePoster struct {
	calls    int
	envelope *moltbook.PostEnvelope
	err      error

	gotTitle   string
	gotContent string
}

func (f *fakePoster) CreatePost(_ context.Context, _, title, content string) (*moltbook.PostEnvelope, error) {
	f.calls++
	f.gotTitle = title
	f.gotContent = content
	return f.envelope, f.err
}

type fakeLauncher struct {
	calls int
	resp  *clawnch.LaunchResponse
	err   error

	gotPostID string
}

func (f *fakeLauncher) Launch(_ context.Context, _, postID string) (*clawnch.LaunchResponse, error) {
	f.calls++
	f.gotPostID = postID
	return f.resp, f.err
}

type fakeRecorder struct {
	begun    int
	posted   []string
	launched int
	failed   []string
	known    map[string]int64
}

func (f *fakeRecorder) Begin(_ context.Context, _, _, _ string) (int64, error) {
	f.begun++
	return int64(f.begun), nil
}

func (f *fakeRecorder) MarkPosted(_ context.Context, _ int64, postID string) error {
	f.posted = append(f.posted, postID)
	return nil
}

func (f *fakeRecorder) MarkLaunched(_ context.Context, _ int64, _, _ string) error {
	f.launched++
	return nil
}

func (f *fakeRecorder) MarkFailed(_ context.Context, _ int64, reason string) error {
	f.failed = append(f.failed, reason)
	return nil
}

func (f *fakeRecorder) FindByPostID(_ context.Context, postID string) (int64, bool, error) {
	id, ok := f.known[postID]
	return id, ok, nil
}

func TestLaunchSuccess(t *testing.T) {
	poster := &fakePoster{envelope: envelope(t, `{"success":true,"post":{"id":"p-1"}}`)}
	launcher := &fakeLauncher{resp: &clawnch.LaunchResponse{
		Success:      true,
		ClankerURL:   "https://clanker.example/t/1",
		TokenAddress: "0xdead",
	}}
	recorder := &fakeRecorder{}
	orch := launch.NewOrchestrator(poster, launcher, recorder, fallbackImage, nil)

	result, err := orch.Launch(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if result.PostID != "p-1" || result.ClankerURL != "https://clanker.example/t/1" || result.TokenAddress != "0xdead" {
		t.Fatalf("unexpected result %+v", result)
	}
	if launcher.gotPostID != "p-1" {
		t.Fatalf("launcher got post id %q", launcher.gotPostID)
	}
	if poster.gotTitle != "🚀 MyToken" {
		t.Fatalf("unexpected title %q", poster.gotTitle)
	}
	if !strings.Contains(poster.gotContent, launch.Marker) {
		t.Fatal("post content missing marker")
	}
	if recorder.launched != 1 || len(recorder.posted) != 1 {
		t.Fatalf("journal not updated: %+v", recorder)
	}
}

func TestLaunchValidationSkipsNetwork(t *testing.T) {
	poster := &fakePoster{}
	launcher := &fakeLauncher{}
	orch := launch.NewOrchestrator(poster, launcher, nil, fallbackImage, nil)

	req := validRequest()
	req.Name = strings.Repeat("x", 51)
	_, err := orch.Launch(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	flowErr, ok := launch.AsFlowError(err)
	if !ok || flowErr.Status != 400 {
		t.Fatalf("expected 400 flow error, got %v", err)
	}
	if flowErr.Message != "Token name too long (max 50 chars)" {
		t.Fatalf("unexpected message %q", flowErr.Message)
	}
	if poster.calls != 0 || launcher.calls != 0 {
		t.Fatalf("network clients were called: poster=%d launcher=%d", poster.calls, launcher.calls)
	}
}

func TestLaunchRateLimited(t *testing.T) {
	poster := &fakePoster{err: &services.StatusError{Service: "moltbook", StatusCode: 429}}
	launcher := &fakeLauncher{}
	orch := launch.NewOrchestrator(poster, launcher, nil, fallbackImage, nil)

	_, err := orch.Launch(context.Background(), validRequest())
	flowErr, ok := launch.AsFlowError(err)
	if !ok || flowErr.Status != 429 {
		t.Fatalf("expected 429 flow error, got %v", err)
	}
	if flowErr.Message != "Rate limited: You can only post once every 30 minutes" {
		t.Fatalf("unexpected message %q", flowErr.Message)
	}
	if launcher.calls != 0 {
		t.Fatal("launcher must not run after rate limit")
	}
}

func TestLaunchPostIDFromDataField(t *testing.T) {
	poster := &fakePoster{envelope: envelope(t, `{"data":{"id":12345}}`)}
	launcher := &fakeLauncher{resp: &clawnch.LaunchResponse{Success: true, ClankerURL: "u"}}
	orch := launch.NewOrchestrator(poster, launcher, nil, fallbackImage, nil)

	result, err := orch.Launch(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Launch returned error: %v", err)
	}
	if result.PostID != "12345" {
		t.Fatalf("post id = %q, want 12345", result.PostID)
	}
}

func TestLaunchMissingPostID(t *testing.T) {
	poster := &fakePoster{envelope: envelope(t, `{"success":true}`)}
	launcher := &fakeLauncher{}
	orch := launch.NewOrchestrator(poster, launcher, nil, fallbackImage, nil)

	_, err := orch.Launch(context.Background(), validRequest())
	flowErr, ok := launch.AsFlowError(err)
	if !ok || flowErr.Status != 400 {
		t.Fatalf("expected 400 flow error, got %v", err)
	}
	if flowErr.Message != "Post created but no ID returned" {
		t.Fatalf("unexpected message %q", flowErr.Message)
	}
	if launcher.calls != 0 {
		t.Fatal("launcher must not run without a post id")
	}
}

func TestLaunchPostRejected(t *testing.T) {
	poster := &fakePoster{envelope: envelope(t, `{"success":false,"error":"submolt does not exist"}`)}
	orch := launch.NewOrchestrator(poster, &fakeLauncher{}, nil, fallbackImage, nil)

	_, err := orch.Launch(context.Background(), validRequest())
	flowErr, ok := launch.AsFlowError(err)
	if !ok || flowErr.Status != 400 {
		t.Fatalf("expected 400 flow error, got %v", err)
	}
	if flowErr.Message != "submolt does not exist" {
		t.Fatalf("unexpected message %q", flowErr.Message)
	}
}

func TestLaunchClawnchUnavailable(t *testing.T) {
	poster := &fakePoster{envelope: envelope(t, `{"success":true,"post":{"id":"p-77"}}`)}
	launcher := &fakeLauncher{err: &services.StatusError{Service: "clawnch", StatusCode: 503}}
	recorder := &fakeRecorder{}
	orch := launch.NewOrchestrator(poster, launcher, recorder, fallbackImage, nil)

	_, err := orch.Launch(context.Background(), validRequest())
	flowErr, ok := launch.AsFlowError(err)
	if !ok || flowErr.Status != 503 {
		t.Fatalf("expected 503 flow error, got %v", err)
	}
	if flowErr.PostID != "p-77" {
		t.Fatalf("flow error post id = %q", flowErr.PostID)
	}
	if !strings.Contains(flowErr.Message, "retry launch later with post_id: p-77") {
		t.Fatalf("unexpected message %q", flowErr.Message)
	}
	if len(recorder.posted) != 1 || recorder.posted[0] != "p-77" {
		t.Fatalf("post id not journaled: %+v", recorder.posted)
	}
}

func TestLaunchClawnchRejected(t *testing.T) {
	poster := &fakePoster{envelope: envelope(t, `{"success":true,"post":{"id":"p-9"}}`)}
	launcher := &fakeLauncher{resp: &clawnch.LaunchResponse{Success: false, Error: "no marker found"}}
	orch := launch.NewOrchestrator(poster, launcher, nil, fallbackImage, nil)

	_, err := orch.Launch(context.Background(), validRequest())
	flowErr, ok := launch.AsFlowError(err)
	if !ok || flowErr.Status != 400 {
		t.Fatalf("expected 400 flow error, got %v", err)
	}
	if flowErr.Message != "no marker found" || flowErr.PostID != "p-9" {
		t.Fatalf("unexpected flow error %+v", flowErr)
	}
}

func TestResumeSkipsPostCreation(t *testing.T) {
	poster := &fakePoster{}
	launcher := &fakeLauncher{resp: &clawnch.LaunchResponse{Success: true, ClankerURL: "u"}}
	recorder := &fakeRecorder{known: map[string]int64{"p-5": 3}}
	orch := launch.NewOrchestrator(poster, launcher, recorder, fallbackImage, nil)

	result, err := orch.Resume(context.Background(), "key", "p-5")
	if err != nil {
		t.Fatalf("Resume returned error: %v", err)
	}
	if result.PostID != "p-5" {
		t.Fatalf("post id = %q", result.PostID)
	}
	if poster.calls != 0 {
		t.Fatal("resume must not create a post")
	}
	if recorder.begun != 0 {
		t.Fatal("resume of known post must reuse the journal entry")
	}
}

func TestResumeRequiresPostID(t *testing.T) {
	orch := launch.NewOrchestrator(&fakePoster{}, &fakeLauncher{}, nil, fallbackImage, nil)
	_, err := orch.Resume(context.Background(), "key", "")
	flowErr, ok := launch.AsFlowError(err)
	if !ok || flowErr.Status != 400 {
		t.Fatalf("expected 400 flow error, got %v", err)
	}
}
