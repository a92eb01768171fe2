package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"agentlaunch/internal/logging"
	"agentlaunch/internal/services"
	"agentlaunch/internal/services/clawnch"
	"agentlaunch/internal/services/moltbook"
)

// PostCreator publishes the launch post. Implemented by the Moltbook client.
type PostCreator interface {
	CreatePost(ctx context.Context, apiKey, title, content string) (*moltbook.PostEnvelope, error)
}

// TokenLauncher triggers the launch for an existing post. Implemented by
// the Clawnch client (which owns the retry policy).
type TokenLauncher interface {
	Launch(ctx context.Context, apiKey, postID string) (*clawnch.LaunchResponse, error)
}

// Recorder persists launch attempts to the local journal. Journal
// failures never fail a launch; they are logged and ignored.
type Recorder interface {
	Begin(ctx context.Context, name, symbol, wallet string) (int64, error)
	MarkPosted(ctx context.Context, id int64, postID string) error
	MarkLaunched(ctx context.Context, id int64, clankerURL, tokenAddress string) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	FindByPostID(ctx context.Context, postID string) (int64, bool, error)
}

// Result is the terminal artifact of a successful orchestration. It is
// displayed once and not persisted beyond the journal row.
type Result struct {
	ClankerURL   string `json:"clanker_url"`
	TokenAddress string `json:"token_address,omitempty"`
	PostID       string `json:"post_id"`
}

// Orchestrator composes post creation and token launch with the
// partial-failure semantics described in the package comment.
type Orchestrator struct {
	posts            PostCreator
	launcher         TokenLauncher
	recorder         Recorder
	fallbackImageURL string
	logger           *slog.Logger
}

// NewOrchestrator wires the orchestration flow. The recorder may be nil.
func NewOrchestrator(posts PostCreator, launcher TokenLauncher, recorder Recorder, fallbackImageURL string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		posts:            posts,
		launcher:         launcher,
		recorder:         recorder,
		fallbackImageURL: fallbackImageURL,
		logger:           logger,
	}
}

// Launch runs the full flow. Errors are always *FlowError.
func (o *Orchestrator) Launch(ctx context.Context, req Request) (*Result, error) {
	normalized, err := req.Normalize(o.fallbackImageURL)
	if err != nil {
		return nil, err
	}

	content, err := PostContent(normalized)
	if err != nil {
		return nil, &FlowError{Status: 500, Message: "Server error", Err: err}
	}

	entryID := o.begin(ctx, normalized)

	envelope, err := o.posts.CreatePost(ctx, normalized.APIKey, PostTitle(normalized), content)
	if err != nil {
		if services.StatusCode(err) == http.StatusTooManyRequests {
			o.fail(ctx, entryID, "rate limited")
			return nil, &FlowError{
				Status:  http.StatusTooManyRequests,
				Message: "Rate limited: You can only post once every 30 minutes",
				Err:     services.Wrap(services.ErrRateLimited, "create post", "", err),
			}
		}
		o.fail(ctx, entryID, err.Error())
		return nil, &FlowError{Status: 500, Message: err.Error(), Err: err}
	}

	if !envelope.Accepted() {
		msg := envelope.Error
		if msg == "" {
			msg = "Failed to create post"
		}
		o.fail(ctx, entryID, msg)
		return nil, &FlowError{Status: 400, Message: msg, Err: services.ErrUpstream}
	}

	postID := envelope.PostID()
	if postID == "" {
		o.fail(ctx, entryID, "post created but no id returned")
		return nil, &FlowError{Status: 400, Message: "Post created but no ID returned", Err: services.ErrUpstream}
	}
	o.posted(ctx, entryID, postID)
	o.logger.Info("launch post created",
		logging.String("post_id", postID),
		logging.String("symbol", normalized.Symbol))

	return o.runLaunch(ctx, normalized.APIKey, postID, entryID)
}

// Resume retries the launch step for an already-created post, skipping
// validation and post creation entirely.
func (o *Orchestrator) Resume(ctx context.Context, apiKey, postID string) (*Result, error) {
	if postID == "" {
		return nil, &FlowError{Status: 400, Message: "post_id is required", Err: services.ErrValidation}
	}

	entryID, found := o.findEntry(ctx, postID)
	if !found {
		entryID = o.begin(ctx, Normalized{Name: "resume " + postID})
		o.posted(ctx, entryID, postID)
	}

	return o.runLaunch(ctx, apiKey, postID, entryID)
}

func (o *Orchestrator) runLaunch(ctx context.Context, apiKey, postID string, entryID int64) (*Result, error) {
	resp, err := o.launcher.Launch(ctx, apiKey, postID)
	if err != nil {
		if services.StatusCode(err) == http.StatusServiceUnavailable {
			o.fail(ctx, entryID, "clawnch unavailable")
			return nil, &FlowError{
				Status:  http.StatusServiceUnavailable,
				Message: fmt.Sprintf("Clawnch server is temporarily unavailable. Post created - retry launch later with post_id: %s", postID),
				PostID:  postID,
				Err:     services.Wrap(services.ErrUnavailable, "launch token", "", err),
			}
		}
		o.fail(ctx, entryID, err.Error())
		return nil, &FlowError{Status: 500, Message: err.Error(), PostID: postID, Err: err}
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "Clawnch launch failed"
		}
		o.fail(ctx, entryID, msg)
		return nil, &FlowError{Status: 400, Message: msg, PostID: postID, Err: services.ErrUpstream}
	}

	o.launched(ctx, entryID, resp.ClankerURL, resp.TokenAddress)
	o.logger.Info("token launched",
		logging.String("post_id", postID),
		logging.String("clanker_url", resp.ClankerURL))

	return &Result{
		ClankerURL:   resp.ClankerURL,
		TokenAddress: resp.TokenAddress,
		PostID:       postID,
	}, nil
}

func (o *Orchestrator) begin(ctx context.Context, n Normalized) int64 {
	if o.recorder == nil {
		return 0
	}
	id, err := o.recorder.Begin(ctx, n.Name, n.Symbol, n.Wallet)
	if err != nil {
		o.logger.Warn("journal begin failed", logging.Error(err))
		return 0
	}
	return id
}

func (o *Orchestrator) posted(ctx context.Context, id int64, postID string) {
	if o.recorder == nil || id == 0 {
		return
	}
	if err := o.recorder.MarkPosted(ctx, id, postID); err != nil {
		o.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (o *Orchestrator) launched(ctx context.Context, id int64, clankerURL, tokenAddress string) {
	if o.recorder == nil || id == 0 {
		return
	}
	if err := o.recorder.MarkLaunched(ctx, id, clankerURL, tokenAddress); err != nil {
		o.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (o *Orchestrator) fail(ctx context.Context, id int64, reason string) {
	if o.recorder == nil || id == 0 {
		return
	}
	if err := o.recorder.MarkFailed(ctx, id, reason); err != nil {
		o.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (o *Orchestrator) findEntry(ctx context.Context, postID string) (int64, bool) {
	if o.recorder == nil {
		return 0, false
	}
	id, found, err := o.recorder.FindByPostID(ctx, postID)
	if err != nil {
		o.logger.Warn("journal lookup failed", logging.Error(err))
		return 0, false
	}
	return id, found
}

// AsFlowError extracts the FlowError from an orchestration failure.
func AsFlowError(err error) (*FlowError, bool) {
	var flowErr *FlowError
	if errors.As(err, &flowErr) {
		return flowErr, true
	}
	return nil, false
}
