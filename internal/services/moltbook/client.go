package moltbook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agentlaunch/internal/services"
)

const serviceName = "moltbook"

// Agent is a registered identity on Moltbook. The api_key is the opaque
// bearer credential used for every subsequent call; the claim_url is a
// one-time verification link tying the agent to a human account.
type Agent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	APIKey   string `json:"api_key"`
	ClaimURL string `json:"claim_url"`
}

type registerRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Agent   Agent  `json:"agent"`
	Error   string `json:"error"`
}

type postRequest struct {
	Submolt string `json:"submolt"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostEnvelope models the post creation response. The post id has been
// observed at three different locations depending on API version, so all
// three are decoded and PostID applies the priority order.
type PostEnvelope struct {
	Success *bool    `json:"success"`
	Error   string   `json:"error"`
	Post    *postRef `json:"post"`
	Data    *postRef `json:"data"`
	ID      flexID   `json:"id"`
}

type postRef struct {
	ID flexID `json:"id"`
}

// flexID tolerates string and numeric post identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// PostID returns the post identifier from the first populated location:
// post.id, then data.id, then the top-level id. Empty when none are set.
func (e *PostEnvelope) PostID() string {
	if e == nil {
		return ""
	}
	if e.Post != nil && e.Post.ID != "" {
		return string(e.Post.ID)
	}
	if e.Data != nil && e.Data.ID != "" {
		return string(e.Data.ID)
	}
	return string(e.ID)
}

// Accepted reports whether the response indicates the post was taken.
// Mirrors the compatibility rule that any of success, post, or data
// counts as acceptance.
func (e *PostEnvelope) Accepted() bool {
	if e == nil {
		return false
	}
	if e.Success != nil && *e.Success {
		return true
	}
	return e.Post != nil || e.Data != nil
}

// Client talks to the Moltbook API. Agent credentials are supplied
// per-call; the client itself holds no secret.
type Client struct {
	baseURL    string
	submolt    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a Moltbook client.
func New(baseURL, submolt string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("moltbook base url required")
	}
	submolt = strings.TrimSpace(submolt)
	if submolt == "" {
		return nil, errors.New("moltbook submolt required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		submolt:    submolt,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// RegisterAgent creates a new agent identity. Inputs are passed through
// verbatim; validation belongs to the caller.
func (c *Client) RegisterAgent(ctx context.Context, name, description string) (*Agent, error) {
	body, err := json.Marshal(registerRequest{Name: name, Description: description})
	if err != nil {
		return nil, fmt.Errorf("encode register request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/agents/register", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &services.StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var payload registerResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode register response: %w", err)
	}
	if !payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = "registration failed"
		}
		return nil, services.Wrap(services.ErrUpstream, "register agent", msg, nil)
	}
	return &payload.Agent, nil
}

// CreatePost publishes a post to the configured submolt using the
// supplied bearer credential. The raw envelope is returned so the caller
// can apply the post-id priority rules.
func (c *Client) CreatePost(ctx context.Context, apiKey, title, content string) (*PostEnvelope, error) {
	body, err := json.Marshal(postRequest{Submolt: c.submolt, Title: title, Content: content})
	if err != nil {
		return nil, fmt.Errorf("encode post request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/posts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &services.StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var payload PostEnvelope
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode post response: %w", err)
	}
	return &payload, nil
}
