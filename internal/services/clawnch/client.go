package clawnch

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

const (
	serviceName        = "clawnch"
	defaultHTTPTimeout = 60 * time.Second
	retryMaxAttempts   = 3
	retryBaseDelay     = 2 * time.Second
)

// LaunchResponse is the Clawnch launch result envelope.
type LaunchResponse struct {
	Success      bool   `json:"success"`
	ClankerURL   string `json:"clanker_url"`
	TokenAddress string `json:"token_address"`
	Error        string `json:"error"`
}

type launchRequest struct {
	MoltbookKey string `json:"moltbook_key"`
	PostID      string `json:"post_id"`
}

// Client wraps the Clawnch launch API. It is the only client in the
// system that retries: the launch endpoint has known transient
// unavailability windows, so network-class failures and 5xx responses
// are attempted up to three times with a linear 2s, 4s backoff. 4xx
// responses propagate immediately.
type Client struct {
	baseURL    string
	httpClient *http.Client

	sleeper func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// New creates a Clawnch client. The timeout covers one attempt; a
// request that exceeds it counts as a network failure and is retried.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("clawnch base url required")
	}
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Launch asks Clawnch to deploy the token described by the given post.
// On repeated transient failure the last error propagates after three
// attempts.
func (c *Client) Launch(ctx context.Context, apiKey, postID string) (*LaunchResponse, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, errors.New("post id required")
	}

	var lastErr error
	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		resp, err := c.launchOnce(ctx, apiKey, postID)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt >= retryMaxAttempts || !services.Retryable(err) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err := c.sleep(ctx, retryBaseDelay*time.Duration(attempt)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) launchOnce(ctx context.Context, apiKey, postID string) (*LaunchResponse, error) {
	body, err := json.Marshal(launchRequest{MoltbookKey: apiKey, PostID: postID})
	if err != nil {
		return nil, fmt.Errorf("encode launch request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/launch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request (timeout=%s): %w", c.httpClient.Timeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &services.StatusError{Service: serviceName, StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var payload LaunchResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode launch response: %w", err)
	}
	return &payload, nil
}

func (c *Client) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if c.sleeper != nil {
		c.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
