package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"agentlaunch/internal/logging"
	"agentlaunch/internal/services"
)

const (
	serviceName        = "fal"
	defaultHTTPTimeout = 30 * time.Second
	logoPromptPrefix   = "crypto token logo, modern minimalist style, white background, "
	randomizerModel    = "openai/gpt-4.1"
)

// Kind selects what Randomize generates.
type Kind string

const (
	KindName Kind = "name"
	KindSoul Kind = "soul"
)

// Config captures the runtime settings required to talk to Fal.ai.
type Config struct {
	APIKey         string
	BaseURL        string
	ImageModel     string
	TextModel      string
	FallbackURL    string
	TimeoutSeconds int
}

// Client wraps the Fal.ai generation API. Logo generation is a
// best-effort, non-blocking operation: any failure resolves to the
// fallback image URL instead of an error, because a missing logo must
// never block a token launch.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
	pick       func(n int) int
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

// WithLogger sets the logger used for swallowed failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPicker overrides fallback selection (useful for tests).
func WithPicker(pick func(n int) int) Option {
	return func(c *Client) {
		if pick != nil {
			c.pick = pick
		}
	}
}

// New constructs a Fal client. An empty API key is valid; every
// operation then resolves to its fallback without a network call.
func New(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			ImageModel:     strings.TrimSpace(cfg.ImageModel),
			TextModel:      strings.TrimSpace(cfg.TextModel),
			FallbackURL:    strings.TrimSpace(cfg.FallbackURL),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewNop(),
		pick:       rand.Intn,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type imageResponse struct {
	Images []imageRef `json:"images"`
	Data   struct {
		Images []imageRef `json:"images"`
	} `json:"data"`
}

type imageRef struct {
	URL string `json:"url"`
}

// GenerateLogo produces a logo image URL for the given prompt. It never
// returns an error: on any failure the fixed fallback URL is returned
// and the cause is only logged.
func (c *Client) GenerateLogo(ctx context.Context, prompt string) string {
	if c.cfg.APIKey == "" {
		return c.cfg.FallbackURL
	}
	payload := map[string]string{
		"prompt":     logoPromptPrefix + prompt,
		"image_size": "square_hd",
	}
	raw, err := c.invoke(ctx, c.cfg.ImageModel, payload)
	if err != nil {
		c.logger.Warn("logo generation failed, using fallback", logging.Error(err))
		return c.cfg.FallbackURL
	}

	var decoded imageResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		c.logger.Warn("logo response undecodable, using fallback", logging.Error(err))
		return c.cfg.FallbackURL
	}
	images := decoded.Images
	if len(images) == 0 {
		images = decoded.Data.Images
	}
	if len(images) == 0 || images[0].URL == "" {
		c.logger.Warn("logo response contained no image, using fallback")
		return c.cfg.FallbackURL
	}
	return images[0].URL
}

type textResponse struct {
	Output string `json:"output"`
	Data   struct {
		Output string `json:"output"`
	} `json:"data"`
}

// Randomize generates an agent name or persona. Upstream failures fall
// back to fixed lists, so the only error is an unknown kind.
func (c *Client) Randomize(ctx context.Context, kind Kind) (string, error) {
	var prompt string
	switch kind {
	case KindName:
		prompt = "Generate 1 unique crypto agent username. Single word. Examples: TruthTerminal, BasedBeff. Return ONLY the name."
	case KindSoul:
		prompt = "Generate a short AI agent personality (2 sentences max). Crypto vibe. Return ONLY the text."
	default:
		return "", fmt.Errorf("unknown randomize kind %q", kind)
	}

	if c.cfg.APIKey != "" {
		payload := map[string]string{"prompt": prompt, "model": randomizerModel}
		raw, err := c.invoke(ctx, c.cfg.TextModel, payload)
		if err == nil {
			var decoded textResponse
			if err := json.Unmarshal(raw, &decoded); err == nil {
				output := decoded.Data.Output
				if output == "" {
					output = decoded.Output
				}
				output = cleanOutput(output)
				if len(output) > 2 {
					return output, nil
				}
			}
		} else {
			c.logger.Warn("randomize failed, using fallback", logging.Error(err))
		}
	}

	return c.fallback(kind), nil
}

func (c *Client) fallback(kind Kind) string {
	if kind == KindName {
		return fallbackNames[c.pick(len(fallbackNames))]
	}
	return fallbackSouls[c.pick(len(fallbackSouls))]
}

func (c *Client) invoke(ctx context.Context, model string, payload any) ([]byte, error) {
	if model == "" {
		return nil, fmt.Errorf("fal model not configured")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/"+model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Key "+c.cfg.APIKey)

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
	return raw, nil
}

func cleanOutput(s string) string {
	s = strings.ReplaceAll(s, "```", "")
	s = strings.ReplaceAll(s, `"`, "")
	return strings.TrimSpace(s)
}

var fallbackNames = []string{
	"CryptoOracle", "BasedAnon", "NullPointer", "ChainMind", "EtherGhost",
	"TokenSage", "DeFiPunk", "AlphaHunter", "MoonRunner", "ChartWhisper",
	"BlockPhantom", "SatoshiKid", "VaultKeeper", "GasGuru", "RektAvoider",
}

var fallbackSouls = []string{
	"A mysterious oracle from the depths of the blockchain. Speaks only in riddles and alpha.",
	"Born from pure chaos energy. Loves memecoins and hates rugs. Will shill your bags.",
	"An ancient being that predates Satoshi. Watches. Waits. Trades at the perfect moment.",
	"A degenerate philosopher who found enlightenment through losing it all. Now only speaks truth.",
	"Part AI, part meme, fully based. Exists only to spread chaos and make number go up.",
}
