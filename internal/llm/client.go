package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"

	"github.com/polysense/riskagent/pkg/config"
	"github.com/polysense/riskagent/pkg/httputil"
	"github.com/polysense/riskagent/pkg/logger"
	"github.com/polysense/riskagent/pkg/redis"
)

// Completer is the judgment capability boundary: given a system and user
// prompt it returns the model's raw text response, or fails. It has no
// state across calls.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client calls an OpenAI-compatible chat completions endpoint.
// Outbound calls are rate limited; responses may be cached in Redis.
type Client struct {
	http     *httputil.Client
	limiter  *rate.Limiter
	cache    *redis.Cache
	cacheTTL time.Duration
	baseURL  string
	model    string
	logger   *logger.Logger
}

// NewClient creates a judgment client from config
func NewClient(cfg *config.Config, log *logger.Logger, cache *redis.Cache) *Client {
	httpClient := httputil.New(log).
		WithHeader("Authorization", "Bearer "+cfg.OpenAI.APIKey)

	return &Client{
		http:     httpClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.OpenAI.RateLimit), cfg.OpenAI.RateBurst),
		cache:    cache,
		cacheTTL: cfg.Pipeline.CacheTTL,
		baseURL:  cfg.OpenAI.BaseURL,
		model:    cfg.OpenAI.Model,
		logger:   log,
	}
}

// WithModel returns a copy of the client using a different model.
// Used for per-request model overrides.
func (c *Client) WithModel(model string) *Client {
	if model == "" || model == c.model {
		return c
	}
	clone := *c
	clone.model = model
	return &clone
}

// Model returns the model identifier this client targets
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model          string         `json:"model"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat completion request and returns the raw text of
// the first choice. The context carries the caller's timeout.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	cacheKey := redis.PromptKey(c.model, system+"\x00"+user)

	if c.cache != nil {
		var cached string
		if found, _ := c.cache.Get(ctx, cacheKey, &cached); found {
			c.logger.WithField("model", c.model).Debug("Judgment response served from cache")
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}

	resp, err := c.http.PostJSON(ctx, c.baseURL+"/chat/completions", reqBody)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("chat completion http %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	text := parsed.Choices[0].Message.Content
	if text == "" {
		return "", fmt.Errorf("chat completion returned empty content")
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, text, c.cacheTTL); err != nil {
			c.logger.WithError(err).Warn("Failed to cache judgment response")
		}
	}

	return text, nil
}

var _ Completer = (*Client)(nil)
