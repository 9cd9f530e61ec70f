// Package ai wraps the chat-completion endpoint used for polishing and translating.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/polypost/polypost-server/internal/domain"
	domainerrors "github.com/polypost/polypost-server/internal/errors"
	"github.com/polypost/polypost-server/internal/permission"
	"github.com/polypost/polypost-server/internal/ratelimit"
	"github.com/polypost/polypost-server/internal/relay"
)

const (
	maxTokens            = 300
	polishTemperature    = 0.7
	translateTemperature = 0.3
	translateConfidence  = 95
)

// Mode says how requests reach the endpoint.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeRelay  Mode = "relay"
)

// Result is one generated text with its heuristic score.
type Result struct {
	Content     string `json:"content"`
	Confidence  int    `json:"confidence"`
	Description string `json:"description"`
}

// Config holds client settings.
type Config struct {
	DefaultBaseURL string
	Model          string
	Timeout        time.Duration
	RPS            float64
	Burst          int
}

// ChatCompleter is the part of the go-openai client we use.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type cacheKey struct {
	APIKey  string
	BaseURL string
	Mode    Mode
}

// Client issues polish and translate calls. It keeps one backend at a time and
// rebuilds it whenever the key, base URL or routing mode changes.
type Client struct {
	cfg     Config
	relayer relay.Relayer
	limiter *ratelimit.KeyedRateLimiter
	logger  *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	newBackend func(cacheKey) ChatCompleter

	mu     sync.Mutex
	key    cacheKey
	cached ChatCompleter
}

// New creates a client. relayer carries traffic for non-default base URLs.
func New(cfg Config, relayer relay.Relayer, rng *rand.Rand, logger *slog.Logger) *Client {
	cfg.DefaultBaseURL = strings.TrimRight(cfg.DefaultBaseURL, "/")
	c := &Client{
		cfg:     cfg,
		relayer: relayer,
		limiter: ratelimit.New(cfg.RPS, cfg.Burst),
		rng:     rng,
		logger:  logger,
	}
	c.newBackend = c.openAIBackend
	return c
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
	c.Invalidate()
}

// Invalidate drops the cached backend. Called whenever settings change.
func (c *Client) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
	c.key = cacheKey{}
}

// Polish rewrites content following instruction, which already embeds the content.
func (c *Client) Polish(ctx context.Context, content, instruction string, creds domain.Credentials) (Result, error) {
	text, err := c.complete(ctx, creds, polishSystemPrompt, instruction, polishTemperature)
	if err != nil {
		return Result{}, c.mapError("polish", err)
	}

	c.rngMu.Lock()
	confidence := Confidence(content, text, c.rng)
	c.rngMu.Unlock()

	return Result{Content: text, Confidence: confidence, Description: "Polished content"}, nil
}

// Translate converts content into target, detecting the source language.
func (c *Client) Translate(ctx context.Context, content string, target domain.Language, creds domain.Credentials) (Result, error) {
	text, err := c.complete(ctx, creds, translateSystemPrompt, TranslationPrompt(content, target), translateTemperature)
	if err != nil {
		return Result{}, c.mapError("translate", err)
	}
	return Result{
		Content:     text,
		Confidence:  translateConfidence,
		Description: "Accurate translation to " + target.FullName(),
	}, nil
}

func (c *Client) complete(ctx context.Context, creds domain.Credentials, system, user string, temperature float32) (string, error) {
	if strings.TrimSpace(creds.APIKey) == "" {
		return "", domainerrors.Auth("API key is required. Please configure it in Settings.")
	}

	baseURL := strings.TrimRight(creds.BaseURL, "/")
	if baseURL == "" {
		baseURL = c.cfg.DefaultBaseURL
	}
	backend := c.backend(cacheKey{APIKey: creds.APIKey, BaseURL: baseURL, Mode: c.modeFor(baseURL)})

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	limiterKey, ok := permission.OriginPattern(baseURL)
	if !ok {
		limiterKey = baseURL
	}
	if err := c.limiter.Wait(ctx, limiterKey); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	start := time.Now()
	resp, err := backend.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return "", err
	}

	c.logger.Debug("chat completion",
		"origin", limiterKey,
		"duration", time.Since(start),
		"total_tokens", resp.Usage.TotalTokens)

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *Client) modeFor(baseURL string) Mode {
	if baseURL == c.cfg.DefaultBaseURL || c.relayer == nil {
		return ModeDirect
	}
	return ModeRelay
}

func (c *Client) backend(key cacheKey) ChatCompleter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil && c.key == key {
		return c.cached
	}
	c.logger.Debug("building chat client", "base_url", key.BaseURL, "mode", key.Mode)
	c.cached = c.newBackend(key)
	c.key = key
	return c.cached
}

func (c *Client) openAIBackend(key cacheKey) ChatCompleter {
	cfg := openai.DefaultConfig(key.APIKey)
	cfg.BaseURL = key.BaseURL
	if key.Mode == ModeRelay {
		cfg.HTTPClient = &http.Client{Transport: &relay.Transport{Relayer: c.relayer}}
	} else {
		cfg.HTTPClient = &http.Client{}
	}
	return openai.NewClientWithConfig(cfg)
}

// mapError turns a failed call into an AUTH or TRANSFORM error.
func (c *Client) mapError(op string, err error) error {
	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return err
	}

	generic := fmt.Sprintf("Failed to %s content. Please check your API key and try again.", op)

	if errors.Is(err, context.DeadlineExceeded) {
		c.logger.Warn("chat completion timed out", "op", op, "timeout", c.cfg.Timeout)
		return domainerrors.Transform(fmt.Sprintf("The AI service did not respond within %s. Please try again.", c.cfg.Timeout), err)
	}
	if errors.Is(err, context.Canceled) {
		return domainerrors.Transform("The request was cancelled.", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusUnauthorized {
			return domainerrors.Auth("The API key was rejected. Please check it in Settings.").WithCause(err)
		}
		if apiErr.Message != "" {
			return domainerrors.Transform(apiErr.Message, err)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusUnauthorized {
		return domainerrors.Auth("The API key was rejected. Please check it in Settings.").WithCause(err)
	}

	c.logger.Warn("chat completion failed", "op", op, "error", err)
	return domainerrors.Transform(generic, err)
}
