// Package llm provides the optional second-opinion review of reorder
// recommendations through an OpenAI-compatible chat endpoint.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/querylens/querylens-engine/pkg/retry"
)

// ChatClient is the transport used by the Reviewer. Mocked in tests.
type ChatClient interface {
	// Complete sends one chat completion and returns the assistant
	// message with token usage.
	Complete(ctx context.Context, systemMessage, prompt string) (*Completion, error)

	// Model returns the configured model name.
	Model() string
}

// Completion is one chat completion response with usage stats.
type Completion struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// Client talks to an OpenAI-compatible endpoint.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// ClientConfig holds what is needed to reach the endpoint.
type ClientConfig struct {
	Endpoint string // Base URL, e.g., "https://api.openai.com/v1"
	Model    string // Model name, e.g., "gpt-4o"
	APIKey   string // Optional for local endpoints
	Timeout  time.Duration
}

// NewClient creates an OpenAI-compatible chat client.
func NewClient(cfg ClientConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger.Named("llm"),
	}, nil
}

// Complete sends one chat completion with retry on transient failures.
func (c *Client) Complete(ctx context.Context, systemMessage, prompt string) (*Completion, error) {
	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	result, err := retry.DoWithResult(ctx, retry.DefaultConfig(), func() (*Completion, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Temperature: 0.1,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no choices in response")
		}

		return &Completion{
			Content:          resp.Choices[0].Message.Content,
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}, nil
	})
	if err != nil {
		c.logger.Error("LLM request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

var _ ChatClient = (*Client)(nil)
