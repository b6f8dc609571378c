// Package llm wraps the text-generation backend behind a small
// single-response interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nexifit/nexifit/internal/config"
	"github.com/nexifit/nexifit/internal/domain"
)

// Client talks to an OpenAI-compatible chat completion API.
type Client struct {
	api        *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
}

// New creates a backend client from configuration.
func New(cfg config.LLMConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		model:      cfg.Model,
		timeout:    cfg.Timeout,
		maxRetries: 2,
	}
}

// Complete sends the role-tagged history and returns the assistant
// reply. Transient failures are retried with backoff; the overall call
// is bounded by the configured timeout per attempt.
func (c *Client) Complete(ctx context.Context, msgs []domain.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: toChatMessages(msgs),
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(150*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateChatCompletion(attemptCtx, req)
		cancel()
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("completion has no choices")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}
	return "", fmt.Errorf("chat completion: %w", lastErr)
}

func toChatMessages(msgs []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Text})
	}
	return out
}
