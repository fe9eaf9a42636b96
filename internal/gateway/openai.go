package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// ChatClient is the subset of *openai.Client the adapter uses.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI completes prompts against one model of an OpenAI-compatible API.
type OpenAI struct {
	client      ChatClient
	model       string
	timeout     time.Duration
	temperature float32
}

// OpenAIOptions configures NewOpenAI.
type OpenAIOptions struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature float32
}

// NewOpenAI builds a client for opts.Model. An empty BaseURL keeps the
// library default.
func NewOpenAI(opts OpenAIOptions) (*OpenAI, error) {
	if opts.Model == "" {
		return nil, errors.New("gateway: model is required")
	}
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	return NewOpenAIWithClient(openai.NewClientWithConfig(cfg), opts.Model, opts.Timeout, opts.Temperature), nil
}

// NewOpenAIWithClient wraps an existing client. A zero timeout disables
// the per-call deadline.
func NewOpenAIWithClient(client ChatClient, model string, timeout time.Duration, temperature float32) *OpenAI {
	return &OpenAI{client: client, model: model, timeout: timeout, temperature: temperature}
}

// Model returns the model name this adapter targets.
func (o *OpenAI) Model() string { return o.model }

// Complete sends messages as one chat completion and returns the first
// choice's content.
func (o *OpenAI) Complete(ctx context.Context, messages []Message) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
		Temperature: o.temperature,
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    chatRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: model %s after %s: %w", ErrTimeout, o.model, o.timeout, err)
		}
		return "", fmt.Errorf("%w: model %s: %w", ErrProvider, o.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model %s returned no choices", ErrProvider, o.model)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func chatRole(r Role) string {
	if r == RoleSystem {
		return openai.ChatMessageRoleSystem
	}
	return openai.ChatMessageRoleUser
}
