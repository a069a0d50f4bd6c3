package providers

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// OpenAIClient implements engine.Gateway on a chat-completion endpoint.
// The history is sent verbatim, system message included.
type OpenAIClient struct {
	client *openai.Client
	opts   engine.ChatOptions
}

// NewOpenAIClient creates a new OpenAI client. baseURL may point at any
// OpenAI-compatible proxy; empty means the public API.
func NewOpenAIClient(apiKey, baseURL string, opts engine.ChatOptions) *OpenAIClient {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		opts:   opts.WithDefaults(),
	}
}

// GenerateReply implements engine.Gateway.
func (c *OpenAIClient) GenerateReply(ctx context.Context, history []engine.ChatMessage) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openAIRole(m.Role),
			Content: m.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.opts.Model,
		Messages:  msgs,
		MaxTokens: c.opts.MaxOutputTokens,
	})
	if err != nil {
		return "", wrapOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return "", engine.NewProviderError(ProviderOpenAI.String(), 200, "empty choices", engine.ErrEmptyReply)
	}
	return resp.Choices[0].Message.Content, nil
}

// ListModels implements ModelLister.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]string, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func openAIRole(r engine.MessageRole) string {
	switch r {
	case engine.RoleSystem:
		return openai.ChatMessageRoleSystem
	case engine.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	default:
		return openai.ChatMessageRoleUser
	}
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return engine.NewProviderError(ProviderOpenAI.String(), apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return engine.NewProviderError(ProviderOpenAI.String(), reqErr.HTTPStatusCode, "", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	status, body := extractErrorMetadata(err)
	return engine.NewProviderError(ProviderOpenAI.String(), status, body, fmt.Errorf("openai request: %w", err))
}
