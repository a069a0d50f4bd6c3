package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// AnthropicClient implements engine.Gateway on the Messages API. The system
// message goes into the top-level system field.
type AnthropicClient struct {
	client *anthropic.Client
	opts   engine.ChatOptions
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, baseURL string, opts engine.ChatOptions) *AnthropicClient {
	var clientOpts []anthropic.ClientOption
	if baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(baseURL))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(apiKey, clientOpts...),
		opts:   opts.WithDefaults(),
	}
}

// GenerateReply implements engine.Gateway.
func (c *AnthropicClient) GenerateReply(ctx context.Context, history []engine.ChatMessage) (string, error) {
	instructions, turns := splitSystem(history)
	system := make([]anthropic.MessageSystemPart, 0, len(instructions))
	for _, text := range instructions {
		system = append(system, anthropic.MessageSystemPart{Type: "text", Text: text})
	}

	var msgs []anthropic.Message
	for _, m := range turns {
		role := anthropic.RoleUser
		if m.Role == engine.RoleAssistant {
			role = anthropic.RoleAssistant
		}

		// The API rejects consecutive messages with the same role.
		if n := len(msgs); n > 0 && msgs[n-1].Role == role {
			msgs[n-1].Content = append(msgs[n-1].Content, anthropic.NewTextMessageContent(m.Content))
			continue
		}
		msgs = append(msgs, anthropic.Message{
			Role:    role,
			Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(m.Content)},
		})
	}

	req := anthropic.MessagesRequest{
		Model:     anthropic.Model(c.opts.Model),
		Messages:  msgs,
		MaxTokens: c.opts.MaxOutputTokens,
	}
	if len(system) > 0 {
		req.MultiSystem = system
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", wrapAnthropicError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == anthropic.MessagesContentTypeText && block.Text != nil {
			text.WriteString(*block.Text)
		}
	}
	if text.Len() == 0 {
		return "", engine.NewProviderError(ProviderAnthropic.String(), 200, "no text content", engine.ErrEmptyReply)
	}
	return text.String(), nil
}

func wrapAnthropicError(err error) error {
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return engine.NewProviderError(ProviderAnthropic.String(), reqErr.StatusCode, "", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	status, body := extractErrorMetadata(err)
	return engine.NewProviderError(ProviderAnthropic.String(), status, body, fmt.Errorf("anthropic request: %w", err))
}
