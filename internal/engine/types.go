package engine

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// DefaultMaxOutputTokens caps every provider reply. Sent on every call.
const DefaultMaxOutputTokens = 200

// ChatMessage is the provider-agnostic message we pass around.
type ChatMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Validate checks if the ChatMessage is valid.
func (m ChatMessage) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	return nil
}

// Gateway turns a conversation into the next assistant reply.
// Implementations live in internal/providers; one is chosen at process start.
type Gateway interface {
	GenerateReply(ctx context.Context, history []ChatMessage) (string, error)
}

// GatewayFunc adapts a plain function to Gateway.
type GatewayFunc func(ctx context.Context, history []ChatMessage) (string, error)

// GenerateReply implements Gateway.
func (f GatewayFunc) GenerateReply(ctx context.Context, history []ChatMessage) (string, error) {
	return f(ctx, history)
}

// ChatOptions keeps knobs forwarded to the provider SDKs.
type ChatOptions struct {
	Model           string
	MaxOutputTokens int
}

// WithDefaults fills unset fields.
func (o ChatOptions) WithDefaults() ChatOptions {
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return o
}
