package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

func TestRenderHistory(t *testing.T) {
	history := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: "persona"},
		{Role: engine.RoleUser, Content: "hi"},
		{Role: engine.RoleAssistant, Content: "hello"},
		{Role: engine.RoleUser, Content: "where?"},
	}

	assert.Equal(t, "user: hi\nassistant: hello\nuser: where?", RenderHistory(history, 0))
	assert.Equal(t, "assistant: hello\nuser: where?", RenderHistory(history, 2))
	assert.Equal(t, "", RenderHistory(history[:1], 5))
}
