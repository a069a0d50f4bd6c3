package prompts

import (
	"time"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/session"
)

// PromptBuilder renders persona templates with the session variables.
type PromptBuilder struct {
	registry      *Registry
	historyWindow int
	now           func() time.Time
	variables     map[string]string
}

// NewPromptBuilder creates a builder over registry. historyWindow bounds how
// many past messages go into previous_chat.
func NewPromptBuilder(registry *Registry, historyWindow int) *PromptBuilder {
	if historyWindow <= 0 {
		historyWindow = session.DefaultHistoryWindow
	}
	return &PromptBuilder{
		registry:      registry,
		historyWindow: historyWindow,
		now:           time.Now,
		variables:     make(map[string]string),
	}
}

// SetVariable adds a fixed variable available to every render. Session
// variables of the same name take precedence.
func (b *PromptBuilder) SetVariable(key, value string) *PromptBuilder {
	b.variables[key] = value
	return b
}

// Variables builds the variable set for one turn.
func (b *PromptBuilder) Variables(userMessage string, history []engine.ChatMessage) map[string]string {
	vars := make(map[string]string, len(b.variables)+3)
	for k, v := range b.variables {
		vars[k] = v
	}
	vars[VarDate] = b.now().Format("2006-01-02")
	vars[VarUserMessage] = userMessage
	vars[VarPreviousChat] = session.RenderHistory(history, b.historyWindow)
	return vars
}

// RenderPersona loads the template for target from disk and renders it.
func (b *PromptBuilder) RenderPersona(target engine.Target, userMessage string, history []engine.ChatMessage) string {
	src := b.registry.Load(ResolvePersona(target))
	return Render(src, b.Variables(userMessage, history))
}
