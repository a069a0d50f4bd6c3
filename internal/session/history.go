package session

import (
	"strings"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// DefaultHistoryWindow is how many trailing messages go into previous_chat.
const DefaultHistoryWindow = 10

// RenderHistory renders the last limit non-system messages as
// "role: content" lines, oldest first. limit <= 0 renders everything.
func RenderHistory(messages []engine.ChatMessage, limit int) string {
	convo := make([]engine.ChatMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == engine.RoleSystem {
			continue
		}
		convo = append(convo, m)
	}
	if limit > 0 && len(convo) > limit {
		convo = convo[len(convo)-limit:]
	}

	var b strings.Builder
	for i, m := range convo {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}
