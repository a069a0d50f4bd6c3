package providers

import "github.com/ChamsBouzaiene/skyfinder/internal/engine"

// splitSystem separates the instruction text from the conversation for
// two-role APIs, which expect the first turn to come from the user. System
// messages and assistant turns seen before the first user turn (the seeded
// greeting) become instruction text; empty ones are dropped.
func splitSystem(history []engine.ChatMessage) (system []string, turns []engine.ChatMessage) {
	for _, m := range history {
		switch {
		case m.Role == engine.RoleSystem,
			m.Role == engine.RoleAssistant && len(turns) == 0:
			if m.Content != "" {
				system = append(system, m.Content)
			}
		default:
			turns = append(turns, m)
		}
	}
	return system, turns
}
