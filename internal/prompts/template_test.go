package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderSubstitutesEveryOccurrence(t *testing.T) {
	out := Render("{{date}}: {{ user_message }} / {{date}}", map[string]string{
		"date":         "2026-10-19",
		"user_message": "hello",
	})
	assert.Equal(t, "2026-10-19: hello / 2026-10-19", out)
}

func TestRenderMissingVariableIsEmpty(t *testing.T) {
	assert.Equal(t, "chat: []", Render("chat: [{{previous_chat}}]", nil))
}

func TestRenderIgnoresExtraneousVariables(t *testing.T) {
	src := "Today is {{date}}. {{user_message}}"
	base := map[string]string{"date": "d", "user_message": "m"}
	extra := map[string]string{"date": "d", "user_message": "m", "unrelated": "x", "date_extra": "y"}
	assert.Equal(t, Render(src, base), Render(src, extra))
}

func TestRenderOverlappingNames(t *testing.T) {
	out := Render("{{user}}|{{user_message}}", map[string]string{
		"user":         "U",
		"user_message": "M",
	})
	assert.Equal(t, "U|M", out)
}

func TestRenderDoesNotRescanValues(t *testing.T) {
	out := Render("says: {{user_message}}", map[string]string{
		"user_message": "{{date}}",
		"date":         "LEAK",
	})
	assert.Equal(t, "says: {{date}}", out)
}

func TestParseLiteralBraces(t *testing.T) {
	tpl := Parse("a {{ not valid }} b {{ unclosed")
	assert.Empty(t, tpl.Placeholders())
	assert.Equal(t, "a {{ not valid }} b {{ unclosed", tpl.Render(map[string]string{"not": "x"}))
}

func TestPlaceholdersInOrder(t *testing.T) {
	tpl := Parse("{{b}} {{a}} {{b}} {{c1}}")
	assert.Equal(t, []string{"b", "a", "c1"}, tpl.Placeholders())
}
