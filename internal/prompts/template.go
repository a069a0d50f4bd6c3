package prompts

import (
	"strings"
)

// Template is a parsed persona template. Placeholders look like {{name}};
// names are letters, digits and underscores and may be padded with spaces.
// Anything that does not parse as a placeholder is literal text.
type Template struct {
	segments []segment
	names    []string
}

type segment struct {
	text        string
	placeholder bool
}

// Parse splits src into literal and placeholder segments.
func Parse(src string) *Template {
	t := &Template{}
	seen := make(map[string]bool)

	var lit strings.Builder
	for i := 0; i < len(src); {
		if strings.HasPrefix(src[i:], "{{") {
			if end := strings.Index(src[i+2:], "}}"); end >= 0 {
				name := strings.TrimSpace(src[i+2 : i+2+end])
				if validName(name) {
					if lit.Len() > 0 {
						t.segments = append(t.segments, segment{text: lit.String()})
						lit.Reset()
					}
					t.segments = append(t.segments, segment{text: name, placeholder: true})
					if !seen[name] {
						seen[name] = true
						t.names = append(t.names, name)
					}
					i += 2 + end + 2
					continue
				}
			}
		}
		lit.WriteByte(src[i])
		i++
	}
	if lit.Len() > 0 {
		t.segments = append(t.segments, segment{text: lit.String()})
	}
	return t
}

// Placeholders returns the declared placeholder names in order of first use.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Render substitutes vars in a single ordered pass. Missing variables render
// as "", unknown ones are ignored, and substituted values are not rescanned.
func (t *Template) Render(vars map[string]string) string {
	var b strings.Builder
	for _, s := range t.segments {
		if s.placeholder {
			b.WriteString(vars[s.text])
			continue
		}
		b.WriteString(s.text)
	}
	return b.String()
}

// Render parses and renders src in one call.
func Render(src string, vars map[string]string) string {
	return Parse(src).Render(vars)
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
