package engine

import "strings"

// Target selects what the player is looking for, and with it which persona
// answers the chat.
type Target string

const (
	TargetISS   Target = "iss"
	TargetAlien Target = "alien"
)

// ParseTarget validates a wire value. The empty string is not a target;
// callers decide the default.
func ParseTarget(s string) (Target, error) {
	switch Target(strings.ToLower(strings.TrimSpace(s))) {
	case TargetISS:
		return TargetISS, nil
	case TargetAlien:
		return TargetAlien, nil
	}
	return "", &ValidationError{Field: "target", Msg: "unknown target " + `"` + s + `"`}
}

// String implements fmt.Stringer.
func (t Target) String() string { return string(t) }
