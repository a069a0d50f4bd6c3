// Package prompts resolves which persona answers a chat turn and renders its
// template with the session variables.
package prompts

import "github.com/ChamsBouzaiene/skyfinder/internal/engine"

// Persona identifies a conversational role.
type Persona string

const (
	// PersonaStation is the default: a crew member aboard the station.
	PersonaStation Persona = "station"
	// PersonaAlien is unlocked only when the secret target is locked.
	PersonaAlien Persona = "alien"
)

// FallbackPersonaText is used whenever a template cannot be read.
const FallbackPersonaText = "You are a staff member on the ISS."

// Template variable names understood by every persona.
const (
	VarDate         = "date"
	VarUserMessage  = "user_message"
	VarPreviousChat = "previous_chat"
)

// ResolvePersona picks the persona for a target.
func ResolvePersona(t engine.Target) Persona {
	switch t {
	case engine.TargetAlien:
		return PersonaAlien
	default:
		return PersonaStation
	}
}

// Definition describes where a persona's template lives.
type Definition struct {
	Persona     Persona
	Path        string // template file, re-read on every use
	Fallback    string // returned when Path cannot be read
	Description string
}
