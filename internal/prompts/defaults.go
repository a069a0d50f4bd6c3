package prompts

import "go.uber.org/zap"

// alienFallback keeps the secret persona recognisable even without its file.
const alienFallback = `You are an alien drifting near the station. The player has just found you
in the sky. Answer briefly, mysteriously, and never admit you are an AI.`

// DefaultDefinitions returns the two built-in personas bound to their
// template files.
func DefaultDefinitions(stationPath, alienPath string) []Definition {
	return []Definition{
		{
			Persona:     PersonaStation,
			Path:        stationPath,
			Fallback:    FallbackPersonaText,
			Description: "crew member aboard the ISS",
		},
		{
			Persona:     PersonaAlien,
			Path:        alienPath,
			Fallback:    alienFallback,
			Description: "secret persona unlocked by the hidden target",
		},
	}
}

// NewDefaultRegistry registers both built-in personas.
func NewDefaultRegistry(stationPath, alienPath string, logger *zap.Logger) *Registry {
	r := NewRegistry(logger)
	for _, d := range DefaultDefinitions(stationPath, alienPath) {
		r.Register(d)
	}
	return r
}
