package prompts

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// Registry maps personas to their template files.
type Registry struct {
	mu       sync.RWMutex
	personas map[Persona]Definition
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		personas: make(map[Persona]Definition),
		logger:   logger,
	}
}

// Register adds or replaces a persona definition.
func (r *Registry) Register(d Definition) {
	if d.Fallback == "" {
		d.Fallback = FallbackPersonaText
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.personas[d.Persona] = d
}

// Get returns the definition of a persona.
func (r *Registry) Get(p Persona) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.personas[p]
	if !ok {
		return Definition{}, fmt.Errorf("persona not found: %s", p)
	}
	return d, nil
}

// TemplatePath returns the template file of the persona chosen for t.
func (r *Registry) TemplatePath(t engine.Target) (string, error) {
	d, err := r.Get(ResolvePersona(t))
	if err != nil {
		return "", err
	}
	return d.Path, nil
}

// Paths returns every registered template path, sorted.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.personas))
	for _, d := range r.personas {
		if d.Path != "" {
			paths = append(paths, d.Path)
		}
	}
	sort.Strings(paths)
	return paths
}

// Load reads the persona's template from disk. It never fails: an unknown
// persona or unreadable file yields the fallback text and the error is
// logged, not returned.
func (r *Registry) Load(p Persona) string {
	d, err := r.Get(p)
	if err != nil {
		r.logger.Warn("unknown persona, using fallback", zap.String("persona", string(p)))
		return FallbackPersonaText
	}

	data, err := os.ReadFile(d.Path)
	if err != nil {
		rerr := &engine.ResourceError{Path: d.Path, Err: err}
		r.logger.Warn("persona template unreadable, using fallback",
			zap.String("persona", string(p)),
			zap.Error(rerr))
		return d.Fallback
	}
	return string(data)
}
