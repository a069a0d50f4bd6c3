package satellite

import (
	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
)

// Catalog is the set of targets players can hunt: the live ISS plus any
// targets pinned at a fixed sky position.
type Catalog struct {
	iss   *Tracker
	fixed []geometry.Target
}

// NewCatalog builds a catalog. iss may be nil, in which case the ISS sits
// at the default position.
func NewCatalog(iss *Tracker, fixed ...geometry.Target) *Catalog {
	return &Catalog{iss: iss, fixed: fixed}
}

// NewAlienTarget pins the alien at the given angles.
func NewAlienTarget(alpha, beta float64) geometry.Target {
	return geometry.Target{
		ID:    engine.TargetAlien.String(),
		Fixed: &geometry.Angles{Alpha: alpha, Beta: beta},
	}
}

// Targets returns a snapshot of every target, ISS first.
func (c *Catalog) Targets() []geometry.Target {
	out := make([]geometry.Target, 0, len(c.fixed)+1)
	if c.iss != nil {
		out = append(out, c.iss.Target())
	} else {
		out = append(out, geometry.Target{ID: engine.TargetISS.String()})
	}
	return append(out, c.fixed...)
}

// Live reports whether the target's position comes from a live fix.
func (c *Catalog) Live(id string) bool {
	if id != engine.TargetISS.String() || c.iss == nil {
		return false
	}
	_, ok := c.iss.Position()
	return ok
}
