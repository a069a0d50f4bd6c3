package session

import (
	"time"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// AlignmentState is the last reported alignment change of any device plus
// how many devices are locked on each target right now.
type AlignmentState struct {
	TargetID  string         `json:"targetId"`
	Aligned   bool           `json:"aligned"`
	UpdatedAt time.Time      `json:"updatedAt"`
	Locks     map[string]int `json:"locks,omitempty"`
}

// ChatTarget picks the persona target for a chat turn that did not name
// one: the alien persona while any device is locked on the alien, else the
// ISS.
func (a AlignmentState) ChatTarget() engine.Target {
	if a.Locks[engine.TargetAlien.String()] > 0 {
		return engine.TargetAlien
	}
	return engine.TargetISS
}
