package geometry

import (
	"math"
	"sync"
)

// DefaultThreshold is the maximum angular error, in degrees, on both axes
// for a device to count as pointing at a target.
const DefaultThreshold = 20.0

// DefaultPosition is used whenever a target has no usable coordinates yet,
// e.g. before the live feed answered for the first time.
var DefaultPosition = Angles{Alpha: 180, Beta: 45}

// Target is something in the sky the player can look for. A target is
// either positioned geographically (Position) or at a fixed angular spot
// (Fixed). Position wins when both are set.
type Target struct {
	ID       string  `json:"id"`
	Position *LatLon `json:"position,omitempty"`
	Fixed    *Angles `json:"fixed,omitempty"`
}

// Angles returns where the target sits in the sky. It never fails: a target
// without coordinates resolves to DefaultPosition.
func (t Target) Angles() Angles {
	switch {
	case t.Position != nil && finite(t.Position.Latitude) && finite(t.Position.Longitude):
		return FromLatLon(*t.Position)
	case t.Fixed != nil && finite(t.Fixed.Alpha) && finite(t.Fixed.Beta):
		return Angles{Alpha: NormalizeAlpha(t.Fixed.Alpha), Beta: t.Fixed.Beta}
	default:
		return DefaultPosition
	}
}

// Aligned reports whether current lies within threshold of target on both axes.
func Aligned(target, current Angles, threshold float64) bool {
	return AngularDiff(target.Alpha, current.Alpha) < threshold &&
		math.Abs(target.Beta-current.Beta) < threshold
}

// Evaluation is the outcome of comparing one orientation sample to a target.
type Evaluation struct {
	TargetID   string  `json:"targetId"`
	Aligned    bool    `json:"aligned"`
	Target     Angles  `json:"target"`
	Current    Angles  `json:"current"`
	AlphaError float64 `json:"alphaError"`
	BetaError  float64 `json:"betaError"`
}

// Evaluate compares an orientation sample against a target.
func Evaluate(t Target, o Orientation, threshold float64) Evaluation {
	target := t.Angles()
	current := o.Angles()
	return Evaluation{
		TargetID:   t.ID,
		Aligned:    Aligned(target, current, threshold),
		Target:     target,
		Current:    current,
		AlphaError: AngularDiff(target.Alpha, current.Alpha),
		BetaError:  math.Abs(target.Beta - current.Beta),
	}
}

// Transition is a change of the aligned flag.
type Transition struct {
	TargetID string
	Aligned  bool
}

// Tracker turns a stream of aligned booleans into edge events. The initial
// state is "not aligned", so a leading run of false values is silent.
type Tracker struct {
	mu       sync.Mutex
	targetID string
	aligned  bool
}

// NewTracker creates a tracker for one target.
func NewTracker(targetID string) *Tracker {
	return &Tracker{targetID: targetID}
}

// Observe records the latest evaluation and reports a transition only when
// the flag flipped.
func (t *Tracker) Observe(aligned bool) (Transition, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if aligned == t.aligned {
		return Transition{}, false
	}
	t.aligned = aligned
	return Transition{TargetID: t.targetID, Aligned: aligned}, true
}

// Aligned returns the last observed state.
func (t *Tracker) Aligned() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aligned
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
