package relay

import (
	"sync"

	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
)

// TargetSource lists the targets to check samples against.
type TargetSource interface {
	Targets() []geometry.Target
}

// AlignmentRecorder stores alignment changes per client.
type AlignmentRecorder interface {
	SetAlignment(clientID, targetID string, aligned bool)
	ForgetClient(clientID string)
}

// Monitor evaluates sensor samples server-side. It keeps one edge tracker
// per (connection, target) pair so each device reports its own flips.
type Monitor struct {
	targets   TargetSource
	threshold float64
	recorder  AlignmentRecorder
	logger    *zap.Logger

	mu       sync.Mutex
	trackers map[string]map[string]*geometry.Tracker
}

// NewMonitor creates a monitor. A non-positive threshold means
// geometry.DefaultThreshold. recorder may be nil.
func NewMonitor(targets TargetSource, threshold float64, recorder AlignmentRecorder, logger *zap.Logger) *Monitor {
	if threshold <= 0 {
		threshold = geometry.DefaultThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		targets:   targets,
		threshold: threshold,
		recorder:  recorder,
		logger:    logger,
		trackers:  make(map[string]map[string]*geometry.Tracker),
	}
}

// Observe evaluates one sample from clientID against every target and
// returns the transitions it caused, in target order.
func (m *Monitor) Observe(clientID string, o geometry.Orientation) []geometry.Transition {
	var out []geometry.Transition
	for _, target := range m.targets.Targets() {
		eval := geometry.Evaluate(target, o, m.threshold)
		tr, ok := m.tracker(clientID, target.ID).Observe(eval.Aligned)
		if !ok {
			continue
		}

		m.logger.Info("alignment changed",
			zap.String("client", clientID),
			zap.String("target", target.ID),
			zap.Bool("aligned", tr.Aligned),
			zap.Float64("alpha_error", eval.AlphaError),
			zap.Float64("beta_error", eval.BetaError))
		if m.recorder != nil {
			m.recorder.SetAlignment(clientID, tr.TargetID, tr.Aligned)
		}
		out = append(out, tr)
	}
	return out
}

func (m *Monitor) tracker(clientID, targetID string) *geometry.Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTarget, ok := m.trackers[clientID]
	if !ok {
		byTarget = make(map[string]*geometry.Tracker)
		m.trackers[clientID] = byTarget
	}
	tr, ok := byTarget[targetID]
	if !ok {
		tr = geometry.NewTracker(targetID)
		byTarget[targetID] = tr
	}
	return tr
}

// Forget drops the trackers and recorded locks of a disconnected client.
func (m *Monitor) Forget(clientID string) {
	m.mu.Lock()
	delete(m.trackers, clientID)
	m.mu.Unlock()

	if m.recorder != nil {
		m.recorder.ForgetClient(clientID)
	}
}

// Tracked returns how many clients currently have trackers.
func (m *Monitor) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackers)
}
