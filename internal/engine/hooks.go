// engine/hooks.go
package engine

import (
	"context"
	"time"
)

// Hook observes chat turns. Calls happen while the turn lock is held, so
// implementations must not run turns themselves.
type Hook interface {
	OnTurnStart(ctx context.Context, turn Turn)
	OnBeforeGateway(ctx context.Context, turn Turn, messages []ChatMessage)
	OnTurnDone(ctx context.Context, turn Turn, reply Reply, err error, elapsed time.Duration)
}

// NopHook lets you implement any hook you need.
type NopHook struct{}

func (NopHook) OnTurnStart(context.Context, Turn)                              {}
func (NopHook) OnBeforeGateway(context.Context, Turn, []ChatMessage)           {}
func (NopHook) OnTurnDone(context.Context, Turn, Reply, error, time.Duration) {}
