package engine

import (
	"context"
	"time"
)

type Hooks []Hook

func (hs Hooks) OnTurnStart(ctx context.Context, turn Turn) {
	for _, h := range hs {
		h.OnTurnStart(ctx, turn)
	}
}
func (hs Hooks) OnBeforeGateway(ctx context.Context, turn Turn, m []ChatMessage) {
	for _, h := range hs {
		h.OnBeforeGateway(ctx, turn, m)
	}
}
func (hs Hooks) OnTurnDone(ctx context.Context, turn Turn, r Reply, err error, elapsed time.Duration) {
	for _, h := range hs {
		h.OnTurnDone(ctx, turn, r, err, elapsed)
	}
}
