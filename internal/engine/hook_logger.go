// engine/hook_logger.go
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// LoggerHook writes one debug line per gateway call and one info line per
// finished turn.
type LoggerHook struct{ L *zap.Logger }

func (h LoggerHook) OnTurnStart(context.Context, Turn) {}

func (h LoggerHook) OnBeforeGateway(_ context.Context, turn Turn, msgs []ChatMessage) {
	chars := 0
	for _, m := range msgs {
		chars += len(m.Content)
	}
	h.L.Debug("sending conversation",
		zap.String("target", turn.Target.String()),
		zap.Int("messages", len(msgs)),
		zap.Int("chars", chars))
}

func (h LoggerHook) OnTurnDone(_ context.Context, turn Turn, r Reply, err error, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("target", turn.Target.String()),
		zap.Bool("degraded", r.Degraded),
		zap.Duration("elapsed", elapsed),
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	h.L.Info("turn done", fields...)
}
