package engine

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DegradedReply is what players see when the provider could not answer.
const DegradedReply = "通信障害が発生しました... 再送してください..."

// History is the session surface the pipeline mutates.
type History interface {
	ReplaceSystemTurn(text string)
	AppendUserTurn(text string)
	AppendAssistantTurn(text string)
	Snapshot() []ChatMessage
}

// PersonaRenderer renders the system prompt for a turn.
type PersonaRenderer interface {
	RenderPersona(target Target, userMessage string, history []ChatMessage) string
}

// Turn is one user message and the target it was sent under.
type Turn struct {
	Text   string
	Target Target
}

// Reply is the outcome of a turn.
type Reply struct {
	Text     string
	Degraded bool
}

// Pipeline runs chat turns: persona render, provider call, session update.
type Pipeline struct {
	personas PersonaRenderer
	gateway  Gateway
	history  History
	logger   *zap.Logger
	hooks    Hooks

	// turnMu keeps each user message adjacent to its own reply.
	turnMu sync.Mutex
}

// NewPipeline wires a pipeline.
func NewPipeline(personas PersonaRenderer, gateway Gateway, history History, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		personas: personas,
		gateway:  gateway,
		history:  history,
		logger:   logger,
	}
}

// Use adds hooks. Call it before the first turn.
func (p *Pipeline) Use(hooks ...Hook) {
	p.hooks = append(p.hooks, hooks...)
}

// Run executes one turn. A blank message is a ValidationError and leaves the
// session untouched. A provider failure is not fatal: the degraded reply is
// recorded and returned together with the underlying error.
func (p *Pipeline) Run(ctx context.Context, turn Turn) (Reply, error) {
	text := strings.TrimSpace(turn.Text)
	if text == "" {
		return Reply{}, &ValidationError{Field: "message", Msg: "Message is required"}
	}
	if turn.Target == "" {
		turn.Target = TargetISS
	}

	p.turnMu.Lock()
	defer p.turnMu.Unlock()

	start := time.Now()
	turn.Text = text
	p.hooks.OnTurnStart(ctx, turn)

	system := p.personas.RenderPersona(turn.Target, text, p.history.Snapshot())
	p.history.ReplaceSystemTurn(system)
	p.history.AppendUserTurn(text)

	messages := p.history.Snapshot()
	p.hooks.OnBeforeGateway(ctx, turn, messages)
	reply, err := p.gateway.GenerateReply(ctx, messages)
	if err == nil && strings.TrimSpace(reply) == "" {
		err = NewProviderError("gateway", 0, "", ErrEmptyReply)
	}
	if err != nil {
		p.logger.Error("chat turn failed",
			zap.String("target", turn.Target.String()),
			zap.Error(err))
		p.history.AppendAssistantTurn(DegradedReply)
		out := Reply{Text: DegradedReply, Degraded: true}
		p.hooks.OnTurnDone(ctx, turn, out, err, time.Since(start))
		return out, err
	}

	p.history.AppendAssistantTurn(reply)
	out := Reply{Text: reply}
	p.hooks.OnTurnDone(ctx, turn, out, nil, time.Since(start))
	return out, nil
}
