package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/session"
)

// ChatRunner executes one chat turn. *engine.Pipeline implements it.
type ChatRunner interface {
	Run(ctx context.Context, turn engine.Turn) (engine.Reply, error)
}

// AlignmentSource exposes the last alignment, used to pick a target for
// chat messages that did not name one.
type AlignmentSource interface {
	Alignment() session.AlignmentState
}

// Options tunes a Hub. Zero values pick the defaults.
type Options struct {
	SendBuffer     int
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	MaxMessageSize int64
	CheckOrigin    func(r *http.Request) bool
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 64
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.PongTimeout <= 0 {
		o.PongTimeout = 60 * time.Second
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = 16 << 10
	}
	if o.CheckOrigin == nil {
		o.CheckOrigin = func(*http.Request) bool { return true }
	}
	return o
}

// Hub owns every websocket connection and routes events between them.
type Hub struct {
	chat      ChatRunner
	monitor   *Monitor
	alignment AlignmentSource
	logger    *zap.Logger
	opts      Options
	upgrader  websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool

	// turns run on ctx rather than the sender's connection so a reply still
	// reaches the remaining clients after the sender left.
	ctx    context.Context
	cancel context.CancelFunc
	turns  sync.WaitGroup
	pumps  sync.WaitGroup
}

// NewHub creates a hub. monitor and alignment may be nil.
func NewHub(chat ChatRunner, monitor *Monitor, alignment AlignmentSource, logger *zap.Logger, opts Options) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		chat:      chat,
		monitor:   monitor,
		alignment: alignment,
		logger:    logger,
		opts:      opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.CheckOrigin,
		},
		clients: make(map[string]*Client),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := newClient(uuid.NewString(), h, conn)
	if !h.register(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	go c.writePump()
	c.readPump()
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	h.pumps.Add(2) // one per pump
	h.logger.Info("client connected", zap.String("client", c.id), zap.Int("clients", len(h.clients)))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
		h.logger.Info("client disconnected", zap.String("client", c.id), zap.Int("clients", len(h.clients)))
	}
	h.mu.Unlock()

	if h.monitor != nil {
		h.monitor.Forget(c.id)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast queues msg for every client except the one named by except.
// A client whose queue is full misses the message.
func (h *Hub) broadcast(msg []byte, except string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		if id == except {
			continue
		}
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping message due to full buffer", zap.String("client", id))
		}
	}
}

// Broadcast sends an event to every client.
func (h *Hub) Broadcast(event EventType, payload any) {
	msg, err := Encode(event, payload)
	if err != nil {
		h.logger.Error("encode broadcast", zap.String("event", string(event)), zap.Error(err))
		return
	}
	h.broadcast(msg, "")
}

// BroadcastChat shows one chat line to every client.
func (h *Hub) BroadcastChat(text string, role ChatRole) {
	h.Broadcast(EventChatBroadcast, ChatBroadcastPayload{Text: text, Role: role})
}

// dispatch handles one inbound frame. Invalid frames are logged and dropped;
// the connection stays open.
func (h *Hub) dispatch(c *Client, data []byte) {
	env, err := DecodeEnvelope(data)
	if err != nil {
		h.logger.Warn("dropping invalid event", zap.String("client", c.id), zap.Error(err))
		return
	}

	switch env.Event {
	case EventSensor:
		h.handleSensor(c, env.Data)
	case EventChatMessage:
		h.handleChat(c, env.Data)
	}
}

func (h *Hub) handleSensor(c *Client, data json.RawMessage) {
	msg, err := EncodeRaw(EventSensorUpdate, data)
	if err != nil {
		h.logger.Error("encode sensor_update", zap.Error(err))
		return
	}
	h.broadcast(msg, c.id)

	if h.monitor == nil {
		return
	}
	o, ok := DecodeOrientation(data)
	if !ok {
		return
	}
	for _, tr := range h.monitor.Observe(c.id, o) {
		h.Broadcast(EventAlignmentUpdate, AlignmentPayload{Target: tr.TargetID, Aligned: tr.Aligned})
	}
}

func (h *Hub) handleChat(c *Client, data json.RawMessage) {
	var p ChatMessagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		h.logger.Warn("dropping chat_message", zap.String("client", c.id), zap.Error(err))
		return
	}

	target, err := h.resolveTarget(p.Target)
	if err != nil {
		h.logger.Warn("dropping chat_message", zap.String("client", c.id), zap.Error(err))
		return
	}

	h.BroadcastChat(p.Text, ChatRoleUser)
	h.RunTurn(engine.Turn{Text: p.Text, Target: target})
}

// RunTurn runs a chat turn in the background and broadcasts the outcome.
// Turns still pending at Close are canceled and waited for.
func (h *Hub) RunTurn(turn engine.Turn) {
	h.mu.RLock()
	closed := h.closed
	if !closed {
		h.turns.Add(1)
	}
	h.mu.RUnlock()
	if closed {
		return
	}

	go func() {
		defer h.turns.Done()

		reply, err := h.chat.Run(h.ctx, turn)
		switch {
		case err == nil:
			h.BroadcastChat(reply.Text, ChatRoleBot)
		case reply.Degraded:
			h.logger.Warn("chat turn degraded", zap.Error(err))
			h.BroadcastChat(reply.Text, ChatRoleSystem)
		default:
			h.logger.Warn("chat turn rejected", zap.Error(err))
		}
	}()
}

func (h *Hub) resolveTarget(raw string) (engine.Target, error) {
	if raw != "" {
		return engine.ParseTarget(raw)
	}
	if h.alignment != nil {
		return h.alignment.Alignment().ChatTarget(), nil
	}
	return engine.TargetISS, nil
}

// Close stops accepting connections, cancels pending turns, disconnects
// every client and waits for their goroutines.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.turns.Wait()

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
	h.pumps.Wait()
}
