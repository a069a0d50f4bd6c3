// Package session holds the one shared game/chat session. Every connected
// client reads and mutates the same Store; there is no per-user isolation.
package session

import (
	"sync"
	"time"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

// Store is the process-wide conversation history plus the alignment state
// of the connected devices. It is safe for concurrent use. History is never
// pruned.
type Store struct {
	mu        sync.Mutex
	history   []engine.ChatMessage
	alignment AlignmentState
	locks     map[string]map[string]struct{} // target -> aligned clients
	now       func() time.Time
}

// NewStore creates a store seeded with an initial history.
func NewStore(seed ...engine.ChatMessage) *Store {
	history := make([]engine.ChatMessage, len(seed))
	copy(history, seed)
	return &Store{history: history, locks: make(map[string]map[string]struct{}), now: time.Now}
}

// AppendUserTurn adds a user message at the tail.
func (s *Store) AppendUserTurn(text string) {
	s.append(engine.RoleUser, text)
}

// AppendAssistantTurn adds an assistant message at the tail.
func (s *Store) AppendAssistantTurn(text string) {
	s.append(engine.RoleAssistant, text)
}

func (s *Store) append(role engine.MessageRole, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, engine.ChatMessage{Role: role, Content: text})
}

// ReplaceSystemTurn sets the system message. It always ends up at index 0:
// an existing system message is overwritten, otherwise one is inserted.
func (s *Store) ReplaceSystemTurn(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg := engine.ChatMessage{Role: engine.RoleSystem, Content: text}
	if len(s.history) > 0 && s.history[0].Role == engine.RoleSystem {
		s.history[0] = msg
		return
	}
	s.history = append([]engine.ChatMessage{msg}, s.history...)
}

// Snapshot returns a copy of the ordered history.
func (s *Store) Snapshot() []engine.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]engine.ChatMessage, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in the history.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// SetAlignment records an alignment change reported by clientID. The last
// change is kept as is; the client's lock on targetID is set or cleared.
func (s *Store) SetAlignment(clientID, targetID string, aligned bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alignment = AlignmentState{TargetID: targetID, Aligned: aligned, UpdatedAt: s.now()}
	clients := s.locks[targetID]
	if aligned {
		if clients == nil {
			clients = make(map[string]struct{})
			s.locks[targetID] = clients
		}
		clients[clientID] = struct{}{}
		return
	}
	delete(clients, clientID)
	if len(clients) == 0 {
		delete(s.locks, targetID)
	}
}

// ForgetClient drops every lock held by clientID.
func (s *Store) ForgetClient(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for targetID, clients := range s.locks {
		delete(clients, clientID)
		if len(clients) == 0 {
			delete(s.locks, targetID)
		}
	}
}

// Alignment returns the last recorded change together with the number of
// clients currently locked on each target.
func (s *Store) Alignment() AlignmentState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.alignment
	if len(s.locks) > 0 {
		st.Locks = make(map[string]int, len(s.locks))
		for targetID, clients := range s.locks {
			st.Locks[targetID] = len(clients)
		}
	}
	return st
}
