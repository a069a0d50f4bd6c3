package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
)

func TestReplaceSystemTurnKeepsIndexZero(t *testing.T) {
	store := NewStore()
	store.AppendUserTurn("hello")
	store.ReplaceSystemTurn("persona v1")

	for i := 0; i < 5; i++ {
		store.ReplaceSystemTurn(fmt.Sprintf("persona v%d", i+2))
		store.AppendUserTurn("q")
		store.AppendAssistantTurn("a")
	}

	snap := store.Snapshot()
	require.Equal(t, engine.RoleSystem, snap[0].Role)
	assert.Equal(t, "persona v6", snap[0].Content)
	assert.Equal(t, "hello", snap[1].Content)

	systems := 0
	for _, m := range snap {
		if m.Role == engine.RoleSystem {
			systems++
		}
	}
	assert.Equal(t, 1, systems)
}

func TestStoreGrowsByTwoPerTurn(t *testing.T) {
	store := NewStore(
		engine.ChatMessage{Role: engine.RoleSystem, Content: "seed"},
		engine.ChatMessage{Role: engine.RoleAssistant, Content: "greeting"},
	)
	before := store.Len()

	store.ReplaceSystemTurn("fresh")
	store.AppendUserTurn("where is it?")
	store.AppendAssistantTurn("look up")

	assert.Equal(t, before+2, store.Len())
}

func TestSnapshotIsACopy(t *testing.T) {
	store := NewStore()
	store.AppendUserTurn("one")

	snap := store.Snapshot()
	snap[0].Content = "mutated"

	assert.Equal(t, "one", store.Snapshot()[0].Content)
}

func TestStoreConcurrentAppends(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.ReplaceSystemTurn("sys")
			store.AppendUserTurn("u")
			store.AppendAssistantTurn("a")
		}()
	}
	wg.Wait()

	snap := store.Snapshot()
	require.Len(t, snap, 101)
	assert.Equal(t, engine.RoleSystem, snap[0].Role)
}

func TestAlignmentState(t *testing.T) {
	store := NewStore()
	assert.False(t, store.Alignment().Aligned)
	assert.Nil(t, store.Alignment().Locks)

	store.SetAlignment("a", "alien", true)
	st := store.Alignment()
	assert.Equal(t, "alien", st.TargetID)
	assert.True(t, st.Aligned)
	assert.False(t, st.UpdatedAt.IsZero())
	assert.Equal(t, map[string]int{"alien": 1}, st.Locks)
}

func TestChatTargetFollowsAlignment(t *testing.T) {
	store := NewStore()
	assert.Equal(t, engine.TargetISS, store.Alignment().ChatTarget())

	store.SetAlignment("a", "alien", true)
	assert.Equal(t, engine.TargetAlien, store.Alignment().ChatTarget())

	store.SetAlignment("a", "alien", false)
	assert.Equal(t, engine.TargetISS, store.Alignment().ChatTarget())

	store.SetAlignment("a", "iss", true)
	assert.Equal(t, engine.TargetISS, store.Alignment().ChatTarget())
}

func TestChatTargetHoldsWhileAnyClientLocked(t *testing.T) {
	store := NewStore()

	store.SetAlignment("a", "alien", true)
	store.SetAlignment("b", "iss", true)
	store.SetAlignment("b", "iss", false)

	st := store.Alignment()
	assert.Equal(t, "iss", st.TargetID)
	assert.False(t, st.Aligned)
	assert.Equal(t, engine.TargetAlien, st.ChatTarget())

	// another client leaving the alien does not release a's lock
	store.SetAlignment("b", "alien", false)
	assert.Equal(t, engine.TargetAlien, store.Alignment().ChatTarget())

	store.ForgetClient("a")
	assert.Equal(t, engine.TargetISS, store.Alignment().ChatTarget())
	assert.Nil(t, store.Alignment().Locks)
}
