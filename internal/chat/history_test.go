package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_AppendAndSnapshot(t *testing.T) {
	h := NewHistory(20, "arch-chan")

	h.Append(NewTurn(RoleUser, "hola"))
	h.Append(NewTurn(RoleAssistant, "¡Hola!"))

	snap := h.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, RoleUser, snap[0].Role)
	assert.Equal(t, "hola", snap[0].Content)
	assert.Equal(t, RoleAssistant, snap[1].Role)
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := NewHistory(20, "arch-chan")
	h.Append(NewTurn(RoleUser, "first"))

	snap := h.Snapshot()
	snap[0].Content = "mutated"

	assert.Equal(t, "first", h.Snapshot()[0].Content)
}

func TestHistory_FIFOEviction(t *testing.T) {
	// 25 exchanges with max_history=20 caps at 40 turns, oldest evicted first
	h := NewHistory(20, "arch-chan")

	for i := 1; i <= 25; i++ {
		h.Append(NewTurn(RoleUser, fmt.Sprintf("user %d", i)))
		h.Append(NewTurn(RoleAssistant, fmt.Sprintf("assistant %d", i)))
	}

	snap := h.Snapshot()
	require.Len(t, snap, 40)
	// Exchanges 1-5 are gone; the window starts at exchange 6
	assert.Equal(t, "user 6", snap[0].Content)
	assert.Equal(t, "assistant 25", snap[39].Content)
}

func TestHistory_BoundHoldsAfterEveryAppend(t *testing.T) {
	h := NewHistory(3, "arch-chan")

	for i := 0; i < 50; i++ {
		h.Append(NewTurn(RoleUser, "x"))
		assert.LessOrEqual(t, h.Len(), 6)
	}
}

func TestHistory_AppendAllIsAtomic(t *testing.T) {
	h := NewHistory(2, "arch-chan")

	h.AppendAll(
		NewTurn(RoleUser, "run it"),
		NewTurn(RoleTool, "exit 0"),
		NewTurn(RoleAssistant, "done"),
	)

	snap := h.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, RoleTool, snap[1].Role)
}

func TestHistory_AppendAllEvictsPastBound(t *testing.T) {
	h := NewHistory(1, "arch-chan")

	h.AppendAll(
		NewTurn(RoleUser, "a"),
		NewTurn(RoleAssistant, "b"),
		NewTurn(RoleUser, "c"),
	)

	snap := h.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "b", snap[0].Content)
	assert.Equal(t, "c", snap[1].Content)
}

func TestHistory_Clear(t *testing.T) {
	h := NewHistory(20, "arch-chan")
	h.Append(NewTurn(RoleUser, "hola"))

	h.Clear()

	assert.Zero(t, h.Len())
}

func TestHistory_ModelSelection(t *testing.T) {
	h := NewHistory(20, "arch-chan")
	assert.Equal(t, "arch-chan", h.Model())

	h.SetModel("arch-chan-lite")
	assert.Equal(t, "arch-chan-lite", h.Model())
}

func TestHistory_ConcurrentReadersDoNotRace(t *testing.T) {
	h := NewHistory(10, "arch-chan")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			h.Append(NewTurn(RoleUser, "msg"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			snap := h.Snapshot()
			assert.LessOrEqual(t, len(snap), 20)
		}
	}()
	wg.Wait()
}
