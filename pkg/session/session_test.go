package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JxsueMd16/mad-ia/pkg/dialogue"
)

func TestMemoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	msgs := []dialogue.Message{
		dialogue.NewSystemMessage("Eres MAD-IA."),
		dialogue.NewUserMessage("abre youtube"),
		{
			Role:            dialogue.RoleAssistant,
			ToolInvocations: []dialogue.ToolInvocation{{ID: "c1", Name: "open_website", Arguments: `{"website":"youtube"}`}},
		},
		dialogue.NewToolResultMessage("c1", "Abriendo youtube."),
	}
	require.NoError(t, store.Put(ctx, "s1", msgs))

	got, ok, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, msgs, got)
}

func TestMemoryIsolatesCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	msgs := []dialogue.Message{
		dialogue.NewSystemMessage("s"),
		{
			Role:            dialogue.RoleAssistant,
			ToolInvocations: []dialogue.ToolInvocation{{ID: "c1", Name: "get_time", Arguments: "{}"}},
		},
	}
	require.NoError(t, store.Put(ctx, "k", msgs))

	msgs[0].Content = "mutated"
	msgs[1].ToolInvocations[0].Name = "mutated"

	got, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "s", got[0].Content)
	assert.Equal(t, "get_time", got[1].ToolInvocations[0].Name)

	got[0].Content = "mutated again"
	again, _, _ := store.Get(ctx, "k")
	assert.Equal(t, "s", again[0].Content)
}

func TestMemoryEmptyKey(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	_, _, err := store.Get(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
	assert.ErrorIs(t, store.Put(ctx, "", nil), ErrEmptyKey)
}

func TestMemoryCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(WithCapacity(2))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Put(ctx, fmt.Sprintf("s%d", i), []dialogue.Message{dialogue.NewSystemMessage("s")}))
	}

	assert.Equal(t, 2, store.Len())
	_, ok, _ := store.Get(ctx, "s0")
	assert.False(t, ok, "oldest session should be evicted")
}

func TestMemoryTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(WithTTL(20 * time.Millisecond))

	require.NoError(t, store.Put(ctx, "s", []dialogue.Message{dialogue.NewSystemMessage("s")}))
	assert.Eventually(t, func() bool {
		_, ok, _ := store.Get(ctx, "s")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Put(ctx, "s", nil))
	store.Delete("s")
	_, ok, _ := store.Get(ctx, "s")
	assert.False(t, ok)
}
