package dialogue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func sampleState() ConversationState {
	return ConversationState{
		Step:          StepCollecting,
		CollectedInfo: Slots{Origin: strPtr("東京"), Budget: intPtr(8000)},
		Messages: []Message{
			{Role: RoleUser, Content: "東京から出発"},
			{Role: RoleAssistant, Content: "ありがとうございます！目的地はどちらですか？"},
		},
		PendingSlot: SlotDestination,
	}
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Hour)

	_, found, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Put(ctx, "abc", sampleState()))
	assert.True(t, mr.Exists(stateKey("abc")))

	got, found, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, sampleState(), got)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, found, err = store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_Expires(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, 30*time.Minute)

	require.NoError(t, store.Put(ctx, "abc", sampleState()))
	mr.FastForward(31 * time.Minute)

	_, found, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t, time.Hour)
	require.NoError(t, mr.Set(stateKey("abc"), "{not json"))

	_, _, err := store.Get(ctx, "abc")
	assert.Error(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	require.NoError(t, store.Put(ctx, "abc", sampleState()))

	got, found, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.True(t, found)
	got.Messages = append(got.Messages, Message{Role: RoleUser, Content: "extra"})
	got.Messages[0].Content = "changed"

	again, _, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sampleState(), again)
}
