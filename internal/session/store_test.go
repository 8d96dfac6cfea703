package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// storeUnderTest runs the shared Store contract against an implementation.
func storeUnderTest(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	c, err := store.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, c.SessionID)

	// Unknown session id.
	_, err = store.Get(ctx, "nope")
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Round trip a context update.
	updated := c.WithTurn(Turn{Role: RoleUser, Content: "hi"}).WithScore(35)
	require.NoError(t, store.Save(ctx, updated))

	got, err := store.Get(ctx, c.SessionID)
	require.NoError(t, err)
	require.Equal(t, 35, got.LeadScore)
	require.Len(t, got.History, 1)

	// Voice state is created lazily and independently.
	v, err := store.GetVoice(ctx, c.SessionID)
	require.NoError(t, err)
	require.Nil(t, v)

	vs := NewVoiceState(c.SessionID, "voice-a").WithEnqueued("https://audio/a.mp3")
	require.NoError(t, store.SaveVoice(ctx, vs))

	v, err = store.GetVoice(ctx, c.SessionID)
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, []string{"https://audio/a.mp3"}, v.AudioQueue)

	// Delete removes both.
	require.NoError(t, store.Delete(ctx, c.SessionID))
	_, err = store.Get(ctx, c.SessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
	v, err = store.GetVoice(ctx, c.SessionID)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestMemoryStoreContract(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestRedisStoreContract(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	storeUnderTest(t, NewRedisStore(rdb, time.Hour))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c, err := store.Create(ctx)
	require.NoError(t, err)

	got, err := store.Get(ctx, c.SessionID)
	require.NoError(t, err)
	got.LeadScore = 99

	again, err := store.Get(ctx, c.SessionID)
	require.NoError(t, err)
	require.Equal(t, 0, again.LeadScore, "caller mutation leaked into store")
}

func TestRedisStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, time.Minute)
	ctx := context.Background()

	c, err := store.Create(ctx)
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Get(ctx, c.SessionID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
