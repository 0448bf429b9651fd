package proposal_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/proposal"
)

func newRedisStore(t *testing.T, ttl time.Duration) (*proposal.RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := proposal.NewRedisStore(proposal.NewRedisClient(mr.Addr(), "", 0), ttl)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStore_PutGetDelete(t *testing.T) {
	store, mr := newRedisStore(t, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleProposal("p1")))
	assert.True(t, mr.Exists("proposal:p1"))
	assert.Equal(t, 30*time.Minute, mr.TTL("proposal:p1"))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, sampleProposal("p1").Commands, got.Commands)
	assert.Equal(t, int64(7), got.UserID)
	assert.True(t, sampleProposal("p1").CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, store.Delete(ctx, "p1"))
	_, err = store.Get(ctx, "p1")
	assert.ErrorIs(t, err, proposal.ErrNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleProposal("p")))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "p")
	assert.ErrorIs(t, err, proposal.ErrNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set("proposal:bad", "not json"))

	_, err := store.Get(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, proposal.ErrNotFound)
}

func TestRedisStore_Ping(t *testing.T) {
	store, _ := newRedisStore(t, time.Minute)
	assert.NoError(t, store.Ping(context.Background()))
}
