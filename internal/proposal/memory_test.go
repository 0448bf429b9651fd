package proposal_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/studyflash/internal/deckedit"
	"github.com/vytor/studyflash/internal/proposal"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func sampleProposal(id string) *proposal.Proposal {
	return &proposal.Proposal{
		ID:     id,
		UserID: 7,
		Commands: []deckedit.RawCommand{
			{Name: deckedit.DeleteCard, Arguments: json.RawMessage(`{"id":"1"}`)},
		},
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestMemoryStore_PutGetDelete(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := proposal.NewMemoryStore(time.Minute, time.Hour)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleProposal("p1")))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, sampleProposal("p1"), got)

	require.NoError(t, store.Delete(ctx, "p1"))
	_, err = store.Get(ctx, "p1")
	assert.ErrorIs(t, err, proposal.ErrNotFound)

	_, err = store.Get(ctx, "never")
	assert.ErrorIs(t, err, proposal.ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	clock := &fakeClock{now: time.Unix(1000, 0)}
	store := proposal.NewMemoryStore(30*time.Minute, time.Hour, proposal.WithClock(clock.Now))
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleProposal("a")))
	require.NoError(t, store.Put(ctx, sampleProposal("b")))

	clock.Advance(29 * time.Minute)
	_, err := store.Get(ctx, "a")
	require.NoError(t, err)

	clock.Advance(time.Minute)
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, proposal.ErrNotFound)

	assert.Equal(t, 1, store.Len())
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_JanitorSweeps(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := proposal.NewMemoryStore(time.Millisecond, 5*time.Millisecond)
	defer store.Close()

	require.NoError(t, store.Put(context.Background(), sampleProposal("gone")))

	assert.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := proposal.NewMemoryStore(time.Minute, time.Hour)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, sampleProposal("p")))
	got, err := store.Get(ctx, "p")
	require.NoError(t, err)
	got.UserID = 99

	again, err := store.Get(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, int64(7), again.UserID)
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	store := proposal.NewMemoryStore(time.Minute, 0)
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}
