package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhuanyu/Sumeru/internal/store"
	"github.com/lhuanyu/Sumeru/internal/store/memory"
)

func receive(t *testing.T, ch <-chan store.Snapshot) store.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		require.True(t, ok, "channel closed")
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return store.Snapshot{}
}

func TestPublisherDeliversSnapshotAfterEachWrite(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := store.NewPublisher(memory.NewStore(), zerolog.Nop())
	ch := pub.Subscribe(ctx)

	initial := receive(t, ch)
	assert.Equal(t, uint64(0), initial.Version)
	assert.Empty(t, initial.Events)

	e := feeding(base, 30, 30)
	require.NoError(t, pub.Insert(ctx, &e))
	snap := receive(t, ch)
	assert.Equal(t, uint64(1), snap.Version)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, e.ID, snap.Events[0].ID)

	require.NoError(t, pub.Delete(ctx, e.ID))
	snap = receive(t, ch)
	assert.Equal(t, uint64(2), snap.Version)
	assert.Empty(t, snap.Events)
}

func TestPublisherKeepsOnlyLatestForSlowReader(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := store.NewPublisher(memory.NewStore(), zerolog.Nop())
	ch := pub.Subscribe(ctx)

	for i := 0; i < 3; i++ {
		e := diaperEvent(base.Add(time.Duration(i) * time.Minute))
		require.NoError(t, pub.Insert(ctx, &e))
	}
	snap := receive(t, ch)
	assert.Equal(t, uint64(3), snap.Version)
	assert.Len(t, snap.Events, 3)
	assert.Equal(t, uint64(3), pub.Version())
}

func TestPublisherSkipsFailedWrites(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pub := store.NewPublisher(memory.NewStore(), zerolog.Nop())
	ch := pub.Subscribe(ctx)
	_ = receive(t, ch)

	require.ErrorIs(t, pub.Delete(ctx, uuid.New()), store.ErrNotFound)
	assert.Equal(t, uint64(0), pub.Version())
	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot %d", snap.Version)
	default:
	}
}

func TestPublisherClosesChannelOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())

	pub := store.NewPublisher(memory.NewStore(), zerolog.Nop())
	ch := pub.Subscribe(ctx)
	_ = receive(t, ch)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)

	e := diaperEvent(base)
	require.NoError(t, pub.Insert(context.Background(), &e))
}
