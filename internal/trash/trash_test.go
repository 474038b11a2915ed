package trash

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RealSpaceofAce/framelord-sub002/internal/models"
)

func TestSoftDeleteAndRestore(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := &models.Note{ID: "n1", SyncVersion: 1}

	require.True(t, SoftDelete(n, now))
	require.NotNil(t, n.DeletedAt)
	assert.True(t, n.DeletedAt.Equal(now))
	assert.Equal(t, int64(2), n.SyncVersion)

	assert.False(t, SoftDelete(n, now.Add(time.Hour)), "second delete is a no-op")
	assert.Equal(t, int64(2), n.SyncVersion)

	require.True(t, Restore(n, now.Add(time.Hour)))
	assert.Nil(t, n.DeletedAt)
	assert.Equal(t, int64(3), n.SyncVersion)
	assert.False(t, Restore(n, now), "restoring a live note is a no-op")
}

func TestExpired_Boundary(t *testing.T) {
	deleted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := &models.Note{DeletedAt: &deleted}
	retention := Days(30)

	assert.False(t, Expired(n, deleted.Add(retention-24*time.Hour), retention))
	assert.True(t, Expired(n, deleted.Add(retention), retention))
	assert.True(t, Expired(n, deleted.Add(retention+time.Second), retention))
	assert.False(t, Expired(&models.Note{}, deleted.Add(10*retention), retention), "live notes never expire")
}

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) AutoPurge() (int, error) {
	p.calls.Add(1)
	return 0, nil
}

func TestSweeper_RunsImmediatelyAndOnTick(t *testing.T) {
	p := &countingPurger{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s := NewSweeper(p, 20*time.Millisecond, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
