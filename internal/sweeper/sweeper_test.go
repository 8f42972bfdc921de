package sweeper

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shared-notes/internal/db"
	"shared-notes/internal/models"
)

type recordingStore struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
}

func (r *recordingStore) DeleteTrashedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	if r.err != nil {
		return 0, r.err
	}
	return r.removed, nil
}

func (r *recordingStore) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

type recordingObserver struct {
	removed []int64
	errs    []error
}

func (o *recordingObserver) ObserveSweep(removed int64, err error) {
	o.removed = append(o.removed, removed)
	o.errs = append(o.errs, err)
}

func TestSweep_Cutoff(t *testing.T) {
	store := &recordingStore{removed: 3}
	observer := &recordingObserver{}
	s := New(store, 0, observer)
	assert.Equal(t, DefaultWindow, s.Window())

	now := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	removed, err := s.Sweep(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
	assert.Equal(t, []time.Time{now.Add(-30 * 24 * time.Hour)}, store.cutoffs)
	assert.Equal(t, []int64{3}, observer.removed)
}

func TestSweep_Failure(t *testing.T) {
	boom := errors.New("database is locked")
	store := &recordingStore{err: boom}
	observer := &recordingObserver{}
	s := New(store, time.Hour, observer)

	removed, err := s.Sweep(context.Background(), time.Now())
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, removed)
	require.Len(t, observer.errs, 1)
	assert.ErrorIs(t, observer.errs[0], boom)
}

func TestSweep_AgainstDatabase(t *testing.T) {
	day := 24 * time.Hour
	epoch := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var clock time.Time
	database, err := db.New(filepath.Join(t.TempDir(), "notes.db"), db.WithClock(func() time.Time { return clock }))
	require.NoError(t, err)
	defer database.Close()
	ctx := context.Background()

	clock = epoch
	old, err := database.CreateNote(ctx, "old", "x", false)
	require.NoError(t, err)
	kept, err := database.CreateNote(ctx, "kept", "x", false)
	require.NoError(t, err)

	clock = epoch.Add(69 * day)
	require.NoError(t, database.TrashNote(ctx, old.ID))
	clock = epoch.Add(71 * day)
	require.NoError(t, database.TrashNote(ctx, kept.ID))

	s := New(database, DefaultWindow, nil)
	removed, err := s.Sweep(ctx, epoch.Add(100*day))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = database.GetNote(ctx, old.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	trash, err := database.ListTrashedNotes(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, kept.ID, trash[0].ID)
}

func TestRun_SweepsOnScheduleUntilCancelled(t *testing.T) {
	store := &recordingStore{}
	s := New(store, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return store.calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRun_DisabledInterval(t *testing.T) {
	store := &recordingStore{}
	s := New(store, time.Hour, nil)

	s.Run(context.Background(), 0)
	assert.Zero(t, store.calls())
}
