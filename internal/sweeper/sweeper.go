package sweeper

import (
	"context"
	"log/slog"
	"time"
)

// DefaultWindow is how long a note stays in the trash before it is purged.
const DefaultWindow = 30 * 24 * time.Hour

// Store is the bulk delete the sweeper drives.
type Store interface {
	DeleteTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Observer is told about every sweep. It may be nil.
type Observer interface {
	ObserveSweep(removed int64, err error)
}

type Sweeper struct {
	store    Store
	window   time.Duration
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
}

func New(store Store, window time.Duration, observer Observer) *Sweeper {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Sweeper{
		store:    store,
		window:   window,
		observer: observer,
		logger:   slog.Default().With("component", "sweeper"),
		now:      time.Now,
	}
}

func (s *Sweeper) Window() time.Duration {
	return s.window
}

// Cutoff is the trashed_at bound for a sweep at now; notes trashed strictly
// before it are purged.
func (s *Sweeper) Cutoff(now time.Time) time.Time {
	return now.Add(-s.window)
}

// Sweep permanently deletes every note trashed before now minus the window.
// It is all-or-nothing and safe to repeat.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	cutoff := s.Cutoff(now)
	removed, err := s.store.DeleteTrashedBefore(ctx, cutoff)
	if s.observer != nil {
		s.observer.ObserveSweep(removed, err)
	}
	if err != nil {
		s.logger.Error("sweep failed", "cutoff", cutoff, "error", err)
		return 0, err
	}
	s.logger.Info("sweep finished", "cutoff", cutoff, "removed", removed)
	return removed, nil
}

// SweepNow runs Sweep against the current time.
func (s *Sweeper) SweepNow(ctx context.Context) (int64, error) {
	return s.Sweep(ctx, s.now())
}

// Run sweeps once immediately and then every interval until ctx is done.
// Failures are logged and the schedule continues.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	s.SweepNow(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepNow(ctx)
		}
	}
}
