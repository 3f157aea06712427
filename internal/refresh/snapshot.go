// Package refresh keeps an in-memory snapshot of all records and reloads it
// on a cron schedule or on demand.
package refresh

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	appLog "planview/internal/log"
	"planview/internal/record"
)

// Snapshot is an immutable set of records. Readers must not modify it.
type Snapshot struct {
	Records  []record.Record
	LoadedAt time.Time
}

// Snapshotter owns the current snapshot. Reads are lock-free; refreshes are
// serialized and a failed refresh keeps the previous snapshot.
type Snapshotter struct {
	source record.Source
	now    func() time.Time

	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	lastErr atomic.Pointer[error]
}

func NewSnapshotter(src record.Source) *Snapshotter {
	return &Snapshotter{source: src, now: time.Now}
}

// Refresh reloads all records and swaps the snapshot in.
func (s *Snapshotter) Refresh(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	recs, err := s.source.Load(ctx)
	if err != nil {
		s.lastErr.Store(&err)
		appLog.Error("refresh failed; keeping previous snapshot", err, "source", s.source.Name())
		return s.Current(), err
	}

	snap := &Snapshot{Records: recs, LoadedAt: s.now()}
	s.current.Store(snap)
	s.lastErr.Store(nil)
	appLog.Info("refresh completed", "records", len(recs), "took", snap.LoadedAt.Sub(start).String())
	return snap, nil
}

// Current returns the latest snapshot, or an empty one before the first load.
func (s *Snapshotter) Current() *Snapshot {
	if snap := s.current.Load(); snap != nil {
		return snap
	}
	return &Snapshot{}
}

// Ensure loads once if nothing has been loaded yet.
func (s *Snapshotter) Ensure(ctx context.Context) (*Snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// LastError is the error of the most recent refresh, nil after a success.
func (s *Snapshotter) LastError() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}
