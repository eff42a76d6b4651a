package repository

import "time"

// Option applies a configuration option to the SnapshotStore.
type Option func(*SnapshotStore)

// WithClock overrides the time source used to stamp snapshots.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithTopCacheSize caps how many leaderboard rows a snapshot keeps pre-sliced
// for TopN. Larger requests fall back to the full ranking.
func WithTopCacheSize(n int) Option {
	return func(s *SnapshotStore) {
		if n > 0 {
			s.topCacheSize = n
		}
	}
}
