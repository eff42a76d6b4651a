package repository

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/champion"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/pkg/metrics"
)

const defaultTopCacheSize = 100

// SnapshotStore keeps the latest analysis behind an atomic pointer so reads
// never block on a publish.
type SnapshotStore struct {
	snapshot     atomic.Pointer[Snapshot]
	topCacheSize int
	now          func() time.Time
}

var _ Store = (*SnapshotStore)(nil)

// NewSnapshotStore constructs an empty store.
func NewSnapshotStore(opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		topCacheSize: defaultTopCacheSize,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish builds the read indexes for a and swaps it in.
func (s *SnapshotStore) Publish(_ context.Context, a Analysis) *Snapshot {
	snap := &Snapshot{
		RunID:       a.RunID,
		Weights:     a.Weights,
		PublishedAt: s.now(),
		Scored:      a.Scored,
		Summaries:   a.Summaries,
		rankByName:  make(map[string]int, len(a.Summaries)),
		trendByName: champion.Trends(a.Scored),
		topCache:    champion.Top(a.Summaries, s.topCacheSize),
	}
	for i, sum := range a.Summaries {
		if _, ok := snap.rankByName[sum.Name]; !ok {
			snap.rankByName[sum.Name] = i
		}
	}

	s.snapshot.Store(snap)
	metrics.RecordSnapshotPublished(snap.PublishedAt.Unix())
	metrics.UpdateChampions(len(a.Summaries))
	return snap
}

// Current returns the visible snapshot.
func (s *SnapshotStore) Current(_ context.Context) (*Snapshot, error) {
	snap := s.snapshot.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// TopN returns the first n summaries. n past the end is clamped.
func (s *SnapshotStore) TopN(ctx context.Context, n int) ([]model.ChampionSummary, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, n)
	}
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if n <= len(snap.topCache) {
		return champion.Top(snap.topCache, n), nil
	}
	return champion.Top(snap.Summaries, n), nil
}

// Rank returns the best-ranked summary for name.
func (s *SnapshotStore) Rank(ctx context.Context, name string) (model.ChampionSummary, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return model.ChampionSummary{}, err
	}
	i, ok := snap.rankByName[name]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.ChampionSummary{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return snap.Summaries[i], nil
}

// Trend returns a copy of the period series for name. A user with records but
// no active week still has a trend.
func (s *SnapshotStore) Trend(ctx context.Context, name string) ([]model.TrendPoint, error) {
	snap, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	pts, ok := snap.trendByName[name]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	out := make([]model.TrendPoint, len(pts))
	copy(out, pts)
	return out, nil
}

// Count returns the number of ranked users, 0 before the first publish.
func (s *SnapshotStore) Count(_ context.Context) int {
	if snap := s.snapshot.Load(); snap != nil {
		return len(snap.Summaries)
	}
	return 0
}
