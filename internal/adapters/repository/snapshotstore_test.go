package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
)

var fixedNow = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

func week(i int) time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 7*i)
}

func summary(name string, avg float64, rank int) model.ChampionSummary {
	return model.ChampionSummary{
		Identity:         model.Identity{Name: name, Email: name + "@example.com", Company: "Acme"},
		AvgChampionScore: avg,
		ActiveWeeks:      1,
		Rank:             rank,
	}
}

func scored(name string, w int, score float64) model.ScoredRecord {
	return model.ScoredRecord{
		ActivityRecord: model.ActivityRecord{
			Identity:  model.Identity{Name: name, Email: name + "@example.com", Company: "Acme"},
			PeriodEnd: week(w),
			Messages:  10,
		},
		ChampionScore: score,
	}
}

func sampleAnalysis() Analysis {
	return Analysis{
		RunID:   "run-1",
		Weights: scoring.DefaultWeights(),
		Scored: []model.ScoredRecord{
			scored("bo", 1, 40), scored("ada", 1, 90), scored("ada", 0, 70), scored("bo", 0, 60), scored("cy", 0, 10),
		},
		Summaries: []model.ChampionSummary{
			summary("ada", 80, 1), summary("bo", 50, 2), summary("cy", 10, 3),
		},
	}
}

func TestSnapshotStore_Empty(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()

	assert.Equal(t, 0, s.Count(ctx))
	_, err := s.Current(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = s.TopN(ctx, 5)
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = s.Rank(ctx, "ada")
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestSnapshotStore_Publish(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(WithClock(func() time.Time { return fixedNow }), WithTopCacheSize(2))

	snap := s.Publish(ctx, sampleAnalysis())
	require.NotNil(t, snap)
	assert.Equal(t, "run-1", snap.RunID)
	assert.Equal(t, fixedNow, snap.PublishedAt)
	assert.Equal(t, 3, s.Count(ctx))

	cur, err := s.Current(ctx)
	require.NoError(t, err)
	assert.Same(t, snap, cur)
}

func TestSnapshotStore_TopN(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore(WithTopCacheSize(2))
	s.Publish(ctx, sampleAnalysis())

	top, err := s.TopN(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "ada", top[0].Name)
	assert.Equal(t, "bo", top[1].Name)

	// past the cache and past the end
	all, err := s.TopN(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, 3, all[2].Rank)

	_, err = s.TopN(ctx, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)

	// callers get copies
	top[0].Name = "mutated"
	again, _ := s.TopN(ctx, 1)
	assert.Equal(t, "ada", again[0].Name)
}

func TestSnapshotStore_RankAndTrend(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	s.Publish(ctx, sampleAnalysis())

	bo, err := s.Rank(ctx, "bo")
	require.NoError(t, err)
	assert.Equal(t, 2, bo.Rank)

	_, err = s.Rank(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	trend, err := s.Trend(ctx, "ada")
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, week(0), trend[0].PeriodEnd)
	assert.Equal(t, 70.0, trend[0].ChampionScore)
	assert.Equal(t, 90.0, trend[1].ChampionScore)

	_, err = s.Trend(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotStore_ConcurrentReadsDuringPublish(t *testing.T) {
	ctx := context.Background()
	s := NewSnapshotStore()
	s.Publish(ctx, sampleAnalysis())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				top, err := s.TopN(ctx, 3)
				if assert.NoError(t, err) {
					assert.Len(t, top, 3)
				}
			}
		}()
	}
	for j := 0; j < 50; j++ {
		s.Publish(ctx, sampleAnalysis())
	}
	wg.Wait()
}
