// Package repository holds the published leaderboard that readers query.
package repository

import (
	"context"
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
)

// Analysis is one complete scoring run ready to be published.
type Analysis struct {
	RunID     string
	Weights   scoring.Weights
	Scored    []model.ScoredRecord
	Summaries []model.ChampionSummary // rank-sorted
}

// Store publishes analyses and serves read queries over the latest one.
type Store interface {
	// Publish replaces the visible leaderboard atomically.
	Publish(ctx context.Context, a Analysis) *Snapshot

	// Current returns the visible snapshot or ErrNoSnapshot.
	Current(ctx context.Context) (*Snapshot, error)

	// TopN returns the first n summaries in rank order.
	TopN(ctx context.Context, n int) ([]model.ChampionSummary, error)

	// Rank returns the best-ranked summary for name, or ErrNotFound.
	Rank(ctx context.Context, name string) (model.ChampionSummary, error)

	// Trend returns the period series for name, or ErrNotFound.
	Trend(ctx context.Context, name string) ([]model.TrendPoint, error)

	// Count returns the number of ranked users.
	Count(ctx context.Context) int
}

// Snapshot is an immutable view of one analysis. Readers must not mutate it.
type Snapshot struct {
	RunID       string
	Weights     scoring.Weights
	PublishedAt time.Time
	Scored      []model.ScoredRecord
	Summaries   []model.ChampionSummary

	rankByName  map[string]int // index into Summaries of the best entry per name
	trendByName map[string][]model.TrendPoint
	topCache    []model.ChampionSummary
}
