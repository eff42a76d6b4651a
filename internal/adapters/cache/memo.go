// Package cache memoizes scoring runs keyed by dataset and weights.
package cache

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
)

// DefaultSize is the number of analyses kept when no size is configured.
const DefaultSize = 64

// Key identifies one analysis.
type Key struct {
	Dataset uint64
	Weights scoring.Weights
}

// Result is a memoized score + aggregate run.
type Result struct {
	Scored    []model.ScoredRecord
	Summaries []model.ChampionSummary
}

// Memo is a bounded LRU of analysis results. It is safe for concurrent use.
// Results are cloned on the way in and out, so callers may mutate what they get.
type Memo struct {
	lru *lru.Cache[Key, Result]
}

// New creates a memo holding at most size results.
func New(size int) (*Memo, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	c, err := lru.New[Key, Result](size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}
	return &Memo{lru: c}, nil
}

// Get returns a clone of the cached result for k.
func (m *Memo) Get(k Key) (Result, bool) {
	r, ok := m.lru.Get(k)
	if !ok {
		return Result{}, false
	}
	return r.Clone(), true
}

// Add stores a clone of r under k.
func (m *Memo) Add(k Key, r Result) {
	m.lru.Add(k, r.Clone())
}

// Len reports the number of cached results.
func (m *Memo) Len() int { return m.lru.Len() }

// Purge drops every cached result.
func (m *Memo) Purge() { m.lru.Purge() }

// Clone deep-copies r, including usage maps.
func (r Result) Clone() Result {
	out := Result{
		Scored:    make([]model.ScoredRecord, len(r.Scored)),
		Summaries: make([]model.ChampionSummary, len(r.Summaries)),
	}
	copy(out.Summaries, r.Summaries)
	for i, s := range r.Scored {
		s.ModelUsage = cloneUsage(s.ModelUsage)
		s.ToolUsage = cloneUsage(s.ToolUsage)
		out.Scored[i] = s
	}
	return out
}

func cloneUsage(u model.Usage) model.Usage {
	if u == nil {
		return nil
	}
	out := make(model.Usage, len(u))
	for k, v := range u {
		out[k] = v
	}
	return out
}
