// Package scoring turns activity records into weighted champion scores.
//
// Scoring is a pure batch transform: feature extraction, global min-max
// normalization and the weighted sum all happen in Score, which validates the
// weight configuration before touching any record.
package scoring

import (
	"fmt"
	"math"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/features"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/normalize"
)

// Champion score bounds.
const (
	minScoreValue = 0
	maxScoreValue = 100
)

// ChampionScore combines normalized metrics into a score in [0,100].
// It fails fast with ErrInvalidWeights instead of trusting the caller.
func ChampionScore(n model.Normalized, w Weights) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	return weighted(n, w), nil
}

// weighted assumes w is valid.
func weighted(n model.Normalized, w Weights) float64 {
	score := (n.Messages*(w.Messages/totalWeight) +
		n.Models*(w.Models/totalWeight) +
		n.GPTs*(w.GPTs/totalWeight) +
		n.Projects*(w.Projects/totalWeight) +
		n.Tools*(w.Tools/totalWeight)) * maxScoreValue

	// Weights summing to 100 can still land a rounding step past the bound.
	return math.Max(minScoreValue, math.Min(maxScoreValue, score))
}

// Score derives diversity counts, normalizes every metric across the whole
// record set and computes each record's champion score.
//
// Normalization is global (all users, all periods), so scores are only
// comparable within one record set.
func Score(records []model.ActivityRecord, w Weights) ([]model.ScoredRecord, error) {
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}

	n := len(records)
	var (
		messages = make([]float64, n)
		models   = make([]float64, n)
		gpts     = make([]float64, n)
		projects = make([]float64, n)
		tools    = make([]float64, n)
	)
	out := make([]model.ScoredRecord, n)
	for i, r := range records {
		out[i] = model.ScoredRecord{
			ActivityRecord: r,
			ModelDiversity: features.Count(r.ModelUsage),
			ToolDiversity:  features.Count(r.ToolUsage),
		}
		messages[i] = r.Messages
		models[i] = float64(out[i].ModelDiversity)
		gpts[i] = r.GPTMessages
		projects[i] = r.ProjectsCreated
		tools[i] = float64(out[i].ToolDiversity)
	}

	messages = normalize.MinMax(messages)
	models = normalize.MinMax(models)
	gpts = normalize.MinMax(gpts)
	projects = normalize.MinMax(projects)
	tools = normalize.MinMax(tools)

	for i := range out {
		out[i].Normalized = model.Normalized{
			Messages: messages[i],
			Models:   models[i],
			GPTs:     gpts[i],
			Projects: projects[i],
			Tools:    tools[i],
		}
		out[i].ChampionScore = weighted(out[i].Normalized, w)
	}
	return out, nil
}
