// Package champion aggregates scored weekly records into per-user summaries,
// ranks them and extracts per-user score trends.
package champion

import (
	"math"
	"sort"
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

// group accumulates one identity's qualifying records in input order.
type group struct {
	id      model.Identity
	scores  []float64
	total   float64
	periods map[int64]struct{}
	last    time.Time
}

// Aggregate groups records with a nonzero message count by identity and
// returns one ranked summary per user, sorted by rank ascending.
//
// Ranks are dense over AvgChampionScore (descending). Users sharing a rank are
// ordered by name, email and company.
func Aggregate(scored []model.ScoredRecord) []model.ChampionSummary {
	groups := make(map[model.Identity]*group)
	order := make([]model.Identity, 0)

	for _, r := range scored {
		// Inactive periods carry no signal.
		if r.Messages == 0 {
			continue
		}
		g, ok := groups[r.Identity]
		if !ok {
			g = &group{id: r.Identity, periods: make(map[int64]struct{})}
			groups[r.Identity] = g
			order = append(order, r.Identity)
		}
		g.scores = append(g.scores, r.ChampionScore)
		g.total += r.Messages
		g.periods[r.PeriodEnd.UnixNano()] = struct{}{}
		if len(g.scores) == 1 || r.PeriodEnd.After(g.last) {
			g.last = r.PeriodEnd
		}
	}

	out := make([]model.ChampionSummary, 0, len(order))
	for _, id := range order {
		g := groups[id]
		avg, std := meanStd(g.scores)
		out = append(out, model.ChampionSummary{
			Identity:         id,
			AvgChampionScore: avg,
			ScoreStability:   std,
			TotalMessages:    g.total,
			ActiveWeeks:      len(g.periods),
			LastActive:       g.last,
		})
	}

	sortSummaries(out)
	assignDenseRanks(out)
	return out
}

// meanStd returns the arithmetic mean and sample standard deviation of xs.
// The deviation is 0 when fewer than two values are given.
func meanStd(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	if len(xs) < 2 {
		return mean, 0
	}
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(xs)-1))
}

// sortSummaries orders by average score desc, then identity asc.
func sortSummaries(s []model.ChampionSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].AvgChampionScore != s[j].AvgChampionScore {
			return s[i].AvgChampionScore > s[j].AvgChampionScore
		}
		if s[i].Name != s[j].Name {
			return s[i].Name < s[j].Name
		}
		if s[i].Email != s[j].Email {
			return s[i].Email < s[j].Email
		}
		return s[i].Company < s[j].Company
	})
}

// assignDenseRanks assigns ranks with proper tie handling.
// Summaries with the same score get the same rank, and the next distinct
// score takes the next consecutive rank. Input must already be sorted.
func assignDenseRanks(s []model.ChampionSummary) {
	if len(s) == 0 {
		return
	}

	currentRank := 1
	for i := 0; i < len(s); i++ {
		s[i].Rank = currentRank

		sameScoreCount := 1
		for j := i + 1; j < len(s) && s[j].AvgChampionScore == s[i].AvgChampionScore; j++ {
			s[j].Rank = currentRank
			sameScoreCount++
		}

		currentRank++
		i += sameScoreCount - 1
	}
}
