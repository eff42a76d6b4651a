package champion

import (
	"sort"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
)

// Top returns at most n summaries from a rank-sorted slice.
func Top(summaries []model.ChampionSummary, n int) []model.ChampionSummary {
	if n <= 0 {
		return []model.ChampionSummary{}
	}
	if n > len(summaries) {
		n = len(summaries)
	}
	out := make([]model.ChampionSummary, n)
	copy(out, summaries[:n])
	return out
}

// Find returns the best-ranked summary whose name matches.
func Find(summaries []model.ChampionSummary, name string) (model.ChampionSummary, bool) {
	for _, s := range summaries {
		if s.Name == name {
			return s, true
		}
	}
	return model.ChampionSummary{}, false
}

// Names lists distinct user names in rank order.
func Names(summaries []model.ChampionSummary) []string {
	seen := make(map[string]struct{}, len(summaries))
	out := make([]string, 0, len(summaries))
	for _, s := range summaries {
		if _, ok := seen[s.Name]; ok {
			continue
		}
		seen[s.Name] = struct{}{}
		out = append(out, s.Name)
	}
	return out
}

// Trend returns every scored period for the named user, oldest first.
// Zero-message periods are included so gaps in activity show up as zeros.
func Trend(scored []model.ScoredRecord, name string) []model.TrendPoint {
	out := make([]model.TrendPoint, 0)
	for _, r := range scored {
		if r.Name != name {
			continue
		}
		out = append(out, model.TrendPoint{
			PeriodEnd:     r.PeriodEnd,
			ChampionScore: r.ChampionScore,
			Messages:      r.Messages,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PeriodEnd.Before(out[j].PeriodEnd)
	})
	return out
}

// Trends indexes Trend for every name in one pass.
func Trends(scored []model.ScoredRecord) map[string][]model.TrendPoint {
	out := make(map[string][]model.TrendPoint)
	for _, r := range scored {
		out[r.Name] = append(out[r.Name], model.TrendPoint{
			PeriodEnd:     r.PeriodEnd,
			ChampionScore: r.ChampionScore,
			Messages:      r.Messages,
		})
	}
	for _, pts := range out {
		sort.SliceStable(pts, func(i, j int) bool {
			return pts[i].PeriodEnd.Before(pts[j].PeriodEnd)
		})
	}
	return out
}
