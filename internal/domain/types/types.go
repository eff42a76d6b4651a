// Package types contains common types used across the application
package types

import (
	"time"

	"github.com/brianfmorissette/chatgpt-champion/internal/domain/model"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/scoring"
)

// Entry represents a leaderboard entry
type Entry struct {
	Rank             int       `json:"rank"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Company          string    `json:"company"`
	AvgChampionScore float64   `json:"avg_champion_score"`
	ScoreStability   float64   `json:"score_stability"`
	ActiveWeeks      int       `json:"active_weeks"`
	TotalMessages    float64   `json:"total_messages"`
	LastActive       time.Time `json:"last_active"`
}

// TrendPoint is one week of a user's score series.
type TrendPoint struct {
	PeriodEnd     time.Time `json:"period_end"`
	ChampionScore float64   `json:"champion_score"`
	Messages      float64   `json:"messages"`
}

// ProcessedRecord is the wire shape of a scored record.
type ProcessedRecord struct {
	Name           string           `json:"name"`
	Email          string           `json:"email"`
	Company        string           `json:"company"`
	OrgUnit        string           `json:"pbu"`
	PeriodEnd      time.Time        `json:"period_end"`
	Messages       float64          `json:"messages"`
	GPTMessages    float64          `json:"gpts_messaged"`
	Projects       float64          `json:"projects_created"`
	ModelDiversity int              `json:"num_models_used"`
	ToolDiversity  int              `json:"num_tools_used"`
	Normalized     model.Normalized `json:"normalized"`
	ChampionScore  float64          `json:"champion_score"`
}

// Weights is the wire shape of a weight configuration.
type Weights struct {
	Messages float64 `json:"messages"`
	Models   float64 `json:"models"`
	GPTs     float64 `json:"gpts"`
	Projects float64 `json:"projects"`
	Tools    float64 `json:"tools"`
}

// FromSummary converts a champion summary into a leaderboard entry.
func FromSummary(s model.ChampionSummary) Entry {
	return Entry{
		Rank:             s.Rank,
		Name:             s.Name,
		Email:            s.Email,
		Company:          s.Company,
		AvgChampionScore: s.AvgChampionScore,
		ScoreStability:   s.ScoreStability,
		ActiveWeeks:      s.ActiveWeeks,
		TotalMessages:    s.TotalMessages,
		LastActive:       s.LastActive,
	}
}

// FromScored converts a scored record into its wire shape.
func FromScored(r model.ScoredRecord) ProcessedRecord {
	return ProcessedRecord{
		Name:           r.Name,
		Email:          r.Email,
		Company:        r.Company,
		OrgUnit:        r.OrgUnit,
		PeriodEnd:      r.PeriodEnd,
		Messages:       r.Messages,
		GPTMessages:    r.GPTMessages,
		Projects:       r.ProjectsCreated,
		ModelDiversity: r.ModelDiversity,
		ToolDiversity:  r.ToolDiversity,
		Normalized:     r.Normalized,
		ChampionScore:  r.ChampionScore,
	}
}

// FromWeights converts a domain weight configuration into its wire shape.
func FromWeights(w scoring.Weights) Weights {
	return Weights{Messages: w.Messages, Models: w.Models, GPTs: w.GPTs, Projects: w.Projects, Tools: w.Tools}
}

// Domain converts the wire shape back into a weight configuration.
func (w Weights) Domain() scoring.Weights {
	return scoring.Weights{Messages: w.Messages, Models: w.Models, GPTs: w.GPTs, Projects: w.Projects, Tools: w.Tools}
}
