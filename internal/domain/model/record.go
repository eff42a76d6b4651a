// Package model contains domain models passed between layers.
package model

import "time"

// Sentinel identity values used when a source row omits a field.
const (
	UnknownName    = "Unknown User"
	UnknownEmail   = "Unknown Email"
	UnknownCompany = "N/A"
	UnknownOrgUnit = "N/A"
)

// Usage maps a model or tool name to the number of messages sent with it.
// An empty map is the "no data" state; a nil Usage never leaves ingest.
type Usage map[string]float64

// Identity is the grouping key for a user across periods.
type Identity struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

// ActivityRecord is one user's activity for one period.
type ActivityRecord struct {
	Identity
	OrgUnit         string    // optional organizational-unit tag
	PeriodEnd       time.Time // end of the weekly period
	Messages        float64   // total messages sent
	GPTMessages     float64   // messages sent to custom GPTs
	ProjectsCreated float64   // projects created in the period
	ModelUsage      Usage     // model name -> messages
	ToolUsage       Usage     // tool name -> messages
}

// Normalized holds the five min-max scaled metrics of a record, each in [0,1].
type Normalized struct {
	Messages float64 `json:"msg_norm"`
	Models   float64 `json:"model_norm"`
	GPTs     float64 `json:"gpts_norm"`
	Projects float64 `json:"projects_norm"`
	Tools    float64 `json:"tool_norm"`
}

// ScoredRecord is an ActivityRecord with derived features and its champion score.
type ScoredRecord struct {
	ActivityRecord
	ModelDiversity int
	ToolDiversity  int
	Normalized     Normalized
	ChampionScore  float64 // in [0,100]
}

// ChampionSummary aggregates a user's scored records across all active periods.
type ChampionSummary struct {
	Identity
	AvgChampionScore float64
	ScoreStability   float64 // sample standard deviation; 0 with fewer than two periods
	TotalMessages    float64
	ActiveWeeks      int
	LastActive       time.Time
	Rank             int // dense, 1 = best
}

// TrendPoint is a single period of a user's champion score series.
type TrendPoint struct {
	PeriodEnd     time.Time
	ChampionScore float64
	Messages      float64
}
