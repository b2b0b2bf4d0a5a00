package model

import "github.com/okian/pulse/internal/domain/types"

// SensitivityConfiguration is the composite recomputed under one alternate
// weight configuration.
type SensitivityConfiguration struct {
	Configuration   WeightConfiguration `json:"configuration"`
	Score           float64             `json:"score"`
	Category        Category            `json:"category"`
	CategoryChanged bool                `json:"category_changed"`
	Delta           float64             `json:"delta"`
}

// SensitivityReport is a team's sensitivity analysis.
type SensitivityReport struct {
	Configurations []SensitivityConfiguration `json:"configurations"`
	ChangedCount   int                        `json:"changed_count"`
	IsSensitive    bool                       `json:"is_sensitive"`
	MaxAbsDelta    float64                    `json:"max_abs_delta"`
}

// TeamResult is everything computed for one team in one family.
type TeamResult struct {
	TeamID      string            `json:"team_id"`
	CohortID    int               `json:"cohort_id"`
	Composite   CompositeResult   `json:"composite"`
	Sensitivity SensitivityReport `json:"sensitivity"`
}

// CategoryCount is one histogram bucket, kept in band order.
type CategoryCount struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
}

// ConfigurationChanges counts teams whose category flips under a configuration.
type ConfigurationChanges struct {
	Configuration string `json:"configuration"`
	Teams         int    `json:"teams"`
}

// FlipBucket counts teams that flip under exactly Configurations alternates.
type FlipBucket struct {
	Configurations int `json:"configurations"`
	Teams          int `json:"teams"`
}

// SensitivityAggregate summarizes sensitivity across a portfolio.
type SensitivityAggregate struct {
	TotalTeams              int                    `json:"total_teams"`
	TeamsWithCategoryChange int                    `json:"teams_with_category_change"`
	Ratio                   float64                `json:"ratio"`
	ByConfiguration         []ConfigurationChanges `json:"by_configuration"`
	FlipHistogram           []FlipBucket           `json:"flip_histogram"`
}

// CohortSummary describes one baseline cohort used in a run.
type CohortSummary struct {
	ID         int      `json:"id"`
	Size       int      `json:"size"`
	MergedFrom []int    `json:"merged_from,omitempty"`
	Members    []string `json:"members"`
}

// PortfolioSummary is the output of one orchestrated run.
type PortfolioSummary struct {
	Family          ModelFamily          `json:"family"`
	Results         []TeamResult         `json:"results"`
	Mean            float64              `json:"mean"`
	Median          float64              `json:"median"`
	StdDev          float64              `json:"std_dev"`
	Min             float64              `json:"min"`
	Max             float64              `json:"max"`
	CategoryCounts  []CategoryCount      `json:"category_counts"`
	ModelTypeCounts map[ModelType]int    `json:"model_type_counts"`
	Leaderboard     []types.Entry        `json:"leaderboard"`
	Sensitivity     SensitivityAggregate `json:"sensitivity"`
	Cohorts         []CohortSummary      `json:"cohorts"`
}
