package model

import "buildbid/internal/workflow"

// PipelineLane is one column of the project pipeline board.
type PipelineLane struct {
	Column   workflow.Column `json:"column"`
	Phase    workflow.Phase  `json:"phase"`
	Projects []Project       `json:"projects"`
}

type MonthTotal struct {
	Month    string `json:"month"` // YYYY-MM
	WonCents int64  `json:"won_cents"`
}

type RevenueSummary struct {
	WonCents      int64                     `json:"won_cents"`
	PipelineCents int64                     `json:"pipeline_cents"`
	ByColumn      map[workflow.Column]int64 `json:"by_column"`
	ByMonth       []MonthTotal              `json:"by_month"`
	ProjectCount  int                       `json:"project_count"`
}
