package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"buildbid/internal/model"
	"buildbid/internal/workflow"
)

type RevenueRepository struct {
	db *gorm.DB
}

func NewRevenueRepository(db *gorm.DB) *RevenueRepository {
	return &RevenueRepository{db: db}
}

// Summary aggregates valuations. Won revenue is bucketed by the month the project was marked won,
// falling back to its last update when no history row exists.
func (r *RevenueRepository) Summary(ctx context.Context) (*model.RevenueSummary, error) {
	var projects []model.Project
	if err := r.db.WithContext(ctx).
		Select("id", "status", "hold", "valuation_cents", "updated_at").
		Find(&projects).Error; err != nil {
		return nil, err
	}

	var wins []model.StatusChange
	if err := r.db.WithContext(ctx).
		Select("project_id", "created_at").
		Where("to_status = ?", workflow.StatusWon).
		Find(&wins).Error; err != nil {
		return nil, err
	}
	wonAt := make(map[uuid.UUID]time.Time, len(wins))
	for _, w := range wins {
		if w.CreatedAt.After(wonAt[w.ProjectID]) {
			wonAt[w.ProjectID] = w.CreatedAt
		}
	}

	summary := &model.RevenueSummary{
		ByColumn:     make(map[workflow.Column]int64, len(workflow.Columns())),
		ByMonth:      []model.MonthTotal{},
		ProjectCount: len(projects),
	}
	for _, col := range workflow.Columns() {
		summary.ByColumn[col] = 0
	}

	months := map[string]int64{}
	for _, p := range projects {
		summary.ByColumn[p.Column()] += p.ValuationCents

		switch {
		case p.Status == workflow.StatusWon:
			summary.WonCents += p.ValuationCents
			at, ok := wonAt[p.ID]
			if !ok {
				at = p.UpdatedAt
			}
			months[at.UTC().Format("2006-01")] += p.ValuationCents
		case !p.Status.IsTerminal():
			summary.PipelineCents += p.ValuationCents
		}
	}

	for month, cents := range months {
		summary.ByMonth = append(summary.ByMonth, model.MonthTotal{Month: month, WonCents: cents})
	}
	sort.Slice(summary.ByMonth, func(i, j int) bool {
		return summary.ByMonth[i].Month < summary.ByMonth[j].Month
	})
	return summary, nil
}
