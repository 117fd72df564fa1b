package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"buildbid/internal/model"
	"buildbid/internal/workflow"
)

type ProjectRepository struct {
	db      *gorm.DB
	machine *workflow.Machine
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db, machine: workflow.DefaultMachine}
}

type ProjectFilter struct {
	ContractorID *uuid.UUID
	ClientID     *uuid.UUID
	Status       workflow.Status
	Query        string
}

// StatusUpdate requests a status change, a hold change, or both. Nil fields are left alone.
type StatusUpdate struct {
	Status    *workflow.Status
	Hold      *workflow.Hold
	ChangedBy uuid.UUID
}

// Create inserts a project and its opening history row. The model hook forces the initial status.
func (r *ProjectRepository) Create(ctx context.Context, project *model.Project, createdBy uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		return tx.Create(&model.StatusChange{
			ProjectID: project.ID,
			ToStatus:  project.Status,
			ToHold:    project.Hold,
			ChangedBy: createdBy,
		}).Error
	})
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &project, nil
}

// List returns projects newest first.
func (r *ProjectRepository) List(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	tx := r.db.WithContext(ctx).Model(&model.Project{})
	if filter.ContractorID != nil {
		tx = tx.Where("contractor_id = ?", *filter.ContractorID)
	}
	if filter.ClientID != nil {
		tx = tx.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(contractor_name) LIKE ?", like, like)
	}

	var projects []model.Project
	err := tx.Order("created_at DESC").Order("id").Find(&projects).Error
	return projects, err
}

// Update writes the editable fields. Status and hold only change through ApplyStatus.
func (r *ProjectRepository) Update(ctx context.Context, project *model.Project) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ?", project.ID).
		Updates(map[string]interface{}{
			"name":                 project.Name,
			"contractor_name":      project.ContractorName,
			"contractor_id":        project.ContractorID,
			"client_id":            project.ClientID,
			"valuation_cents":      project.ValuationCents,
			"deadline":             project.Deadline,
			"deadline_reminded_at": project.DeadlineRemindedAt,
			"description":          project.Description,
			"high_intent":          project.HighIntent,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// SetFileURL records an uploaded attachment. kind is one of blueprints, takeoff, proposal.
func (r *ProjectRepository) SetFileURL(ctx context.Context, id uuid.UUID, kind, url string) error {
	column := map[string]string{
		"blueprints": "blueprints_url",
		"takeoff":    "takeoff_url",
		"proposal":   "proposal_url",
	}[kind]
	if column == "" {
		return errors.New("unknown file kind: " + kind)
	}

	result := r.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).Update(column, url)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}

// Delete is the only hard delete of a project.
func (r *ProjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&model.StatusChange{}).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_type = ? AND entity_id = ?", model.EntityProject, id).Delete(&model.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.Project{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return nil
	})
}

// ApplyStatus validates the update against the state machine, writes it and appends a history row,
// all in one transaction. guard runs against the locked row before anything is written and may
// veto the change. Requesting the current status and hold is a no-op without a history row.
func (r *ProjectRepository) ApplyStatus(
	ctx context.Context,
	id uuid.UUID,
	upd StatusUpdate,
	guard func(p *model.Project) error,
) (*model.Project, *model.StatusChange, error) {
	var (
		project model.Project
		change  *model.StatusChange
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return err
		}
		if guard != nil {
			if err := guard(&project); err != nil {
				return err
			}
		}

		fromStatus, fromHold := project.Status, project.Hold
		toStatus, toHold := fromStatus, fromHold

		if upd.Hold != nil && !upd.Hold.IsValid() {
			return workflow.ErrInvalidHold
		}
		if upd.Status != nil {
			if err := r.machine.Transition(fromStatus, *upd.Status); err != nil && !errors.Is(err, workflow.ErrNoChange) {
				return err
			}
			toStatus = *upd.Status
		}
		if upd.Hold != nil {
			if err := workflow.CheckHold(toStatus, *upd.Hold); err != nil {
				return err
			}
			toHold = *upd.Hold
		} else if workflow.CheckHold(toStatus, toHold) != nil {
			// Closing a project drops a hold that points outside its lane.
			toHold = workflow.TerminalHold(toStatus)
		}
		if toStatus == fromStatus && toHold == fromHold {
			return nil
		}

		if err := tx.Model(&model.Project{}).Where("id = ?", id).Updates(map[string]interface{}{
			"status": toStatus,
			"hold":   toHold,
		}).Error; err != nil {
			return err
		}

		from := fromStatus
		change = &model.StatusChange{
			ProjectID:  id,
			FromStatus: &from,
			ToStatus:   toStatus,
			FromHold:   fromHold,
			ToHold:     toHold,
			ChangedBy:  upd.ChangedBy,
		}
		if err := tx.Create(change).Error; err != nil {
			return err
		}

		project.Status, project.Hold = toStatus, toHold
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return &project, change, nil
}

// History returns the status changes of a project, oldest first.
func (r *ProjectRepository) History(ctx context.Context, projectID uuid.UUID) ([]model.StatusChange, error) {
	var changes []model.StatusChange
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at").
		Order("id").
		Find(&changes).Error
	return changes, err
}

// Pipeline groups every project into the board columns.
func (r *ProjectRepository) Pipeline(ctx context.Context, filter ProjectFilter) ([]model.PipelineLane, error) {
	projects, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	lanes := make([]model.PipelineLane, 0, len(workflow.Columns()))
	index := make(map[workflow.Column]int)
	for i, col := range workflow.Columns() {
		index[col] = i
		lanes = append(lanes, model.PipelineLane{Column: col, Phase: col.Phase(), Projects: []model.Project{}})
	}
	for _, p := range projects {
		i := index[p.Column()]
		lanes[i].Projects = append(lanes[i].Projects, p)
	}
	return lanes, nil
}

// DueBetween returns non-terminal projects with a deadline in [from, to) whose contractor
// has not been reminded yet.
func (r *ProjectRepository) DueBetween(ctx context.Context, from, to time.Time) ([]model.Project, error) {
	var terminal []workflow.Status
	for _, s := range workflow.Statuses() {
		if s.IsTerminal() {
			terminal = append(terminal, s)
		}
	}

	var projects []model.Project
	err := r.db.WithContext(ctx).
		Where("deadline >= ? AND deadline < ?", from, to).
		Where("deadline_reminded_at IS NULL").
		Where("status NOT IN ?", terminal).
		Order("deadline").
		Find(&projects).Error
	return projects, err
}

// MarkReminded records that the deadline reminder for a project went out.
func (r *ProjectRepository) MarkReminded(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Project{}).Where("id = ?", id).Update("deadline_reminded_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrProjectNotFound
	}
	return nil
}
