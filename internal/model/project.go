package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"buildbid/internal/workflow"
)

type Project struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string          `gorm:"not null" json:"name"`
	ContractorName string          `json:"contractor_name,omitempty"`
	ContractorID   *uuid.UUID      `gorm:"type:uuid;index" json:"contractor_id,omitempty"`
	ClientID       *uuid.UUID      `gorm:"type:uuid;index" json:"client_id,omitempty"`
	Status         workflow.Status `gorm:"type:varchar(32);not null;index" json:"status"`
	Hold           workflow.Hold   `gorm:"type:varchar(32)" json:"hold,omitempty"`
	ValuationCents int64           `gorm:"not null" json:"valuation_cents"`
	Deadline       *time.Time      `json:"deadline,omitempty"`
	Description    string          `gorm:"type:text" json:"description,omitempty"`
	HighIntent     bool            `json:"high_intent"`

	BlueprintsURL string `json:"blueprints_url,omitempty"`
	TakeoffURL    string `json:"takeoff_url,omitempty"`
	ProposalURL   string `json:"proposal_url,omitempty"`

	// DeadlineRemindedAt is set once the contractor was warned about the current deadline.
	DeadlineRemindedAt *time.Time `json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate assigns an id and forces the initial status. Nothing a caller submits can skip approval.
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.Status = workflow.InitialStatus
	return nil
}

// Column reports the pipeline lane the project renders in.
func (p Project) Column() workflow.Column {
	return workflow.ColumnFor(p.Status, p.Hold)
}

// StatusChange is one row of a project's status/hold history.
type StatusChange struct {
	ID         uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID        `gorm:"type:uuid;not null;index" json:"project_id"`
	FromStatus *workflow.Status `gorm:"type:varchar(32)" json:"from_status,omitempty"`
	ToStatus   workflow.Status  `gorm:"type:varchar(32);not null" json:"to_status"`
	FromHold   workflow.Hold    `gorm:"type:varchar(32)" json:"from_hold,omitempty"`
	ToHold     workflow.Hold    `gorm:"type:varchar(32)" json:"to_hold,omitempty"`
	ChangedBy  uuid.UUID        `gorm:"type:uuid;not null" json:"changed_by"`
	CreatedAt  time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}

func (s *StatusChange) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
