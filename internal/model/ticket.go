package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TicketType string

const (
	TicketInternal   TicketType = "internal"
	TicketClient     TicketType = "client"
	TicketContractor TicketType = "contractor"
)

type TaskType string

const (
	TaskQuoteVerification     TaskType = "quote_verification"
	TaskPriceNegotiation      TaskType = "price_negotiation"
	TaskRequiredDocumentation TaskType = "required_documentation"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskQuoteVerification, TaskPriceNegotiation, TaskRequiredDocumentation:
		return true
	}
	return false
}

var (
	ErrInvalidTicketType = errors.New("ticket type must be internal, client or contractor")
	ErrTaskTypeRequired  = errors.New("client and contractor tickets require a task type")
	ErrTaskTypeForbidden = errors.New("internal tickets cannot carry a task type")
	ErrInvalidTaskType   = errors.New("unknown task type")
)

// Ticket is a card on the task board. Exactly one column owns it at a time.
type Ticket struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ColumnID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"column_id"`
	Title        string     `gorm:"not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description,omitempty"`
	Type         TicketType `gorm:"type:varchar(20);not null" json:"type"`
	TaskType     TaskType   `gorm:"type:varchar(32)" json:"task_type,omitempty"`
	ContractorID *uuid.UUID `gorm:"type:uuid;index" json:"contractor_id,omitempty"`
	ClientID     *uuid.UUID `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ProjectID    *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	CreatedBy    uuid.UUID  `gorm:"type:uuid;not null" json:"created_by"`
	Position     int        `gorm:"not null" json:"position"`

	TrackedSeconds int64      `gorm:"not null;default:0" json:"tracked_seconds"`
	TimerStartedAt *time.Time `json:"timer_started_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Validate enforces the type/task-type pairing.
func (t Ticket) Validate() error {
	switch t.Type {
	case TicketInternal:
		if t.TaskType != "" {
			return ErrTaskTypeForbidden
		}
	case TicketClient, TicketContractor:
		if t.TaskType == "" {
			return ErrTaskTypeRequired
		}
		if !t.TaskType.IsValid() {
			return ErrInvalidTaskType
		}
	default:
		return ErrInvalidTicketType
	}
	return nil
}

func (t Ticket) TimerRunning() bool {
	return t.TimerStartedAt != nil
}

// Elapsed returns tracked time including the running segment, if any.
func (t Ticket) Elapsed(now time.Time) time.Duration {
	d := time.Duration(t.TrackedSeconds) * time.Second
	if t.TimerStartedAt != nil && now.After(*t.TimerStartedAt) {
		d += now.Sub(*t.TimerStartedAt).Truncate(time.Second)
	}
	return d
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
