package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationStatusChanged   NotificationType = "project_status_changed"
	NotificationProjectAssigned NotificationType = "project_assigned"
	NotificationCommentAdded    NotificationType = "comment_added"
	NotificationTicketAssigned  NotificationType = "ticket_assigned"
	NotificationDeadlineSoon    NotificationType = "deadline_soon"
)

type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(40);not null" json:"type"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text" json:"message"`
	Data      datatypes.JSON   `json:"data,omitempty"`
	IsRead    bool             `gorm:"not null;default:false;index" json:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
	CreatedAt time.Time        `gorm:"autoCreateTime;index" json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// PushSubscription is a cloud messaging token registered by a client device.
type PushSubscription struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Token       string    `gorm:"uniqueIndex;not null" json:"token"`
	Platform    string    `gorm:"type:varchar(20)" json:"platform,omitempty"`
	RefreshedAt time.Time `gorm:"not null;index" json:"refreshed_at"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (p *PushSubscription) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
