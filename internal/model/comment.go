package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EntityType string

const (
	EntityTicket  EntityType = "ticket"
	EntityProject EntityType = "project"
)

// Comment is attached to a ticket or a project. EntityID is polymorphic, so there is no foreign key.
type Comment struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EntityType EntityType `gorm:"type:varchar(20);not null;index:idx_comments_entity,priority:1" json:"entity_type"`
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_comments_entity,priority:2" json:"entity_id"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	AuthorName string     `gorm:"not null" json:"author_name"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
