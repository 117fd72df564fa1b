package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Column struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title    string    `gorm:"not null" json:"title"`
	Position int       `gorm:"not null" json:"position"`
}

func (c *Column) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
