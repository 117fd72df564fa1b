package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin      Role = "admin"
	RoleContractor Role = "contractor"
	RoleClient     Role = "client"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleContractor, RoleClient:
		return true
	}
	return false
}

// User is an account of any role. Role is fixed at creation.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;not null" json:"email"`
	HashedPassword string    `gorm:"not null" json:"-"`
	Role           Role      `gorm:"type:varchar(20);not null;index" json:"role"`

	Company         string `json:"company,omitempty"`
	Specialty       string `json:"specialty,omitempty"`
	YearsExperience int    `json:"years_experience,omitempty"`
	Phone           string `json:"phone,omitempty"`
	OfficeAddress   string `json:"office_address,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
