package models

import (
	"time"

	"github.com/google/uuid"
)

// SatDeskModel represents the database model for satellite desks.
type SatDeskModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	DeviceQuota int       `gorm:"type:integer;not null;default:0"`
	IsActive    bool      `gorm:"not null;default:true"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (SatDeskModel) TableName() string {
	return "sat_desks"
}
