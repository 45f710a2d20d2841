package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderModel represents the database model for rental orders.
type OrderModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderNumber string    `gorm:"type:varchar(50);not null;uniqueIndex"`

	CustomerName  string `gorm:"type:varchar(255);not null"`
	CustomerEmail string `gorm:"type:varchar(255)"`
	CustomerPhone string `gorm:"type:varchar(50)"`

	TripWindowDays        int         `gorm:"type:integer;default:0"`
	EmergencyContactName  string      `gorm:"type:varchar(255)"`
	EmergencyContactPhone string      `gorm:"type:varchar(50)"`
	PresetMessages        StringSlice `gorm:"type:jsonb"`

	RentalStartDate    time.Time  `gorm:"type:timestamptz;not null"`
	RentalEndDate      time.Time  `gorm:"type:timestamptz;not null"`
	PreferredSatDeskID *uuid.UUID `gorm:"type:uuid"`

	Status string `gorm:"type:varchar(30);not null;default:'pending';index"`
	Source string `gorm:"type:varchar(20);not null;default:'manual'"`

	DataComplete  bool        `gorm:"not null;default:false"`
	MissingFields StringSlice `gorm:"type:jsonb"`

	NeedsEscalation bool        `gorm:"not null;default:false;index"`
	Notes           StringSlice `gorm:"type:jsonb"`

	AssignedDeviceID *uuid.UUID `gorm:"type:uuid;index"`
	AssignedIMEI     *string    `gorm:"type:varchar(16)"`

	Version     int        `gorm:"not null;default:1"`
	CreatedAt   time.Time  `gorm:"not null;index"`
	UpdatedAt   time.Time  `gorm:"not null"`
	ProcessedAt *time.Time `gorm:"type:timestamptz"`
	ShippedAt   *time.Time `gorm:"type:timestamptz"`
}

func (OrderModel) TableName() string {
	return "rental_orders"
}
