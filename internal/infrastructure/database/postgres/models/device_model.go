package models

import (
	"time"

	"github.com/google/uuid"
)

// DeviceModel represents the database model for devices.
type DeviceModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	IMEI           string     `gorm:"type:varchar(16);not null;uniqueIndex"`
	DeviceNumber   string     `gorm:"type:varchar(50);not null"`
	SatDeskID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status         string     `gorm:"type:varchar(50);not null;default:'available';index"`
	Location       string     `gorm:"type:varchar(10);not null;default:'in'"`
	RentalStart    *time.Time `gorm:"type:timestamp"`
	RentalEnd      *time.Time `gorm:"type:timestamp"`
	CurrentUser    *string    `gorm:"column:current_customer;type:varchar(255)"`
	CurrentOrderID *uuid.UUID `gorm:"type:uuid"`
	Condition      string     `gorm:"type:varchar(20);not null;default:'good'"`
	BatteryHealth  int        `gorm:"type:integer;default:100"`
	Notes          *string    `gorm:"type:text"`

	CleanupArchivePreviousUser bool `gorm:"not null;default:false"`
	CleanupClearMessages       bool `gorm:"not null;default:false"`
	CleanupClearContacts       bool `gorm:"not null;default:false"`
	CleanupResetAccount        bool `gorm:"not null;default:false"`
	CleanupPhysicalInspection  bool `gorm:"not null;default:false"`
	CleanupFactoryReset        bool `gorm:"not null;default:false"`

	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DeviceModel) TableName() string {
	return "devices"
}
