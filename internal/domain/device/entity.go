package device

import (
	"time"

	"github.com/google/uuid"
)

// Device represents a satellite communicator tracked by IMEI.
type Device struct {
	ID             uuid.UUID
	IMEI           string // immutable hardware identity
	DeviceNumber   string
	SatDeskID      uuid.UUID
	Status         Status
	Location       Location
	RentalStart    *time.Time
	RentalEnd      *time.Time
	CurrentUser    *string
	CurrentOrderID *uuid.UUID
	Condition      Condition
	BatteryHealth  int
	Notes          *string
	Cleanup        CleanupChecklist
	Version        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Status represents the lifecycle status of a device.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusActive      Status = "active"
	StatusPending     Status = "pending"
	StatusMaintenance Status = "maintenance"
	StatusArchived    Status = "archived"
)

// Location tracks whether the device is physically at a desk or out with a customer.
type Location string

const (
	LocationIn  Location = "in"
	LocationOut Location = "out"
)

// Condition grades the physical condition of a device for ranking.
type Condition string

const (
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
)

// CleanupChecklist tracks the data-wipe and inspection steps a previously
// assigned device must pass before it can be rented again.
type CleanupChecklist struct {
	ArchivePreviousUser bool
	ClearMessages       bool
	ClearContacts       bool
	ResetAccount        bool
	PhysicalInspection  bool
	FactoryReset        bool
}

// Complete reports whether every cleanup step has been done.
func (c CleanupChecklist) Complete() bool {
	return c.ArchivePreviousUser &&
		c.ClearMessages &&
		c.ClearContacts &&
		c.ResetAccount &&
		c.PhysicalInspection &&
		c.FactoryReset
}

// NeedsCleanup reports whether the device must pass the cleanup checklist
// before it can be claimed: archived devices and devices still holding a
// previous customer outside an active rental.
func (d *Device) NeedsCleanup() bool {
	if d.Status == StatusArchived {
		return true
	}
	return d.CurrentUser != nil && d.Status != StatusActive && d.Status != StatusPending
}

// Claimable reports whether the allocator may claim this device right now.
// Cleanup-required devices are claimable only once their checklist is complete.
func (d *Device) Claimable() bool {
	if d.NeedsCleanup() {
		return d.Cleanup.Complete()
	}
	return d.Status == StatusAvailable
}

// WindowOverlaps reports whether the device's current rental window overlaps
// the given range. A device without a window never overlaps.
func (d *Device) WindowOverlaps(start, end time.Time) bool {
	if d.RentalStart == nil || d.RentalEnd == nil {
		return false
	}
	return !end.Before(*d.RentalStart) && !start.After(*d.RentalEnd)
}

// ConditionScore returns the numeric score used for candidate ranking.
func (d *Device) ConditionScore() float64 {
	var base float64
	switch d.Condition {
	case ConditionExcellent:
		base = 3
	case ConditionGood:
		base = 2
	case ConditionFair:
		base = 1
	}
	return base + float64(d.BatteryHealth)/100
}
