package order

import (
	"time"

	"github.com/google/uuid"
)

// RentalOrder represents a customer's rental request moving through the
// fulfillment pipeline. Orders are a historical record and are never deleted.
type RentalOrder struct {
	ID            uuid.UUID
	OrderNumber   string
	CustomerInfo  CustomerInfo
	Preferences   Preferences
	RentalDetails RentalDetails
	Status        Status
	Source        Source

	// Derived on every write: DataComplete == (len(MissingFields) == 0).
	DataComplete  bool
	MissingFields []string

	NeedsEscalation bool
	Notes           []string

	AssignedDeviceID *uuid.UUID
	AssignedIMEI     *string

	Version     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ProcessedAt *time.Time
	ShippedAt   *time.Time
}

type CustomerInfo struct {
	Name  string
	Email string
	Phone string
}

type EmergencyContact struct {
	Name  string
	Phone string
}

type Preferences struct {
	TripWindowDays   int
	EmergencyContact EmergencyContact
	PresetMessages   []string
}

type RentalDetails struct {
	StartDate          time.Time
	EndDate            time.Time
	PreferredSatDeskID *uuid.UUID
}

// Status represents the order's position in the fulfillment state machine.
type Status string

const (
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusReadyToShip Status = "ready_to_ship"
	StatusShipped     Status = "shipped"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusEscalated   Status = "escalated"
)

// Source identifies where the order came from.
type Source string

const (
	SourceWebsite Source = "website"
	SourcePortal  Source = "portal"
	SourceManual  Source = "manual"
)

// Dotted field paths reported in MissingFields so a UI can highlight the
// exact input.
const (
	FieldCustomerPhone         = "customerInfo.phone"
	FieldEmergencyContactName  = "emergencyContact.name"
	FieldEmergencyContactPhone = "emergencyContact.phone"
	FieldPresetMessages        = "preferences.presetMessages"
)

// HasDevice reports whether the order currently holds a device claim.
func (o *RentalOrder) HasDevice() bool {
	return o.AssignedDeviceID != nil
}
