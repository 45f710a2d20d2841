package device

import (
	"time"

	"github.com/google/uuid"

	domainDevice "satdesk-manager/internal/domain/device"
)

type CreateDeviceRequest struct {
	IMEI          string    `json:"imei" validate:"required,imei"`
	DeviceNumber  string    `json:"device_number" validate:"required,min=3,max=50"`
	SatDeskID     uuid.UUID `json:"satdesk_id" validate:"required,uuid"`
	Condition     string    `json:"condition" validate:"required,oneof=excellent good fair"`
	BatteryHealth int       `json:"battery_health" validate:"min=0,max=100"`
	Notes         *string   `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateDeviceRequest struct {
	DeviceNumber  *string `json:"device_number" validate:"omitempty,min=3,max=50"`
	Condition     *string `json:"condition" validate:"omitempty,oneof=excellent good fair"`
	BatteryHealth *int    `json:"battery_health" validate:"omitempty,min=0,max=100"`
	Notes         *string `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	Status domainDevice.Status `json:"status" validate:"required,oneof=available pending maintenance archived"`
	Reason string              `json:"reason" validate:"omitempty,max=500"`
}

type ChecklistRequest struct {
	ArchivePreviousUser *bool `json:"archive_previous_user"`
	ClearMessages       *bool `json:"clear_messages"`
	ClearContacts       *bool `json:"clear_contacts"`
	ResetAccount        *bool `json:"reset_account"`
	PhysicalInspection  *bool `json:"physical_inspection"`
	FactoryReset        *bool `json:"factory_reset"`
}

type DeviceFilterRequest struct {
	Status       *domainDevice.Status   `form:"status"`
	Location     *domainDevice.Location `form:"location"`
	SatDeskID    *uuid.UUID             `form:"satdesk_id"`
	NeedsCleanup *bool                  `form:"needs_cleanup"`
	Search       string                 `form:"search"`
}

type ChecklistResponse struct {
	ArchivePreviousUser bool `json:"archive_previous_user"`
	ClearMessages       bool `json:"clear_messages"`
	ClearContacts       bool `json:"clear_contacts"`
	ResetAccount        bool `json:"reset_account"`
	PhysicalInspection  bool `json:"physical_inspection"`
	FactoryReset        bool `json:"factory_reset"`
	Complete            bool `json:"complete"`
}

type DeviceResponse struct {
	ID             uuid.UUID              `json:"id"`
	IMEI           string                 `json:"imei"`
	DeviceNumber   string                 `json:"device_number"`
	SatDeskID      uuid.UUID              `json:"satdesk_id"`
	Status         domainDevice.Status    `json:"status"`
	Location       domainDevice.Location  `json:"location"`
	RentalStart    *time.Time             `json:"rental_start,omitempty"`
	RentalEnd      *time.Time             `json:"rental_end,omitempty"`
	CurrentUser    *string                `json:"current_user,omitempty"`
	CurrentOrderID *uuid.UUID             `json:"current_order_id,omitempty"`
	Condition      domainDevice.Condition `json:"condition"`
	BatteryHealth  int                    `json:"battery_health"`
	Notes          *string                `json:"notes,omitempty"`
	NeedsCleanup   bool                   `json:"needs_cleanup"`
	Checklist      ChecklistResponse      `json:"cleanup_checklist"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

func ToDeviceResponse(d *domainDevice.Device) *DeviceResponse {
	if d == nil {
		return nil
	}
	return &DeviceResponse{
		ID:             d.ID,
		IMEI:           d.IMEI,
		DeviceNumber:   d.DeviceNumber,
		SatDeskID:      d.SatDeskID,
		Status:         d.Status,
		Location:       d.Location,
		RentalStart:    d.RentalStart,
		RentalEnd:      d.RentalEnd,
		CurrentUser:    d.CurrentUser,
		CurrentOrderID: d.CurrentOrderID,
		Condition:      d.Condition,
		BatteryHealth:  d.BatteryHealth,
		Notes:          d.Notes,
		NeedsCleanup:   d.NeedsCleanup(),
		Checklist: ChecklistResponse{
			ArchivePreviousUser: d.Cleanup.ArchivePreviousUser,
			ClearMessages:       d.Cleanup.ClearMessages,
			ClearContacts:       d.Cleanup.ClearContacts,
			ResetAccount:        d.Cleanup.ResetAccount,
			PhysicalInspection:  d.Cleanup.PhysicalInspection,
			FactoryReset:        d.Cleanup.FactoryReset,
			Complete:            d.Cleanup.Complete(),
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
