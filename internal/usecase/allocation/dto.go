package allocation

import (
	"time"

	"github.com/google/uuid"

	domainDevice "satdesk-manager/internal/domain/device"
)

type CandidateRequest struct {
	StartDate      time.Time  `json:"start_date" validate:"required"`
	EndDate        time.Time  `json:"end_date" validate:"required,gtfield=StartDate"`
	SatDeskID      *uuid.UUID `json:"satdesk_id" validate:"omitempty,uuid"`
	IncludeCleanup bool       `json:"include_cleanup"`
}

type ClaimDeviceRequest struct {
	DeviceID     uuid.UUID `json:"device_id" validate:"required,uuid"`
	OrderID      uuid.UUID `json:"order_id" validate:"required,uuid"`
	StartDate    time.Time `json:"start_date" validate:"required"`
	EndDate      time.Time `json:"end_date" validate:"required,gtfield=StartDate"`
	CustomerName string    `json:"customer_name" validate:"omitempty,max=100"`
}

type BulkAllocationRequest struct {
	DeviceCount  int        `json:"device_count" validate:"required,min=1,max=100"`
	OrderID      uuid.UUID  `json:"order_id" validate:"required,uuid"`
	StartDate    time.Time  `json:"start_date" validate:"required"`
	EndDate      time.Time  `json:"end_date" validate:"required,gtfield=StartDate"`
	SatDeskID    *uuid.UUID `json:"satdesk_id" validate:"omitempty,uuid"`
	CustomerName string     `json:"customer_name" validate:"omitempty,max=100"`
}

type CandidateResponse struct {
	DeviceID      uuid.UUID              `json:"device_id"`
	IMEI          string                 `json:"imei"`
	DeviceNumber  string                 `json:"device_number"`
	SatDeskID     uuid.UUID              `json:"satdesk_id"`
	Condition     domainDevice.Condition `json:"condition"`
	BatteryHealth int                    `json:"battery_health"`
	Score         float64                `json:"score"`
	Recommended   bool                   `json:"recommended"`
}

type BulkAllocationResponse struct {
	Requested int                 `json:"requested"`
	Claimed   []CandidateResponse `json:"claimed"`
	Shortfall int                 `json:"shortfall"`
}

func toCandidateResponse(d *domainDevice.Device, recommended bool) CandidateResponse {
	return CandidateResponse{
		DeviceID:      d.ID,
		IMEI:          d.IMEI,
		DeviceNumber:  d.DeviceNumber,
		SatDeskID:     d.SatDeskID,
		Condition:     d.Condition,
		BatteryHealth: d.BatteryHealth,
		Score:         d.ConditionScore(),
		Recommended:   recommended,
	}
}
