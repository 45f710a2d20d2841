package satdesk

import (
	"time"

	"github.com/google/uuid"

	domainSatDesk "satdesk-manager/internal/domain/satdesk"
)

type CreateSatDeskRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=100"`
	DeviceQuota int    `json:"device_quota" validate:"required,min=1,max=1000"`
}

type UpdateSatDeskRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	DeviceQuota *int    `json:"device_quota" validate:"omitempty,min=1,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

type SatDeskResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DeviceQuota     int       `json:"device_quota"`
	DeviceCount     int       `json:"device_count"`
	AvailableInDesk int       `json:"available_in_desk"`
	QuotaHeadroom   int       `json:"quota_headroom"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toSatDeskResponse(d *domainSatDesk.SatDesk, deviceCount, availableCount int) *SatDeskResponse {
	return &SatDeskResponse{
		ID:              d.ID,
		Name:            d.Name,
		DeviceQuota:     d.DeviceQuota,
		DeviceCount:     deviceCount,
		AvailableInDesk: availableCount,
		QuotaHeadroom:   d.DeviceQuota - deviceCount,
		IsActive:        d.IsActive,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
