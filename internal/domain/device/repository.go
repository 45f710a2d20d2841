package device

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClaimRequest carries everything the repository needs to couple a device to
// a rental order in one atomic step.
type ClaimRequest struct {
	DeviceID    uuid.UUID
	RentalStart time.Time
	RentalEnd   time.Time
	OrderID     uuid.UUID
	CustomerRef string
}

// Repository defines the interface for device registry operations.
//
// Claim is the one operation with a concurrency contract: the status check
// and the status change must be indivisible with respect to other claims on
// the same device. A lost race returns ErrDeviceUnavailable.
type Repository interface {
	Create(ctx context.Context, device *Device) error
	GetByID(ctx context.Context, deviceID uuid.UUID) (*Device, error)
	GetByIMEI(ctx context.Context, imei string) (*Device, error)
	List(ctx context.Context, filter *Filter) ([]*Device, error)
	Update(ctx context.Context, device *Device) error
	UpdateStatus(ctx context.Context, deviceID uuid.UUID, status Status) error
	Claim(ctx context.Context, req ClaimRequest) (*Device, error)
	Release(ctx context.Context, deviceID uuid.UUID) (*Device, error)
	ReturnFromRental(ctx context.Context, deviceID uuid.UUID) (*Device, error)
	CountByDesk(ctx context.Context, satDeskID uuid.UUID, filter *Filter) (int, error)
}

// Filter represents filtering options for listing devices.
type Filter struct {
	Status          *Status
	Location        *Location
	SatDeskID       *uuid.UUID
	ExcludeArchived bool
	NeedsCleanup    *bool
	Search          string
}
