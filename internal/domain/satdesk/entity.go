package satdesk

import (
	"time"

	"github.com/google/uuid"
)

// SatDesk represents an operator account holding a finite quota of devices.
type SatDesk struct {
	ID          uuid.UUID
	Name        string
	DeviceQuota int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
