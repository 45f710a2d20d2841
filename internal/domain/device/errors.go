package device

import "errors"

var (
	ErrDeviceNotFound      = errors.New("device not found")
	ErrDeviceAlreadyExists = errors.New("device already exists")
	ErrDeviceUnavailable   = errors.New("device unavailable")
	ErrCleanupIncomplete   = errors.New("cleanup checklist incomplete")
	ErrInvalidStatus       = errors.New("invalid device status")
	ErrStaleState          = errors.New("device was modified concurrently")
)
