package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainDevice "satdesk-manager/internal/domain/device"
	domainSatDesk "satdesk-manager/internal/domain/satdesk"
	"satdesk-manager/internal/logger"
	appErrors "satdesk-manager/pkg/errors"
	"satdesk-manager/pkg/utils"
	"satdesk-manager/pkg/validation"
)

// Service implements device registry use cases: intake, status management,
// and the cleanup checklist gate.
type Service struct {
	deviceRepo domainDevice.Repository
	deskRepo   domainSatDesk.Repository
}

func NewService(deviceRepo domainDevice.Repository, deskRepo domainSatDesk.Repository) *Service {
	return &Service{
		deviceRepo: deviceRepo,
		deskRepo:   deskRepo,
	}
}

// Intake registers a new device under a SatDesk. Exceeding the desk quota is
// a soft violation: it is logged and later surfaced by the alert engine, but
// never blocks intake.
func (s *Service) Intake(ctx context.Context, req *CreateDeviceRequest) (*DeviceResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid device request", err)
	}

	desk, err := s.deskRepo.GetByID(ctx, req.SatDeskID)
	if err != nil {
		if errors.Is(err, domainSatDesk.ErrSatDeskNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "SatDesk not found", err)
		}
		return nil, err
	}

	count, err := s.deviceRepo.CountByDesk(ctx, desk.ID, &domainDevice.Filter{ExcludeArchived: true})
	if err != nil {
		return nil, err
	}
	if count >= desk.DeviceQuota {
		logger.Warn("SatDesk over quota on device intake",
			zap.String("satdesk_id", desk.ID.String()),
			zap.Int("quota", desk.DeviceQuota),
			zap.Int("device_count", count+1),
		)
	}

	d := &domainDevice.Device{
		IMEI:          req.IMEI,
		DeviceNumber:  req.DeviceNumber,
		SatDeskID:     req.SatDeskID,
		Status:        domainDevice.StatusAvailable,
		Location:      domainDevice.LocationIn,
		Condition:     domainDevice.Condition(req.Condition),
		BatteryHealth: req.BatteryHealth,
	}
	if req.Notes != nil {
		note := utils.SanitizeNote(*req.Notes)
		d.Notes = &note
	}

	if err := s.deviceRepo.Create(ctx, d); err != nil {
		if errors.Is(err, domainDevice.ErrDeviceAlreadyExists) {
			return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Device with this IMEI already exists", err)
		}
		return nil, err
	}

	logger.Info("Device registered",
		zap.String("device_id", d.ID.String()),
		zap.String("imei", d.IMEI),
		zap.String("satdesk_id", d.SatDeskID.String()),
		zap.String("event", "device_registered"),
	)

	return ToDeviceResponse(d), nil
}

func (s *Service) Get(ctx context.Context, deviceID uuid.UUID) (*DeviceResponse, error) {
	d, err := s.getDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

func (s *Service) GetByIMEI(ctx context.Context, imei string) (*DeviceResponse, error) {
	d, err := s.deviceRepo.GetByIMEI(ctx, imei)
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Device not found", err)
		}
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

func (s *Service) List(ctx context.Context, filter *DeviceFilterRequest) ([]DeviceResponse, error) {
	devices, err := s.deviceRepo.List(ctx, &domainDevice.Filter{
		Status:       filter.Status,
		Location:     filter.Location,
		SatDeskID:    filter.SatDeskID,
		NeedsCleanup: filter.NeedsCleanup,
		Search:       filter.Search,
	})
	if err != nil {
		return nil, err
	}

	responses := make([]DeviceResponse, len(devices))
	for i, d := range devices {
		responses[i] = *ToDeviceResponse(d)
	}
	return responses, nil
}

// Update patches device metadata. Rental state (status, window, assignment)
// is owned by the allocator and the order lifecycle, not this path.
func (s *Service) Update(ctx context.Context, deviceID uuid.UUID, req *UpdateDeviceRequest) (*DeviceResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid update request", err)
	}

	d, err := s.getDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if req.DeviceNumber != nil {
		d.DeviceNumber = *req.DeviceNumber
	}
	if req.Condition != nil {
		d.Condition = domainDevice.Condition(*req.Condition)
	}
	if req.BatteryHealth != nil {
		d.BatteryHealth = *req.BatteryHealth
	}
	if req.Notes != nil {
		note := utils.SanitizeNote(*req.Notes)
		d.Notes = &note
	}

	if err := s.persist(ctx, d); err != nil {
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

// UpdateStatus applies a manual status change. Active is excluded: devices
// only become active through a claim, so a rental window always exists for
// an active device.
func (s *Service) UpdateStatus(ctx context.Context, deviceID uuid.UUID, req *UpdateStatusRequest) (*DeviceResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid status request", err)
	}

	d, err := s.getDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if d.Status == domainDevice.StatusActive {
		return nil, appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("Device %s is on an active rental; release it first", d.IMEI),
			nil,
		)
	}

	if err := s.deviceRepo.UpdateStatus(ctx, deviceID, req.Status); err != nil {
		return nil, err
	}

	logger.Info("Device status changed",
		zap.String("device_id", d.ID.String()),
		zap.String("imei", d.IMEI),
		zap.String("status", string(req.Status)),
		zap.String("event", "device_status_changed"),
	)

	return s.Get(ctx, deviceID)
}

// Archive retires a device at end of life. Archived devices are kept as
// historical records, never hard-deleted.
func (s *Service) Archive(ctx context.Context, deviceID uuid.UUID) (*DeviceResponse, error) {
	return s.UpdateStatus(ctx, deviceID, &UpdateStatusRequest{Status: domainDevice.StatusArchived})
}

// UpdateChecklist marks cleanup steps done or undone.
func (s *Service) UpdateChecklist(ctx context.Context, deviceID uuid.UUID, req *ChecklistRequest) (*DeviceResponse, error) {
	d, err := s.getDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if req.ArchivePreviousUser != nil {
		d.Cleanup.ArchivePreviousUser = *req.ArchivePreviousUser
	}
	if req.ClearMessages != nil {
		d.Cleanup.ClearMessages = *req.ClearMessages
	}
	if req.ClearContacts != nil {
		d.Cleanup.ClearContacts = *req.ClearContacts
	}
	if req.ResetAccount != nil {
		d.Cleanup.ResetAccount = *req.ResetAccount
	}
	if req.PhysicalInspection != nil {
		d.Cleanup.PhysicalInspection = *req.PhysicalInspection
	}
	if req.FactoryReset != nil {
		d.Cleanup.FactoryReset = *req.FactoryReset
	}

	if err := s.persist(ctx, d); err != nil {
		return nil, err
	}
	return ToDeviceResponse(d), nil
}

// CompleteCleanup returns a fully cleaned device to the available pool. The
// previous customer reference is cleared here and nowhere else, so the
// cleanup gate cannot be skipped.
func (s *Service) CompleteCleanup(ctx context.Context, deviceID uuid.UUID) (*DeviceResponse, error) {
	d, err := s.getDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	if !d.NeedsCleanup() {
		return nil, appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("Device %s does not require cleanup", d.IMEI),
			nil,
		)
	}
	if !d.Cleanup.Complete() {
		return nil, appErrors.NewAppError(
			appErrors.CodeDeviceUnavailable,
			fmt.Sprintf("Device %s has unfinished cleanup steps", d.IMEI),
			nil,
		)
	}

	d.Status = domainDevice.StatusAvailable
	d.Location = domainDevice.LocationIn
	d.CurrentUser = nil
	d.Cleanup = domainDevice.CleanupChecklist{}

	if err := s.persist(ctx, d); err != nil {
		return nil, err
	}

	logger.Info("Device cleanup completed",
		zap.String("device_id", d.ID.String()),
		zap.String("imei", d.IMEI),
		zap.String("event", "device_cleanup_completed"),
	)

	return ToDeviceResponse(d), nil
}

func (s *Service) getDevice(ctx context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	d, err := s.deviceRepo.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Device not found", err)
		}
		return nil, err
	}
	return d, nil
}

func (s *Service) persist(ctx context.Context, d *domainDevice.Device) error {
	err := s.deviceRepo.Update(ctx, d)
	if err == nil {
		return nil
	}
	if errors.Is(err, domainDevice.ErrStaleState) {
		return appErrors.NewAppError(appErrors.CodeStaleState, "Device was modified concurrently; refetch and retry", err)
	}
	return err
}
