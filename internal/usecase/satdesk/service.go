package satdesk

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainDevice "satdesk-manager/internal/domain/device"
	domainSatDesk "satdesk-manager/internal/domain/satdesk"
	"satdesk-manager/internal/logger"
	appErrors "satdesk-manager/pkg/errors"
	"satdesk-manager/pkg/validation"
)

// Service implements SatDesk registry use cases. Device counts are derived
// from the device registry on read and never stored on the desk record.
type Service struct {
	deskRepo   domainSatDesk.Repository
	deviceRepo domainDevice.Repository
}

func NewService(deskRepo domainSatDesk.Repository, deviceRepo domainDevice.Repository) *Service {
	return &Service{
		deskRepo:   deskRepo,
		deviceRepo: deviceRepo,
	}
}

func (s *Service) Create(ctx context.Context, req *CreateSatDeskRequest) (*SatDeskResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid SatDesk request", err)
	}

	desk := &domainSatDesk.SatDesk{
		Name:        req.Name,
		DeviceQuota: req.DeviceQuota,
		IsActive:    true,
	}

	if err := s.deskRepo.Create(ctx, desk); err != nil {
		if errors.Is(err, domainSatDesk.ErrSatDeskAlreadyExists) {
			return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "SatDesk with this name already exists", err)
		}
		return nil, err
	}

	logger.Info("SatDesk created",
		zap.String("satdesk_id", desk.ID.String()),
		zap.String("name", desk.Name),
		zap.Int("quota", desk.DeviceQuota),
		zap.String("event", "satdesk_created"),
	)

	return toSatDeskResponse(desk, 0, 0), nil
}

func (s *Service) Get(ctx context.Context, deskID uuid.UUID) (*SatDeskResponse, error) {
	desk, err := s.getDesk(ctx, deskID)
	if err != nil {
		return nil, err
	}
	return s.withCounts(ctx, desk)
}

func (s *Service) List(ctx context.Context) ([]SatDeskResponse, error) {
	desks, err := s.deskRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]SatDeskResponse, 0, len(desks))
	for _, desk := range desks {
		resp, err := s.withCounts(ctx, desk)
		if err != nil {
			return nil, err
		}
		responses = append(responses, *resp)
	}
	return responses, nil
}

// DeviceCount returns the number of non-archived devices owned by the desk.
func (s *Service) DeviceCount(ctx context.Context, deskID uuid.UUID) (int, error) {
	if _, err := s.getDesk(ctx, deskID); err != nil {
		return 0, err
	}
	return s.deviceRepo.CountByDesk(ctx, deskID, &domainDevice.Filter{ExcludeArchived: true})
}

func (s *Service) Update(ctx context.Context, deskID uuid.UUID, req *UpdateSatDeskRequest) (*SatDeskResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid SatDesk request", err)
	}

	desk, err := s.getDesk(ctx, deskID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		desk.Name = *req.Name
	}
	if req.DeviceQuota != nil {
		desk.DeviceQuota = *req.DeviceQuota
	}
	if req.IsActive != nil {
		desk.IsActive = *req.IsActive
	}

	if err := s.deskRepo.Update(ctx, desk); err != nil {
		return nil, err
	}

	return s.withCounts(ctx, desk)
}

func (s *Service) withCounts(ctx context.Context, desk *domainSatDesk.SatDesk) (*SatDeskResponse, error) {
	total, err := s.deviceRepo.CountByDesk(ctx, desk.ID, &domainDevice.Filter{ExcludeArchived: true})
	if err != nil {
		return nil, err
	}

	in := domainDevice.LocationIn
	available, err := s.deviceRepo.CountByDesk(ctx, desk.ID, &domainDevice.Filter{
		Location:        &in,
		ExcludeArchived: true,
	})
	if err != nil {
		return nil, err
	}

	return toSatDeskResponse(desk, total, available), nil
}

func (s *Service) getDesk(ctx context.Context, deskID uuid.UUID) (*domainSatDesk.SatDesk, error) {
	desk, err := s.deskRepo.GetByID(ctx, deskID)
	if err != nil {
		if errors.Is(err, domainSatDesk.ErrSatDeskNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "SatDesk not found", err)
		}
		return nil, err
	}
	return desk, nil
}
