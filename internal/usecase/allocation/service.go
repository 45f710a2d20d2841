package allocation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainDevice "satdesk-manager/internal/domain/device"
	"satdesk-manager/internal/logger"
	appErrors "satdesk-manager/pkg/errors"
	"satdesk-manager/pkg/validation"
)

// Service matches rental orders against the device registry and performs the
// atomic claim that couples a device to an order. The claim itself is
// delegated to the repository so the check-and-set is indivisible; ranking
// only drives suggestions and never decides who wins a race.
type Service struct {
	deviceRepo domainDevice.Repository
}

func NewService(deviceRepo domainDevice.Repository) *Service {
	return &Service{deviceRepo: deviceRepo}
}

// FindCandidates lists devices that could serve a rental over the given
// window, ranked best-first. Cleanup-gated devices are included only on
// request, and only when their checklist is complete.
func (s *Service) FindCandidates(ctx context.Context, req *CandidateRequest) ([]CandidateResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid candidate request", err)
	}

	devices, err := s.candidateDevices(ctx, req)
	if err != nil {
		return nil, err
	}

	rankDevices(devices)

	responses := make([]CandidateResponse, len(devices))
	for i, d := range devices {
		responses[i] = toCandidateResponse(d, i < recommendedCount)
	}
	return responses, nil
}

// Recommend returns the top-ranked candidates only.
func (s *Service) Recommend(ctx context.Context, req *CandidateRequest) ([]CandidateResponse, error) {
	candidates, err := s.FindCandidates(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) > recommendedCount {
		candidates = candidates[:recommendedCount]
	}
	return candidates, nil
}

func (s *Service) candidateDevices(ctx context.Context, req *CandidateRequest) ([]*domainDevice.Device, error) {
	filter := &domainDevice.Filter{SatDeskID: req.SatDeskID}
	devices, err := s.deviceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	candidates := make([]*domainDevice.Device, 0, len(devices))
	for _, d := range devices {
		if d.NeedsCleanup() {
			if !req.IncludeCleanup || !d.Cleanup.Complete() {
				continue
			}
		} else if d.Status != domainDevice.StatusAvailable {
			continue
		}
		if d.WindowOverlaps(req.StartDate, req.EndDate) {
			continue
		}
		candidates = append(candidates, d)
	}
	return candidates, nil
}

// Claim atomically transitions one device into active use for an order.
// A lost race or an incomplete cleanup checklist surfaces as
// DEVICE_UNAVAILABLE; the caller must re-select from a fresh candidate list,
// there is no silent substitution.
func (s *Service) Claim(ctx context.Context, req *ClaimDeviceRequest) (*domainDevice.Device, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid claim request", err)
	}

	claimed, err := s.deviceRepo.Claim(ctx, domainDevice.ClaimRequest{
		DeviceID:    req.DeviceID,
		RentalStart: req.StartDate,
		RentalEnd:   req.EndDate,
		OrderID:     req.OrderID,
		CustomerRef: req.CustomerName,
	})
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Device not found", err)
		}
		if errors.Is(err, domainDevice.ErrDeviceUnavailable) {
			return nil, appErrors.NewAppError(appErrors.CodeDeviceUnavailable, "Device is not available for this window", err)
		}
		return nil, err
	}

	logger.Info("Device claimed",
		zap.String("device_id", claimed.ID.String()),
		zap.String("imei", claimed.IMEI),
		zap.String("order_id", req.OrderID.String()),
		zap.String("event", "device_claimed"),
	)

	return claimed, nil
}

// Release returns a device to the available pool.
func (s *Service) Release(ctx context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	released, err := s.deviceRepo.Release(ctx, deviceID)
	if err != nil {
		if errors.Is(err, domainDevice.ErrDeviceNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Device not found", err)
		}
		return nil, err
	}

	logger.Info("Device released",
		zap.String("device_id", released.ID.String()),
		zap.String("imei", released.IMEI),
		zap.String("event", "device_released"),
	)

	return released, nil
}

// AllocateBulk claims up to DeviceCount devices in ranked order. When stock
// runs short the result carries what was claimed plus the shortfall count;
// the caller decides whether partial fulfillment is acceptable.
func (s *Service) AllocateBulk(ctx context.Context, req *BulkAllocationRequest) (*BulkAllocationResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid bulk allocation request", err)
	}

	candidates, err := s.candidateDevices(ctx, &CandidateRequest{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		SatDeskID: req.SatDeskID,
	})
	if err != nil {
		return nil, err
	}
	rankDevices(candidates)

	claimed := make([]CandidateResponse, 0, req.DeviceCount)
	for _, candidate := range candidates {
		if len(claimed) == req.DeviceCount {
			break
		}

		d, err := s.deviceRepo.Claim(ctx, domainDevice.ClaimRequest{
			DeviceID:    candidate.ID,
			RentalStart: req.StartDate,
			RentalEnd:   req.EndDate,
			OrderID:     req.OrderID,
			CustomerRef: req.CustomerName,
		})
		if err != nil {
			// Lost a race on this candidate; move on to the next one.
			if errors.Is(err, domainDevice.ErrDeviceUnavailable) || errors.Is(err, domainDevice.ErrDeviceNotFound) {
				continue
			}
			// Any other failure aborts the batch; devices claimed so far
			// must not stay coupled to an order that never got them.
			s.rollbackClaims(ctx, claimed)
			return nil, err
		}
		claimed = append(claimed, toCandidateResponse(d, false))
	}

	shortfall := req.DeviceCount - len(claimed)
	if shortfall > 0 {
		logger.Warn("Bulk allocation fulfilled partially",
			zap.Int("requested", req.DeviceCount),
			zap.Int("claimed", len(claimed)),
			zap.Int("shortfall", shortfall),
			zap.String("order_id", req.OrderID.String()),
		)
	}

	return &BulkAllocationResponse{
		Requested: req.DeviceCount,
		Claimed:   claimed,
		Shortfall: shortfall,
	}, nil
}

const (
	rollbackRetryAttempts = 5
	rollbackRetryBackoff  = 100 * time.Millisecond
)

// rollbackClaims is the compensating action for an aborted bulk allocation:
// every device claimed before the failure is released again. Each release is
// retried; a release that will not stick is logged for manual follow-up.
func (s *Service) rollbackClaims(ctx context.Context, claimed []CandidateResponse) {
	for _, c := range claimed {
		if err := s.releaseWithRetry(ctx, c.DeviceID); err != nil {
			logger.Error("Failed to roll back claimed device, manual intervention required",
				zap.String("device_id", c.DeviceID.String()),
				zap.String("imei", c.IMEI),
				zap.Error(err),
			)
		}
	}
}

func (s *Service) releaseWithRetry(ctx context.Context, deviceID uuid.UUID) error {
	var lastErr error
	for attempt := 1; attempt <= rollbackRetryAttempts; attempt++ {
		if _, lastErr = s.deviceRepo.Release(ctx, deviceID); lastErr == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * rollbackRetryBackoff):
		}
	}
	return lastErr
}
