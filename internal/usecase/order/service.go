package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainDevice "satdesk-manager/internal/domain/device"
	domainOrder "satdesk-manager/internal/domain/order"
	"satdesk-manager/internal/lifecycle"
	"satdesk-manager/internal/logger"
	"satdesk-manager/internal/usecase/allocation"
	appErrors "satdesk-manager/pkg/errors"
	"satdesk-manager/pkg/utils"
	"satdesk-manager/pkg/validation"
)

const (
	releaseRetryAttempts = 5
	releaseRetryBackoff  = 100 * time.Millisecond
)

// Service owns the rental order lifecycle. Every status change goes through
// the state machine in internal/lifecycle, and completeness is recomputed in
// the same write as the data it derives from.
type Service struct {
	orderRepo  domainOrder.Repository
	deviceRepo domainDevice.Repository
	allocator  *allocation.Service
}

func NewService(orderRepo domainOrder.Repository, deviceRepo domainDevice.Repository, allocator *allocation.Service) *Service {
	return &Service{
		orderRepo:  orderRepo,
		deviceRepo: deviceRepo,
		allocator:  allocator,
	}
}

// Create records a draft order. Validation defects are recorded on the order
// rather than rejected: an incomplete order is created with DataComplete
// false, its missing fields listed, and the escalation flag raised.
func (s *Service) Create(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid order request", err)
	}

	orderNumber := strings.TrimSpace(req.OrderNumber)
	if orderNumber == "" {
		orderNumber = generateOrderNumber()
	}

	o := &domainOrder.RentalOrder{
		OrderNumber: orderNumber,
		CustomerInfo: domainOrder.CustomerInfo{
			Name:  req.CustomerInfo.Name,
			Email: req.CustomerInfo.Email,
			Phone: utils.SanitizePhone(req.CustomerInfo.Phone),
		},
		Preferences: domainOrder.Preferences{
			TripWindowDays: req.Preferences.TripWindowDays,
			EmergencyContact: domainOrder.EmergencyContact{
				Name:  req.Preferences.EmergencyContact.Name,
				Phone: utils.SanitizePhone(req.Preferences.EmergencyContact.Phone),
			},
			PresetMessages: req.Preferences.PresetMessages,
		},
		RentalDetails: domainOrder.RentalDetails{
			StartDate:          req.RentalDetails.StartDate,
			EndDate:            req.RentalDetails.EndDate,
			PreferredSatDeskID: req.RentalDetails.PreferredSatDeskID,
		},
		Status: domainOrder.StatusPending,
		Source: domainOrder.Source(req.Source),
	}

	applyCompleteness(o)
	o.NeedsEscalation = !o.DataComplete

	if err := s.orderRepo.Create(ctx, o); err != nil {
		if errors.Is(err, domainOrder.ErrOrderNumberExists) {
			return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Order number already exists", err)
		}
		return nil, err
	}

	logger.Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.Bool("data_complete", o.DataComplete),
		zap.String("event", "order_created"),
	)

	return ToOrderResponse(o), nil
}

func generateOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("SD-%s-%s", time.Now().Format("20060102"), suffix)
}

func (s *Service) Get(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*OrderResponse, error) {
	o, err := s.orderRepo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, domainOrder.ErrOrderNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Order not found", err)
		}
		return nil, err
	}
	return ToOrderResponse(o), nil
}

func (s *Service) List(ctx context.Context, filter *OrderFilterRequest) ([]OrderResponse, error) {
	domainFilter := &domainOrder.Filter{
		Status:          filter.Status,
		Source:          filter.Source,
		NeedsEscalation: filter.NeedsEscalation,
		Search:          filter.Search,
	}

	orders, err := s.orderRepo.List(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, len(orders))
	for i, o := range orders {
		responses[i] = *ToOrderResponse(o)
	}
	return responses, nil
}

// Update merges a field-level patch and recomputes completeness on the merged
// record in the same write, so a stale completeness flag is never visible.
func (s *Service) Update(ctx context.Context, orderID uuid.UUID, req *UpdateOrderRequest) (*OrderResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid update request", err)
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if req.CustomerName != nil {
		o.CustomerInfo.Name = *req.CustomerName
	}
	if req.CustomerEmail != nil {
		o.CustomerInfo.Email = *req.CustomerEmail
	}
	if req.CustomerPhone != nil {
		o.CustomerInfo.Phone = utils.SanitizePhone(*req.CustomerPhone)
	}
	if req.TripWindowDays != nil {
		o.Preferences.TripWindowDays = *req.TripWindowDays
	}
	if req.EmergencyContactName != nil {
		o.Preferences.EmergencyContact.Name = *req.EmergencyContactName
	}
	if req.EmergencyContactPhone != nil {
		o.Preferences.EmergencyContact.Phone = utils.SanitizePhone(*req.EmergencyContactPhone)
	}
	if req.PresetMessages != nil {
		o.Preferences.PresetMessages = *req.PresetMessages
	}
	if req.StartDate != nil {
		o.RentalDetails.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		o.RentalDetails.EndDate = *req.EndDate
	}
	if req.PreferredSatDeskID != nil {
		o.RentalDetails.PreferredSatDeskID = req.PreferredSatDeskID
	}

	applyCompleteness(o)
	if !o.DataComplete {
		o.NeedsEscalation = true
	}

	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// AssignDevice claims a device for a pending order. The claim is delegated to
// the allocator; if it loses a race the order stays pending and the caller
// must pick a fresh candidate.
func (s *Service) AssignDevice(ctx context.Context, orderID uuid.UUID, req *AssignDeviceRequest) (*OrderResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid assignment request", err)
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status != domainOrder.StatusPending {
		return nil, appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("Device assignment requires a pending order; order %s is %s", o.OrderNumber, o.Status),
			nil,
		)
	}

	claimed, err := s.allocator.Claim(ctx, &allocation.ClaimDeviceRequest{
		DeviceID:     req.DeviceID,
		OrderID:      o.ID,
		StartDate:    o.RentalDetails.StartDate,
		EndDate:      o.RentalDetails.EndDate,
		CustomerName: o.CustomerInfo.Name,
	})
	if err != nil {
		// Order stays pending; the caller re-selects against fresh candidates.
		return nil, err
	}

	if claimed.IMEI != req.IMEI {
		s.releaseWithRetry(ctx, claimed.ID)
		return nil, appErrors.NewAppError(
			appErrors.CodeInvalidInput,
			fmt.Sprintf("IMEI %s does not match device %s", req.IMEI, claimed.ID),
			nil,
		)
	}

	now := time.Now()
	o.Status = domainOrder.StatusProcessing
	o.ProcessedAt = &now
	o.AssignedDeviceID = &claimed.ID
	imei := claimed.IMEI
	o.AssignedIMEI = &imei

	if err := s.persist(ctx, o); err != nil {
		// Compensate: the claim must not outlive a failed order write.
		s.releaseWithRetry(ctx, claimed.ID)
		return nil, err
	}

	logger.Info("Device assigned to order",
		zap.String("order_id", o.ID.String()),
		zap.String("device_id", claimed.ID.String()),
		zap.String("imei", claimed.IMEI),
		zap.String("event", "order_device_assigned"),
	)

	return ToOrderResponse(o), nil
}

// MarkReadyToShip moves a processing order to ready_to_ship.
func (s *Service) MarkReadyToShip(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, domainOrder.StatusReadyToShip, nil)
}

// MarkShipped moves a ready_to_ship order to shipped and stamps the time.
func (s *Service) MarkShipped(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, domainOrder.StatusShipped, func(o *domainOrder.RentalOrder) {
		now := time.Now()
		o.ShippedAt = &now
	})
}

// Complete closes out a shipped order. The device comes back through the
// cleanup checklist before it can be rented again.
func (s *Service) Complete(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	resp, err := s.transition(ctx, orderID, domainOrder.StatusCompleted, nil)
	if err != nil {
		return nil, err
	}

	if resp.AssignedDeviceID != nil {
		if returnErr := s.returnWithRetry(ctx, *resp.AssignedDeviceID); returnErr != nil {
			o, getErr := s.getOrder(ctx, orderID)
			if getErr != nil {
				logger.Error("Failed to flag stuck device return",
					zap.String("order_id", orderID.String()),
					zap.Error(getErr),
				)
				return resp, nil
			}
			o.NeedsEscalation = true
			o.Notes = append(o.Notes, "device return failed; manual intervention required")
			if persistErr := s.persist(ctx, o); persistErr != nil {
				logger.Error("Failed to flag stuck device return",
					zap.String("order_id", o.ID.String()),
					zap.Error(persistErr),
				)
				return resp, nil
			}
			return ToOrderResponse(o), nil
		}
	}
	return resp, nil
}

// Cancel aborts an order before shipping. If the order holds a device claim
// the release is a compensating action, retried until it lands; a release
// that will not stick raises the escalation flag instead of silently
// stranding the device.
func (s *Service) Cancel(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ValidateTransition(o.Status, domainOrder.StatusCancelled); err != nil {
		return nil, err
	}

	deviceID := o.AssignedDeviceID
	imei := o.AssignedIMEI

	o.Status = domainOrder.StatusCancelled
	o.AssignedDeviceID = nil
	o.AssignedIMEI = nil
	if imei != nil {
		o.Notes = append(o.Notes, fmt.Sprintf("cancelled; released device %s", *imei))
	}

	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}

	if deviceID != nil {
		if releaseErr := s.releaseWithRetry(ctx, *deviceID); releaseErr != nil {
			o.NeedsEscalation = true
			o.Notes = append(o.Notes, "device release failed; manual intervention required")
			if persistErr := s.persist(ctx, o); persistErr != nil {
				logger.Error("Failed to flag stuck device release",
					zap.String("order_id", o.ID.String()),
					zap.Error(persistErr),
				)
			}
		}
	}

	logger.Info("Order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("event", "order_cancelled"),
	)

	return ToOrderResponse(o), nil
}

// Escalate raises the manual-review flag and records the reason. It is an
// overlay on the lifecycle: the forward status is not changed.
func (s *Service) Escalate(ctx context.Context, orderID uuid.UUID, req *EscalateRequest) (*OrderResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeInvalidInput, "Invalid escalation request", err)
	}

	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if o.Status != domainOrder.StatusPending && o.Status != domainOrder.StatusProcessing {
		return nil, appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("Cannot escalate an order in status %s", o.Status),
			nil,
		)
	}

	o.NeedsEscalation = true
	o.Notes = append(o.Notes, "escalated: "+utils.SanitizeNote(req.Reason))

	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}

	logger.Warn("Order escalated",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("reason", req.Reason),
		zap.String("event", "order_escalated"),
	)

	return ToOrderResponse(o), nil
}

// MarkEscalated parks the order in the escalated triage status.
func (s *Service) MarkEscalated(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, domainOrder.StatusEscalated, func(o *domainOrder.RentalOrder) {
		o.NeedsEscalation = true
	})
}

// Reactivate pulls an escalated order back into processing and clears the
// review flag.
func (s *Service) Reactivate(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, domainOrder.StatusProcessing, func(o *domainOrder.RentalOrder) {
		o.NeedsEscalation = false
	})
}

func (s *Service) transition(ctx context.Context, orderID uuid.UUID, to domainOrder.Status, mutate func(*domainOrder.RentalOrder)) (*OrderResponse, error) {
	o, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ValidateTransition(o.Status, to); err != nil {
		return nil, err
	}

	o.Status = to
	if mutate != nil {
		mutate(o)
	}

	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}

	logger.Info("Order status changed",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("status", string(to)),
		zap.String("event", "order_status_changed"),
	)

	return ToOrderResponse(o), nil
}

func (s *Service) getOrder(ctx context.Context, orderID uuid.UUID) (*domainOrder.RentalOrder, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domainOrder.ErrOrderNotFound) {
			return nil, appErrors.NewAppError(appErrors.CodeNotFound, "Order not found", err)
		}
		return nil, err
	}
	return o, nil
}

func (s *Service) persist(ctx context.Context, o *domainOrder.RentalOrder) error {
	err := s.orderRepo.Update(ctx, o)
	if err == nil {
		return nil
	}
	if errors.Is(err, domainOrder.ErrStaleState) {
		return appErrors.NewAppError(appErrors.CodeStaleState, "Order was modified concurrently; refetch and retry", err)
	}
	return err
}

// returnWithRetry routes the device back through the cleanup gate at the end
// of a rental, with the same retry discipline as the compensating release.
func (s *Service) returnWithRetry(ctx context.Context, deviceID uuid.UUID) error {
	var lastErr error
	for attempt := 1; attempt <= releaseRetryAttempts; attempt++ {
		if _, lastErr = s.deviceRepo.ReturnFromRental(ctx, deviceID); lastErr == nil {
			return nil
		}
		logger.Warn("Device return failed, retrying",
			zap.String("device_id", deviceID.String()),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * releaseRetryBackoff):
		}
	}
	return lastErr
}

func (s *Service) releaseWithRetry(ctx context.Context, deviceID uuid.UUID) error {
	var lastErr error
	for attempt := 1; attempt <= releaseRetryAttempts; attempt++ {
		if _, lastErr = s.allocator.Release(ctx, deviceID); lastErr == nil {
			return nil
		}
		logger.Warn("Device release failed, retrying",
			zap.String("device_id", deviceID.String()),
			zap.Int("attempt", attempt),
			zap.Error(lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * releaseRetryBackoff):
		}
	}
	return lastErr
}
