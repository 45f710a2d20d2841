package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domainOrder "satdesk-manager/internal/domain/order"
	"satdesk-manager/internal/infrastructure/database/postgres/models"
)

// OrderRepository implements rental order storage on postgres. Updates are
// guarded by the version column so overlapping edits surface as ErrStaleState
// instead of silently clobbering each other.
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *DB) domainOrder.Repository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, o *domainOrder.RentalOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.Version = 1
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	dbModel := toOrderModel(o)
	if err := r.db.WithContext(ctx).Create(dbModel).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return domainOrder.ErrOrderNumberExists
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	o.ID = dbModel.ID
	o.CreatedAt = dbModel.CreatedAt
	o.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*domainOrder.RentalOrder, error) {
	var dbModel models.OrderModel
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainOrder.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return toOrderEntity(&dbModel), nil
}

func (r *OrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*domainOrder.RentalOrder, error) {
	var dbModel models.OrderModel
	err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainOrder.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return toOrderEntity(&dbModel), nil
}

func (r *OrderRepository) List(ctx context.Context, filter *domainOrder.Filter) ([]*domainOrder.RentalOrder, error) {
	var dbModels []models.OrderModel

	db := r.db.WithContext(ctx).Model(&models.OrderModel{})
	if filter != nil {
		if filter.Status != nil {
			db = db.Where("status = ?", string(*filter.Status))
		}
		if filter.Source != nil {
			db = db.Where("source = ?", string(*filter.Source))
		}
		if filter.NeedsEscalation != nil {
			db = db.Where("needs_escalation = ?", *filter.NeedsEscalation)
		}
		if filter.Search != "" {
			search := "%" + filter.Search + "%"
			db = db.Where("order_number ILIKE ? OR customer_name ILIKE ? OR customer_email ILIKE ?",
				search, search, search)
		}
	}

	if err := db.Order("created_at DESC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*domainOrder.RentalOrder, len(dbModels))
	for i := range dbModels {
		orders[i] = toOrderEntity(&dbModels[i])
	}
	return orders, nil
}

func (r *OrderRepository) Update(ctx context.Context, o *domainOrder.RentalOrder) error {
	o.UpdatedAt = time.Now()

	dbModel := toOrderModel(o)
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", o.ID, o.Version).
		Updates(map[string]interface{}{
			"customer_name":           dbModel.CustomerName,
			"customer_email":          dbModel.CustomerEmail,
			"customer_phone":          dbModel.CustomerPhone,
			"trip_window_days":        dbModel.TripWindowDays,
			"emergency_contact_name":  dbModel.EmergencyContactName,
			"emergency_contact_phone": dbModel.EmergencyContactPhone,
			"preset_messages":         dbModel.PresetMessages,
			"rental_start_date":       dbModel.RentalStartDate,
			"rental_end_date":         dbModel.RentalEndDate,
			"preferred_sat_desk_id":   dbModel.PreferredSatDeskID,
			"status":                  dbModel.Status,
			"data_complete":           dbModel.DataComplete,
			"missing_fields":          dbModel.MissingFields,
			"needs_escalation":        dbModel.NeedsEscalation,
			"notes":                   dbModel.Notes,
			"assigned_device_id":      dbModel.AssignedDeviceID,
			"assigned_imei":           dbModel.AssignedIMEI,
			"processed_at":            dbModel.ProcessedAt,
			"shipped_at":              dbModel.ShippedAt,
			"version":                 o.Version + 1,
			"updated_at":              o.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var exists int64
		r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", o.ID).Count(&exists)
		if exists == 0 {
			return domainOrder.ErrOrderNotFound
		}
		return domainOrder.ErrStaleState
	}

	o.Version++
	return nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context, status domainOrder.Status) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("status = ?", string(status)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return int(count), nil
}

// Helper functions to convert between domain entities and database models

func toOrderModel(o *domainOrder.RentalOrder) *models.OrderModel {
	return &models.OrderModel{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,

		CustomerName:  o.CustomerInfo.Name,
		CustomerEmail: o.CustomerInfo.Email,
		CustomerPhone: o.CustomerInfo.Phone,

		TripWindowDays:        o.Preferences.TripWindowDays,
		EmergencyContactName:  o.Preferences.EmergencyContact.Name,
		EmergencyContactPhone: o.Preferences.EmergencyContact.Phone,
		PresetMessages:        models.StringSlice(o.Preferences.PresetMessages),

		RentalStartDate:    o.RentalDetails.StartDate,
		RentalEndDate:      o.RentalDetails.EndDate,
		PreferredSatDeskID: o.RentalDetails.PreferredSatDeskID,

		Status: string(o.Status),
		Source: string(o.Source),

		DataComplete:  o.DataComplete,
		MissingFields: models.StringSlice(o.MissingFields),

		NeedsEscalation: o.NeedsEscalation,
		Notes:           models.StringSlice(o.Notes),

		AssignedDeviceID: o.AssignedDeviceID,
		AssignedIMEI:     o.AssignedIMEI,

		Version:     o.Version,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		ProcessedAt: o.ProcessedAt,
		ShippedAt:   o.ShippedAt,
	}
}

func toOrderEntity(m *models.OrderModel) *domainOrder.RentalOrder {
	return &domainOrder.RentalOrder{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		CustomerInfo: domainOrder.CustomerInfo{
			Name:  m.CustomerName,
			Email: m.CustomerEmail,
			Phone: m.CustomerPhone,
		},
		Preferences: domainOrder.Preferences{
			TripWindowDays: m.TripWindowDays,
			EmergencyContact: domainOrder.EmergencyContact{
				Name:  m.EmergencyContactName,
				Phone: m.EmergencyContactPhone,
			},
			PresetMessages: []string(m.PresetMessages),
		},
		RentalDetails: domainOrder.RentalDetails{
			StartDate:          m.RentalStartDate,
			EndDate:            m.RentalEndDate,
			PreferredSatDeskID: m.PreferredSatDeskID,
		},
		Status:           domainOrder.Status(m.Status),
		Source:           domainOrder.Source(m.Source),
		DataComplete:     m.DataComplete,
		MissingFields:    []string(m.MissingFields),
		NeedsEscalation:  m.NeedsEscalation,
		Notes:            []string(m.Notes),
		AssignedDeviceID: m.AssignedDeviceID,
		AssignedIMEI:     m.AssignedIMEI,
		Version:          m.Version,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		ProcessedAt:      m.ProcessedAt,
		ShippedAt:        m.ShippedAt,
	}
}
