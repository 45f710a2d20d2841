package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domainSatdesk "satdesk-manager/internal/domain/satdesk"
	"satdesk-manager/internal/infrastructure/database/postgres/models"
)

// SatDeskRepository implements the SatDesk registry on postgres.
type SatDeskRepository struct {
	db *DB
}

// NewSatDeskRepository creates a new SatDesk repository
func NewSatDeskRepository(db *DB) domainSatdesk.Repository {
	return &SatDeskRepository{db: db}
}

func (r *SatDeskRepository) Create(ctx context.Context, desk *domainSatdesk.SatDesk) error {
	if desk.ID == uuid.Nil {
		desk.ID = uuid.New()
	}
	desk.CreatedAt = time.Now()
	desk.UpdatedAt = desk.CreatedAt

	dbModel := toSatDeskModel(desk)
	if err := r.db.WithContext(ctx).Create(dbModel).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return domainSatdesk.ErrSatDeskAlreadyExists
		}
		return fmt.Errorf("failed to create sat desk: %w", err)
	}

	desk.ID = dbModel.ID
	desk.CreatedAt = dbModel.CreatedAt
	desk.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *SatDeskRepository) GetByID(ctx context.Context, deskID uuid.UUID) (*domainSatdesk.SatDesk, error) {
	var dbModel models.SatDeskModel
	err := r.db.WithContext(ctx).
		Where("id = ?", deskID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainSatdesk.ErrSatDeskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sat desk: %w", err)
	}

	return toSatDeskEntity(&dbModel), nil
}

func (r *SatDeskRepository) List(ctx context.Context) ([]*domainSatdesk.SatDesk, error) {
	var dbModels []models.SatDeskModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list sat desks: %w", err)
	}

	desks := make([]*domainSatdesk.SatDesk, len(dbModels))
	for i := range dbModels {
		desks[i] = toSatDeskEntity(&dbModels[i])
	}
	return desks, nil
}

func (r *SatDeskRepository) Update(ctx context.Context, desk *domainSatdesk.SatDesk) error {
	desk.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).
		Model(&models.SatDeskModel{}).
		Where("id = ?", desk.ID).
		Updates(map[string]interface{}{
			"name":         desk.Name,
			"device_quota": desk.DeviceQuota,
			"is_active":    desk.IsActive,
			"updated_at":   desk.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update sat desk: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainSatdesk.ErrSatDeskNotFound
	}

	return nil
}

func toSatDeskModel(d *domainSatdesk.SatDesk) *models.SatDeskModel {
	return &models.SatDeskModel{
		ID:          d.ID,
		Name:        d.Name,
		DeviceQuota: d.DeviceQuota,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toSatDeskEntity(m *models.SatDeskModel) *domainSatdesk.SatDesk {
	return &domainSatdesk.SatDesk{
		ID:          m.ID,
		Name:        m.Name,
		DeviceQuota: m.DeviceQuota,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
