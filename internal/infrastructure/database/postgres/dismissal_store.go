package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"satdesk-manager/internal/domain/alert"
	"satdesk-manager/internal/infrastructure/database/postgres/models"
)

// DismissalStore persists dismissed alert ids on postgres.
type DismissalStore struct {
	db *DB
}

// NewDismissalStore creates a new dismissal store
func NewDismissalStore(db *DB) alert.DismissalStore {
	return &DismissalStore{db: db}
}

func (s *DismissalStore) Dismiss(ctx context.Context, alertID uuid.UUID) error {
	row := models.AlertDismissalModel{
		AlertID:     alertID,
		DismissedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to dismiss alert: %w", err)
	}
	return nil
}

func (s *DismissalStore) IsDismissed(ctx context.Context, alertID uuid.UUID) (bool, error) {
	var row models.AlertDismissalModel
	err := s.db.WithContext(ctx).
		Where("alert_id = ?", alertID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check dismissal: %w", err)
	}
	return true, nil
}

func (s *DismissalStore) Dismissed(ctx context.Context) (map[uuid.UUID]bool, error) {
	var rows []models.AlertDismissalModel
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load dismissals: %w", err)
	}

	dismissed := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		dismissed[row.AlertID] = true
	}
	return dismissed, nil
}
