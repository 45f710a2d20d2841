package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertDismissalModel records which alert ids staff have dismissed. Alert ids
// are deterministic per subject, so a row keeps the same alert suppressed
// across rescans.
type AlertDismissalModel struct {
	AlertID     uuid.UUID `gorm:"type:uuid;primary_key"`
	DismissedAt time.Time `gorm:"not null"`
}

func (AlertDismissalModel) TableName() string {
	return "alert_dismissals"
}
