package alert

import (
	"time"

	"github.com/google/uuid"
)

// Alert is one entry in the recomputed alert set. Its ID is derived
// deterministically from (Type, SubjectID) so repeated scans produce stable
// ids and a dismissal survives a rescan.
type Alert struct {
	ID           uuid.UUID  `json:"id"`
	Type         Type       `json:"type"`
	Severity     Severity   `json:"severity"`
	SubjectID    string     `json:"subject_id"`
	DeviceID     *uuid.UUID `json:"device_id,omitempty"`
	OrderID      *uuid.UUID `json:"order_id,omitempty"`
	SatDeskID    *uuid.UUID `json:"satdesk_id,omitempty"`
	DaysUntilDue *int       `json:"days_until_due,omitempty"` // negative = overdue
	Count        int        `json:"count,omitempty"`
	Message      string     `json:"message"`
	CreatedAt    time.Time  `json:"created_at"`
	Dismissed    bool       `json:"dismissed"`
}

type Type string

const (
	TypeRentalExpiring Type = "rental-expiring"
	TypeRentalOverdue  Type = "rental-overdue"
	TypeLowInventory   Type = "low-inventory"
	TypeOrderPending   Type = "order-pending"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for sorting, highest first.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// alertNamespace is fixed so alert ids are reproducible across processes.
var alertNamespace = uuid.MustParse("9f2c1a34-55d0-4b7e-8a17-3c64f0a1b9d2")

// DeterministicID derives the stable id for an alert of the given type about
// the given subject.
func DeterministicID(t Type, subjectID string) uuid.UUID {
	return uuid.NewSHA1(alertNamespace, []byte(string(t)+":"+subjectID))
}
