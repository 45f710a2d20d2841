package alerts

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	domainAlert "satdesk-manager/internal/domain/alert"
	domainDevice "satdesk-manager/internal/domain/device"
	domainOrder "satdesk-manager/internal/domain/order"
	domainSatDesk "satdesk-manager/internal/domain/satdesk"
)

const (
	// lowInventoryThreshold is the stock level below which a SatDesk raises
	// a low-inventory alert.
	lowInventoryThreshold = 3

	// expiringWindowDays is how far ahead of a rental's end date expiry
	// alerts start appearing.
	expiringWindowDays = 3

	// pendingBacklogThreshold is the pending-order count above which the
	// backlog alert escalates from info to warning.
	pendingBacklogThreshold = 5
)

// pendingOrdersSubject identifies the single aggregate backlog alert.
const pendingOrdersSubject = "orders:pending"

// Engine recomputes the full alert set from current registry state. Scan is
// read-only and idempotent: the same snapshots and the same now produce the
// same alerts, ids included.
type Engine struct {
	deviceRepo domainDevice.Repository
	deskRepo   domainSatDesk.Repository
	orderRepo  domainOrder.Repository
	dismissals domainAlert.DismissalStore
}

func NewEngine(
	deviceRepo domainDevice.Repository,
	deskRepo domainSatDesk.Repository,
	orderRepo domainOrder.Repository,
	dismissals domainAlert.DismissalStore,
) *Engine {
	return &Engine{
		deviceRepo: deviceRepo,
		deskRepo:   deskRepo,
		orderRepo:  orderRepo,
		dismissals: dismissals,
	}
}

// Scan produces the deduplicated, severity-ranked alert set as of now.
func (e *Engine) Scan(ctx context.Context, now time.Time) ([]domainAlert.Alert, error) {
	alerts := make([]domainAlert.Alert, 0)

	rentalAlerts, err := e.scanRentals(ctx, now)
	if err != nil {
		return nil, err
	}
	alerts = append(alerts, rentalAlerts...)

	inventoryAlerts, err := e.scanInventory(ctx, now)
	if err != nil {
		return nil, err
	}
	alerts = append(alerts, inventoryAlerts...)

	backlogAlert, err := e.scanPendingBacklog(ctx, now)
	if err != nil {
		return nil, err
	}
	if backlogAlert != nil {
		alerts = append(alerts, *backlogAlert)
	}

	dismissed, err := e.dismissals.Dismissed(ctx)
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		alerts[i].Dismissed = dismissed[alerts[i].ID]
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Severity.Rank() != alerts[j].Severity.Rank() {
			return alerts[i].Severity.Rank() > alerts[j].Severity.Rank()
		}
		if alerts[i].Type != alerts[j].Type {
			return alerts[i].Type < alerts[j].Type
		}
		return alerts[i].SubjectID < alerts[j].SubjectID
	})

	return alerts, nil
}

// DaysUntilDue counts whole days from now to the rental end, rounding up.
// Negative means overdue.
func DaysUntilDue(end, now time.Time) int {
	return int(math.Ceil(end.Sub(now).Hours() / 24))
}

func (e *Engine) scanRentals(ctx context.Context, now time.Time) ([]domainAlert.Alert, error) {
	active := domainDevice.StatusActive
	devices, err := e.deviceRepo.List(ctx, &domainDevice.Filter{Status: &active})
	if err != nil {
		return nil, err
	}

	alerts := make([]domainAlert.Alert, 0)
	for _, d := range devices {
		// A device mid-claim may briefly be active without a window yet;
		// that is not an alert.
		if d.RentalEnd == nil {
			continue
		}

		days := DaysUntilDue(*d.RentalEnd, now)
		deviceID := d.ID
		base := domainAlert.Alert{
			SubjectID: d.ID.String(),
			DeviceID:  &deviceID,
			OrderID:   d.CurrentOrderID,
			CreatedAt: now,
		}
		daysCopy := days
		base.DaysUntilDue = &daysCopy

		switch {
		case days < 0:
			base.Type = domainAlert.TypeRentalOverdue
			base.Severity = domainAlert.SeverityCritical
			base.Message = fmt.Sprintf("Rental on device %s is %d day(s) overdue", d.IMEI, -days)
		case days == 1:
			base.Type = domainAlert.TypeRentalExpiring
			base.Severity = domainAlert.SeverityWarning
			base.Message = fmt.Sprintf("Rental on device %s expires tomorrow", d.IMEI)
		case days <= expiringWindowDays:
			// Due-today (0) lands here alongside 2-3 days out.
			base.Type = domainAlert.TypeRentalExpiring
			base.Severity = domainAlert.SeverityInfo
			base.Message = fmt.Sprintf("Rental on device %s expires in %d day(s)", d.IMEI, days)
		default:
			continue
		}

		base.ID = domainAlert.DeterministicID(base.Type, base.SubjectID)
		alerts = append(alerts, base)
	}
	return alerts, nil
}

func (e *Engine) scanInventory(ctx context.Context, now time.Time) ([]domainAlert.Alert, error) {
	desks, err := e.deskRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]domainAlert.Alert, 0)
	for _, desk := range desks {
		if !desk.IsActive {
			continue
		}

		in := domainDevice.LocationIn
		available, err := e.deviceRepo.CountByDesk(ctx, desk.ID, &domainDevice.Filter{
			Location:        &in,
			ExcludeArchived: true,
		})
		if err != nil {
			return nil, err
		}

		deskID := desk.ID
		if available < lowInventoryThreshold {
			severity := domainAlert.SeverityWarning
			if available == 0 {
				severity = domainAlert.SeverityCritical
			}
			subject := desk.ID.String()
			alerts = append(alerts, domainAlert.Alert{
				ID:        domainAlert.DeterministicID(domainAlert.TypeLowInventory, subject),
				Type:      domainAlert.TypeLowInventory,
				Severity:  severity,
				SubjectID: subject,
				SatDeskID: &deskID,
				Count:     available,
				Message:   fmt.Sprintf("SatDesk %s has %d device(s) in stock", desk.Name, available),
				CreatedAt: now,
			})
		}

		// Quota is a soft invariant: holding more devices than the desk's
		// quota surfaces as an alert, never as a hard failure.
		total, err := e.deviceRepo.CountByDesk(ctx, desk.ID, &domainDevice.Filter{ExcludeArchived: true})
		if err != nil {
			return nil, err
		}
		if total > desk.DeviceQuota {
			subject := desk.ID.String() + ":quota"
			alerts = append(alerts, domainAlert.Alert{
				ID:        domainAlert.DeterministicID(domainAlert.TypeLowInventory, subject),
				Type:      domainAlert.TypeLowInventory,
				Severity:  domainAlert.SeverityWarning,
				SubjectID: subject,
				SatDeskID: &deskID,
				Count:     total,
				Message:   fmt.Sprintf("SatDesk %s holds %d devices over a quota of %d", desk.Name, total, desk.DeviceQuota),
				CreatedAt: now,
			})
		}
	}
	return alerts, nil
}

func (e *Engine) scanPendingBacklog(ctx context.Context, now time.Time) (*domainAlert.Alert, error) {
	pending, err := e.orderRepo.CountByStatus(ctx, domainOrder.StatusPending)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		return nil, nil
	}

	severity := domainAlert.SeverityInfo
	if pending > pendingBacklogThreshold {
		severity = domainAlert.SeverityWarning
	}

	return &domainAlert.Alert{
		ID:        domainAlert.DeterministicID(domainAlert.TypeOrderPending, pendingOrdersSubject),
		Type:      domainAlert.TypeOrderPending,
		Severity:  severity,
		SubjectID: pendingOrdersSubject,
		Count:     pending,
		Message:   fmt.Sprintf("%d order(s) waiting for device assignment", pending),
		CreatedAt: now,
	}, nil
}

// Dismiss hides the alert with the given id on subsequent scans. Dismissal
// is keyed by the deterministic id, so a dismissed expiring alert stays
// hidden but the same device going overdue produces a new, undismissed id.
func (e *Engine) Dismiss(ctx context.Context, alertID uuid.UUID) error {
	return e.dismissals.Dismiss(ctx, alertID)
}
