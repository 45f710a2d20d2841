package lifecycle

import (
	"fmt"

	domainOrder "satdesk-manager/internal/domain/order"
	appErrors "satdesk-manager/pkg/errors"
)

// State machine for rental order status transitions.
//
// Orders move strictly forward through the fulfillment pipeline; cancelled
// and completed are terminal. Escalated is a triage marker, not a terminal
// state: staff can pull an escalated order back into processing.
var validTransitions = map[domainOrder.Status][]domainOrder.Status{
	domainOrder.StatusPending: {
		domainOrder.StatusProcessing,
		domainOrder.StatusCancelled,
		domainOrder.StatusEscalated,
	},
	domainOrder.StatusProcessing: {
		domainOrder.StatusReadyToShip,
		domainOrder.StatusCancelled,
		domainOrder.StatusEscalated,
	},
	domainOrder.StatusReadyToShip: {
		domainOrder.StatusShipped,
	},
	domainOrder.StatusShipped: {
		domainOrder.StatusCompleted,
	},
	domainOrder.StatusEscalated: {
		domainOrder.StatusProcessing, // staff resolves and resumes
	},
	domainOrder.StatusCompleted: {
		// Terminal state - no transitions
	},
	domainOrder.StatusCancelled: {
		// Terminal state - no transitions
	},
}

// ValidateTransition checks if a status transition is allowed.
func ValidateTransition(currentStatus, newStatus domainOrder.Status) error {
	allowedStatuses, exists := validTransitions[currentStatus]
	if !exists {
		return appErrors.NewAppError(
			appErrors.CodeInvalidTransition,
			fmt.Sprintf("Unknown current status: %s", currentStatus),
			nil,
		)
	}

	for _, allowed := range allowedStatuses {
		if newStatus == allowed {
			return nil
		}
	}

	return appErrors.NewAppError(
		appErrors.CodeInvalidTransition,
		fmt.Sprintf("Cannot transition from %s to %s", currentStatus, newStatus),
		nil,
	)
}

// GetAllowedTransitions returns allowed next statuses.
func GetAllowedTransitions(currentStatus domainOrder.Status) []domainOrder.Status {
	return validTransitions[currentStatus]
}

// CanCancel reports whether an order in the given status may still be cancelled.
func CanCancel(currentStatus domainOrder.Status) bool {
	return ValidateTransition(currentStatus, domainOrder.StatusCancelled) == nil
}

// IsTerminal reports whether no further transitions are possible.
func IsTerminal(currentStatus domainOrder.Status) bool {
	return len(validTransitions[currentStatus]) == 0
}
