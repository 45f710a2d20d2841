package order

import (
	domainOrder "satdesk-manager/internal/domain/order"
)

// CheckCompleteness computes the missing-field set for an order. An order is
// complete iff the customer phone, the emergency contact name and phone, and
// at least one preset message are present. Paths use dotted notation so a UI
// can highlight the exact input.
func CheckCompleteness(o *domainOrder.RentalOrder) []string {
	missing := []string{}

	if o.CustomerInfo.Phone == "" {
		missing = append(missing, domainOrder.FieldCustomerPhone)
	}
	if o.Preferences.EmergencyContact.Name == "" {
		missing = append(missing, domainOrder.FieldEmergencyContactName)
	}
	if o.Preferences.EmergencyContact.Phone == "" {
		missing = append(missing, domainOrder.FieldEmergencyContactPhone)
	}
	if len(o.Preferences.PresetMessages) == 0 {
		missing = append(missing, domainOrder.FieldPresetMessages)
	}

	return missing
}

// applyCompleteness recomputes DataComplete and MissingFields on the order.
// Callers persist the order in the same write, so completeness never drifts
// from the data it was derived from.
func applyCompleteness(o *domainOrder.RentalOrder) {
	o.MissingFields = CheckCompleteness(o)
	o.DataComplete = len(o.MissingFields) == 0
}
