package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	domainOrder "satdesk-manager/internal/domain/order"
)

func completeOrder() *domainOrder.RentalOrder {
	return &domainOrder.RentalOrder{
		CustomerInfo: domainOrder.CustomerInfo{
			Name:  "Alex Mercer",
			Email: "alex@example.com",
			Phone: "+15550001111",
		},
		Preferences: domainOrder.Preferences{
			EmergencyContact: domainOrder.EmergencyContact{
				Name:  "Jordan Mercer",
				Phone: "+15550002222",
			},
			PresetMessages: []string{"Checked in, all OK"},
		},
	}
}

func TestCheckCompleteness(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(o *domainOrder.RentalOrder)
		missing []string
	}{
		{
			name:    "complete order has no missing fields",
			mutate:  func(o *domainOrder.RentalOrder) {},
			missing: []string{},
		},
		{
			name: "missing customer phone",
			mutate: func(o *domainOrder.RentalOrder) {
				o.CustomerInfo.Phone = ""
			},
			missing: []string{domainOrder.FieldCustomerPhone},
		},
		{
			name: "missing emergency contact name",
			mutate: func(o *domainOrder.RentalOrder) {
				o.Preferences.EmergencyContact.Name = ""
			},
			missing: []string{domainOrder.FieldEmergencyContactName},
		},
		{
			name: "missing emergency contact phone",
			mutate: func(o *domainOrder.RentalOrder) {
				o.Preferences.EmergencyContact.Phone = ""
			},
			missing: []string{domainOrder.FieldEmergencyContactPhone},
		},
		{
			name: "no preset messages",
			mutate: func(o *domainOrder.RentalOrder) {
				o.Preferences.PresetMessages = nil
			},
			missing: []string{domainOrder.FieldPresetMessages},
		},
		{
			name: "everything missing",
			mutate: func(o *domainOrder.RentalOrder) {
				o.CustomerInfo.Phone = ""
				o.Preferences.EmergencyContact = domainOrder.EmergencyContact{}
				o.Preferences.PresetMessages = nil
			},
			missing: []string{
				domainOrder.FieldCustomerPhone,
				domainOrder.FieldEmergencyContactName,
				domainOrder.FieldEmergencyContactPhone,
				domainOrder.FieldPresetMessages,
			},
		},
		{
			name: "customer name and email are not part of the rule",
			mutate: func(o *domainOrder.RentalOrder) {
				o.CustomerInfo.Name = ""
				o.CustomerInfo.Email = ""
			},
			missing: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := completeOrder()
			tt.mutate(o)
			assert.Equal(t, tt.missing, CheckCompleteness(o))
		})
	}
}

func TestApplyCompletenessKeepsFlagConsistent(t *testing.T) {
	o := completeOrder()
	applyCompleteness(o)
	assert.True(t, o.DataComplete)
	assert.Empty(t, o.MissingFields)

	o.CustomerInfo.Phone = ""
	applyCompleteness(o)
	assert.False(t, o.DataComplete)
	assert.Equal(t, []string{domainOrder.FieldCustomerPhone}, o.MissingFields)
	assert.Equal(t, o.DataComplete, len(o.MissingFields) == 0)
}
