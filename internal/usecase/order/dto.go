package order

import (
	"time"

	"github.com/google/uuid"

	domainOrder "satdesk-manager/internal/domain/order"
)

type CustomerInfoRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

type EmergencyContactRequest struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

type PreferencesRequest struct {
	TripWindowDays   int                     `json:"trip_window_days" validate:"omitempty,min=1,max=365"`
	EmergencyContact EmergencyContactRequest `json:"emergency_contact"`
	PresetMessages   []string                `json:"preset_messages" validate:"omitempty,max=20,dive,max=200"`
}

type RentalDetailsRequest struct {
	StartDate          time.Time  `json:"start_date" validate:"required"`
	EndDate            time.Time  `json:"end_date" validate:"required,gtfield=StartDate"`
	PreferredSatDeskID *uuid.UUID `json:"preferred_satdesk_id" validate:"omitempty,uuid"`
}

// CreateOrderRequest records a draft order. Incomplete customer data is not
// rejected: the defect is recorded on the order instead.
type CreateOrderRequest struct {
	OrderNumber   string               `json:"order_number" validate:"omitempty,min=3,max=50"`
	CustomerInfo  CustomerInfoRequest  `json:"customer_info" validate:"required"`
	Preferences   PreferencesRequest   `json:"preferences"`
	RentalDetails RentalDetailsRequest `json:"rental_details" validate:"required"`
	Source        string               `json:"source" validate:"required,oneof=website portal manual"`
}

// UpdateOrderRequest is a field-level patch; completeness is recomputed on
// the merged record in the same write.
type UpdateOrderRequest struct {
	CustomerName          *string    `json:"customer_name" validate:"omitempty,min=2,max=100"`
	CustomerEmail         *string    `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone         *string    `json:"customer_phone" validate:"omitempty,phone"`
	TripWindowDays        *int       `json:"trip_window_days" validate:"omitempty,min=1,max=365"`
	EmergencyContactName  *string    `json:"emergency_contact_name" validate:"omitempty,max=100"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone" validate:"omitempty,phone"`
	PresetMessages        *[]string  `json:"preset_messages" validate:"omitempty,max=20,dive,max=200"`
	StartDate             *time.Time `json:"start_date"`
	EndDate               *time.Time `json:"end_date"`
	PreferredSatDeskID    *uuid.UUID `json:"preferred_satdesk_id" validate:"omitempty,uuid"`
}

type AssignDeviceRequest struct {
	DeviceID uuid.UUID `json:"device_id" validate:"required,uuid"`
	IMEI     string    `json:"imei" validate:"required,imei"`
}

type EscalateRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type OrderFilterRequest struct {
	Status          *domainOrder.Status `form:"status"`
	Source          *domainOrder.Source `form:"source"`
	NeedsEscalation *bool               `form:"needs_escalation"`
	Search          string              `form:"search"`
}

type OrderResponse struct {
	ID                 uuid.UUID               `json:"id"`
	OrderNumber        string                  `json:"order_number"`
	CustomerName       string                  `json:"customer_name"`
	CustomerEmail      string                  `json:"customer_email"`
	CustomerPhone      string                  `json:"customer_phone"`
	TripWindowDays     int                     `json:"trip_window_days"`
	EmergencyContact   EmergencyContactRequest `json:"emergency_contact"`
	PresetMessages     []string                `json:"preset_messages"`
	StartDate          time.Time               `json:"start_date"`
	EndDate            time.Time               `json:"end_date"`
	PreferredSatDeskID *uuid.UUID              `json:"preferred_satdesk_id,omitempty"`
	Status             domainOrder.Status      `json:"status"`
	Source             domainOrder.Source      `json:"source"`
	DataComplete       bool                    `json:"data_complete"`
	MissingFields      []string                `json:"missing_fields"`
	NeedsEscalation    bool                    `json:"needs_escalation"`
	Notes              []string                `json:"notes"`
	AssignedDeviceID   *uuid.UUID              `json:"assigned_device_id,omitempty"`
	AssignedIMEI       *string                 `json:"assigned_imei,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	ProcessedAt        *time.Time              `json:"processed_at,omitempty"`
	ShippedAt          *time.Time              `json:"shipped_at,omitempty"`
}

func ToOrderResponse(o *domainOrder.RentalOrder) *OrderResponse {
	if o == nil {
		return nil
	}
	return &OrderResponse{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		CustomerName:   o.CustomerInfo.Name,
		CustomerEmail:  o.CustomerInfo.Email,
		CustomerPhone:  o.CustomerInfo.Phone,
		TripWindowDays: o.Preferences.TripWindowDays,
		EmergencyContact: EmergencyContactRequest{
			Name:  o.Preferences.EmergencyContact.Name,
			Phone: o.Preferences.EmergencyContact.Phone,
		},
		PresetMessages:     o.Preferences.PresetMessages,
		StartDate:          o.RentalDetails.StartDate,
		EndDate:            o.RentalDetails.EndDate,
		PreferredSatDeskID: o.RentalDetails.PreferredSatDeskID,
		Status:             o.Status,
		Source:             o.Source,
		DataComplete:       o.DataComplete,
		MissingFields:      o.MissingFields,
		NeedsEscalation:    o.NeedsEscalation,
		Notes:              o.Notes,
		AssignedDeviceID:   o.AssignedDeviceID,
		AssignedIMEI:       o.AssignedIMEI,
		CreatedAt:          o.CreatedAt,
		ProcessedAt:        o.ProcessedAt,
		ShippedAt:          o.ShippedAt,
	}
}
