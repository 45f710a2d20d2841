package order

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for rental order storage.
//
// Update performs an optimistic version check: the stored record must still
// carry the version the caller read, otherwise ErrStaleState is returned.
type Repository interface {
	Create(ctx context.Context, o *RentalOrder) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*RentalOrder, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*RentalOrder, error)
	List(ctx context.Context, filter *Filter) ([]*RentalOrder, error)
	Update(ctx context.Context, o *RentalOrder) error
	CountByStatus(ctx context.Context, status Status) (int, error)
}

// Filter represents filtering options for listing orders.
type Filter struct {
	Status          *Status
	Source          *Source
	NeedsEscalation *bool
	Search          string
}
