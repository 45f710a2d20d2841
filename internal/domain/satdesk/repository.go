package satdesk

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for SatDesk registry operations.
type Repository interface {
	Create(ctx context.Context, desk *SatDesk) error
	GetByID(ctx context.Context, deskID uuid.UUID) (*SatDesk, error)
	List(ctx context.Context) ([]*SatDesk, error)
	Update(ctx context.Context, desk *SatDesk) error
}
