package alert

import (
	"context"

	"github.com/google/uuid"
)

// DismissalStore remembers which alert ids staff have dismissed. The alert
// set itself is recomputed wholesale on every scan; only dismissals persist.
type DismissalStore interface {
	Dismiss(ctx context.Context, alertID uuid.UUID) error
	IsDismissed(ctx context.Context, alertID uuid.UUID) (bool, error)
	Dismissed(ctx context.Context) (map[uuid.UUID]bool, error)
}
