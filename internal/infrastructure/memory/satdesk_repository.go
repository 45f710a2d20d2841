package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainSatDesk "satdesk-manager/internal/domain/satdesk"
)

// SatDeskRepository is the in-memory SatDesk store.
type SatDeskRepository struct {
	mu    sync.RWMutex
	desks map[uuid.UUID]*domainSatDesk.SatDesk
}

func NewSatDeskRepository() *SatDeskRepository {
	return &SatDeskRepository{
		desks: make(map[uuid.UUID]*domainSatDesk.SatDesk),
	}
}

func (r *SatDeskRepository) Create(_ context.Context, desk *domainSatDesk.SatDesk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.desks {
		if d.Name == desk.Name {
			return domainSatDesk.ErrSatDeskAlreadyExists
		}
	}

	if desk.ID == uuid.Nil {
		desk.ID = uuid.New()
	}
	desk.CreatedAt = time.Now()
	desk.UpdatedAt = desk.CreatedAt

	copied := *desk
	r.desks[desk.ID] = &copied
	return nil
}

func (r *SatDeskRepository) GetByID(_ context.Context, deskID uuid.UUID) (*domainSatDesk.SatDesk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.desks[deskID]
	if !ok {
		return nil, domainSatDesk.ErrSatDeskNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *SatDeskRepository) List(_ context.Context) ([]*domainSatDesk.SatDesk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domainSatDesk.SatDesk, 0, len(r.desks))
	for _, d := range r.desks {
		copied := *d
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

func (r *SatDeskRepository) Update(_ context.Context, desk *domainSatDesk.SatDesk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.desks[desk.ID]; !ok {
		return domainSatDesk.ErrSatDeskNotFound
	}

	desk.UpdatedAt = time.Now()
	copied := *desk
	r.desks[desk.ID] = &copied
	return nil
}
