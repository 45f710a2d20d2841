package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainOrder "satdesk-manager/internal/domain/order"
)

// OrderRepository is the in-memory rental order store. Updates use the same
// optimistic version check as the postgres implementation so callers see
// ErrStaleState on concurrent modification either way.
type OrderRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*domainOrder.RentalOrder
	byNumber map[string]uuid.UUID
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		orders:   make(map[uuid.UUID]*domainOrder.RentalOrder),
		byNumber: make(map[string]uuid.UUID),
	}
}

func cloneOrder(o *domainOrder.RentalOrder) *domainOrder.RentalOrder {
	c := *o
	c.MissingFields = append([]string(nil), o.MissingFields...)
	c.Notes = append([]string(nil), o.Notes...)
	c.Preferences.PresetMessages = append([]string(nil), o.Preferences.PresetMessages...)
	if o.RentalDetails.PreferredSatDeskID != nil {
		id := *o.RentalDetails.PreferredSatDeskID
		c.RentalDetails.PreferredSatDeskID = &id
	}
	if o.AssignedDeviceID != nil {
		id := *o.AssignedDeviceID
		c.AssignedDeviceID = &id
	}
	if o.AssignedIMEI != nil {
		imei := *o.AssignedIMEI
		c.AssignedIMEI = &imei
	}
	if o.ProcessedAt != nil {
		t := *o.ProcessedAt
		c.ProcessedAt = &t
	}
	if o.ShippedAt != nil {
		t := *o.ShippedAt
		c.ShippedAt = &t
	}
	return &c
}

func (r *OrderRepository) Create(_ context.Context, o *domainOrder.RentalOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byNumber[o.OrderNumber]; exists {
		return domainOrder.ErrOrderNumberExists
	}

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	o.Version = 1
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt

	r.orders[o.ID] = cloneOrder(o)
	r.byNumber[o.OrderNumber] = o.ID
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, orderID uuid.UUID) (*domainOrder.RentalOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[orderID]
	if !ok {
		return nil, domainOrder.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (r *OrderRepository) GetByOrderNumber(_ context.Context, orderNumber string) (*domainOrder.RentalOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byNumber[orderNumber]
	if !ok {
		return nil, domainOrder.ErrOrderNotFound
	}
	return cloneOrder(r.orders[id]), nil
}

func (r *OrderRepository) List(_ context.Context, filter *domainOrder.Filter) ([]*domainOrder.RentalOrder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domainOrder.RentalOrder, 0)
	for _, o := range r.orders {
		if !orderMatches(o, filter) {
			continue
		}
		result = append(result, cloneOrder(o))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func orderMatches(o *domainOrder.RentalOrder, filter *domainOrder.Filter) bool {
	if filter == nil {
		return true
	}
	if filter.Status != nil && o.Status != *filter.Status {
		return false
	}
	if filter.Source != nil && o.Source != *filter.Source {
		return false
	}
	if filter.NeedsEscalation != nil && o.NeedsEscalation != *filter.NeedsEscalation {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(o.OrderNumber), needle) &&
			!strings.Contains(strings.ToLower(o.CustomerInfo.Name), needle) &&
			!strings.Contains(strings.ToLower(o.CustomerInfo.Email), needle) {
			return false
		}
	}
	return true
}

func (r *OrderRepository) Update(_ context.Context, o *domainOrder.RentalOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[o.ID]
	if !ok {
		return domainOrder.ErrOrderNotFound
	}
	if stored.Version != o.Version {
		return domainOrder.ErrStaleState
	}

	o.Version++
	o.UpdatedAt = time.Now()
	o.OrderNumber = stored.OrderNumber
	o.CreatedAt = stored.CreatedAt
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *OrderRepository) CountByStatus(_ context.Context, status domainOrder.Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, o := range r.orders {
		if o.Status == status {
			count++
		}
	}
	return count, nil
}
