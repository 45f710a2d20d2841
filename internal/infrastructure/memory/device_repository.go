package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domainDevice "satdesk-manager/internal/domain/device"
)

// DeviceRepository is a mutex-guarded in-memory implementation of the device
// registry. The claim path holds the write lock for the whole check-and-set,
// which gives the compare-and-swap the allocator relies on.
type DeviceRepository struct {
	mu      sync.RWMutex
	devices map[uuid.UUID]*domainDevice.Device
	byIMEI  map[string]uuid.UUID
}

func NewDeviceRepository() *DeviceRepository {
	return &DeviceRepository{
		devices: make(map[uuid.UUID]*domainDevice.Device),
		byIMEI:  make(map[string]uuid.UUID),
	}
}

func cloneDevice(d *domainDevice.Device) *domainDevice.Device {
	c := *d
	if d.RentalStart != nil {
		t := *d.RentalStart
		c.RentalStart = &t
	}
	if d.RentalEnd != nil {
		t := *d.RentalEnd
		c.RentalEnd = &t
	}
	if d.CurrentUser != nil {
		u := *d.CurrentUser
		c.CurrentUser = &u
	}
	if d.CurrentOrderID != nil {
		id := *d.CurrentOrderID
		c.CurrentOrderID = &id
	}
	if d.Notes != nil {
		n := *d.Notes
		c.Notes = &n
	}
	return &c
}

func (r *DeviceRepository) Create(_ context.Context, d *domainDevice.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byIMEI[d.IMEI]; exists {
		return domainDevice.ErrDeviceAlreadyExists
	}

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Version = 1
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt

	r.devices[d.ID] = cloneDevice(d)
	r.byIMEI[d.IMEI] = d.ID
	return nil
}

func (r *DeviceRepository) GetByID(_ context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[deviceID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return cloneDevice(d), nil
}

func (r *DeviceRepository) GetByIMEI(_ context.Context, imei string) (*domainDevice.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byIMEI[imei]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	return cloneDevice(r.devices[id]), nil
}

func (r *DeviceRepository) List(_ context.Context, filter *domainDevice.Filter) ([]*domainDevice.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domainDevice.Device, 0)
	for _, d := range r.devices {
		if !matchesFilter(d, filter) {
			continue
		}
		result = append(result, cloneDevice(d))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DeviceNumber < result[j].DeviceNumber
	})
	return result, nil
}

func matchesFilter(d *domainDevice.Device, filter *domainDevice.Filter) bool {
	if filter == nil {
		return true
	}
	if filter.Status != nil && d.Status != *filter.Status {
		return false
	}
	if filter.Location != nil && d.Location != *filter.Location {
		return false
	}
	if filter.SatDeskID != nil && d.SatDeskID != *filter.SatDeskID {
		return false
	}
	if filter.ExcludeArchived && d.Status == domainDevice.StatusArchived {
		return false
	}
	if filter.NeedsCleanup != nil && d.NeedsCleanup() != *filter.NeedsCleanup {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(d.IMEI), needle) &&
			!strings.Contains(strings.ToLower(d.DeviceNumber), needle) {
			return false
		}
	}
	return true
}

func (r *DeviceRepository) Update(_ context.Context, d *domainDevice.Device) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.devices[d.ID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	if stored.Version != d.Version {
		return domainDevice.ErrStaleState
	}

	d.Version++
	d.UpdatedAt = time.Now()
	d.IMEI = stored.IMEI // identity is immutable
	d.CreatedAt = stored.CreatedAt
	r.devices[d.ID] = cloneDevice(d)
	return nil
}

func (r *DeviceRepository) UpdateStatus(_ context.Context, deviceID uuid.UUID, status domainDevice.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.devices[deviceID]
	if !ok {
		return domainDevice.ErrDeviceNotFound
	}
	stored.Status = status
	if status != domainDevice.StatusActive {
		stored.Location = domainDevice.LocationIn
	}
	stored.Version++
	stored.UpdatedAt = time.Now()
	return nil
}

// Claim atomically couples an available device to an order. The whole
// check-and-set runs under the write lock so concurrent claims on the same
// device cannot both succeed.
func (r *DeviceRepository) Claim(_ context.Context, req domainDevice.ClaimRequest) (*domainDevice.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.devices[req.DeviceID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if !stored.Claimable() {
		return nil, domainDevice.ErrDeviceUnavailable
	}
	if stored.WindowOverlaps(req.RentalStart, req.RentalEnd) {
		return nil, domainDevice.ErrDeviceUnavailable
	}

	start := req.RentalStart
	end := req.RentalEnd
	orderID := req.OrderID
	user := req.CustomerRef

	stored.Status = domainDevice.StatusActive
	stored.Location = domainDevice.LocationOut
	stored.RentalStart = &start
	stored.RentalEnd = &end
	stored.CurrentOrderID = &orderID
	stored.CurrentUser = &user
	stored.Cleanup = domainDevice.CleanupChecklist{}
	stored.Version++
	stored.UpdatedAt = time.Now()

	return cloneDevice(stored), nil
}

// Release returns a claimed device to the available pool, clearing its rental
// window and order linkage. Used as the compensating action on cancellation.
func (r *DeviceRepository) Release(_ context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.devices[deviceID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}

	stored.Status = domainDevice.StatusAvailable
	stored.Location = domainDevice.LocationIn
	stored.RentalStart = nil
	stored.RentalEnd = nil
	stored.CurrentOrderID = nil
	stored.CurrentUser = nil
	stored.Version++
	stored.UpdatedAt = time.Now()

	return cloneDevice(stored), nil
}

// ReturnFromRental records a physical device return at the end of a rental.
// The window and order linkage are cleared but the previous customer stays on
// the record, which is what routes the device through the cleanup checklist
// before it can be claimed again.
func (r *DeviceRepository) ReturnFromRental(_ context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.devices[deviceID]
	if !ok {
		return nil, domainDevice.ErrDeviceNotFound
	}

	stored.Status = domainDevice.StatusMaintenance
	stored.Location = domainDevice.LocationIn
	stored.RentalStart = nil
	stored.RentalEnd = nil
	stored.CurrentOrderID = nil
	stored.Cleanup = domainDevice.CleanupChecklist{}
	stored.Version++
	stored.UpdatedAt = time.Now()

	return cloneDevice(stored), nil
}

func (r *DeviceRepository) CountByDesk(_ context.Context, satDeskID uuid.UUID, filter *domainDevice.Filter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, d := range r.devices {
		if d.SatDeskID != satDeskID {
			continue
		}
		if !matchesFilter(d, filter) {
			continue
		}
		count++
	}
	return count, nil
}
