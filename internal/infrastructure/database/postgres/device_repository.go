package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainDevice "satdesk-manager/internal/domain/device"
	"satdesk-manager/internal/infrastructure/database/postgres/models"
)

// needsCleanupExpr mirrors Device.NeedsCleanup for SQL filtering.
const needsCleanupExpr = "(status = 'archived' OR (current_customer IS NOT NULL AND status NOT IN ('active', 'pending')))"

// DeviceRepository implements the device registry on postgres. Claims take a
// row lock so the availability check and the status change are one atomic
// step; plain updates are guarded by the version column instead.
type DeviceRepository struct {
	db *DB
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *DB) domainDevice.Repository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) Create(ctx context.Context, d *domainDevice.Device) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.Version = 1
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt

	dbModel := toDeviceModel(d)
	if err := r.db.WithContext(ctx).Create(dbModel).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key value") {
			return domainDevice.ErrDeviceAlreadyExists
		}
		return fmt.Errorf("failed to create device: %w", err)
	}

	d.ID = dbModel.ID
	d.CreatedAt = dbModel.CreatedAt
	d.UpdatedAt = dbModel.UpdatedAt

	return nil
}

func (r *DeviceRepository) GetByID(ctx context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.WithContext(ctx).
		Where("id = ?", deviceID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) GetByIMEI(ctx context.Context, imei string) (*domainDevice.Device, error) {
	var dbModel models.DeviceModel
	err := r.db.WithContext(ctx).
		Where("imei = ?", imei).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainDevice.ErrDeviceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	return toDeviceEntity(&dbModel), nil
}

func (r *DeviceRepository) List(ctx context.Context, filter *domainDevice.Filter) ([]*domainDevice.Device, error) {
	var dbModels []models.DeviceModel

	db := applyDeviceFilter(r.db.WithContext(ctx).Model(&models.DeviceModel{}), filter)
	if err := db.Order("device_number ASC").Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}

	devices := make([]*domainDevice.Device, len(dbModels))
	for i := range dbModels {
		devices[i] = toDeviceEntity(&dbModels[i])
	}
	return devices, nil
}

func applyDeviceFilter(db *gorm.DB, filter *domainDevice.Filter) *gorm.DB {
	if filter == nil {
		return db
	}
	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.Location != nil {
		db = db.Where("location = ?", string(*filter.Location))
	}
	if filter.SatDeskID != nil {
		db = db.Where("sat_desk_id = ?", *filter.SatDeskID)
	}
	if filter.ExcludeArchived {
		db = db.Where("status != 'archived'")
	}
	if filter.NeedsCleanup != nil {
		if *filter.NeedsCleanup {
			db = db.Where(needsCleanupExpr)
		} else {
			db = db.Where("NOT " + needsCleanupExpr)
		}
	}
	if filter.Search != "" {
		search := "%" + filter.Search + "%"
		db = db.Where("imei ILIKE ? OR device_number ILIKE ?", search, search)
	}
	return db
}

func (r *DeviceRepository) Update(ctx context.Context, d *domainDevice.Device) error {
	d.UpdatedAt = time.Now()

	dbModel := toDeviceModel(d)
	result := r.db.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ? AND version = ?", d.ID, d.Version).
		Updates(map[string]interface{}{
			"device_number":                 dbModel.DeviceNumber,
			"sat_desk_id":                   dbModel.SatDeskID,
			"status":                        dbModel.Status,
			"location":                      dbModel.Location,
			"rental_start":                  dbModel.RentalStart,
			"rental_end":                    dbModel.RentalEnd,
			"current_customer":              dbModel.CurrentUser,
			"current_order_id":              dbModel.CurrentOrderID,
			"condition":                     dbModel.Condition,
			"battery_health":                dbModel.BatteryHealth,
			"notes":                         dbModel.Notes,
			"cleanup_archive_previous_user": dbModel.CleanupArchivePreviousUser,
			"cleanup_clear_messages":        dbModel.CleanupClearMessages,
			"cleanup_clear_contacts":        dbModel.CleanupClearContacts,
			"cleanup_reset_account":         dbModel.CleanupResetAccount,
			"cleanup_physical_inspection":   dbModel.CleanupPhysicalInspection,
			"cleanup_factory_reset":         dbModel.CleanupFactoryReset,
			"version":                       d.Version + 1,
			"updated_at":                    d.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var exists int64
		r.db.WithContext(ctx).Model(&models.DeviceModel{}).Where("id = ?", d.ID).Count(&exists)
		if exists == 0 {
			return domainDevice.ErrDeviceNotFound
		}
		return domainDevice.ErrStaleState
	}

	d.Version++
	return nil
}

func (r *DeviceRepository) UpdateStatus(ctx context.Context, deviceID uuid.UUID, status domainDevice.Status) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	if status != domainDevice.StatusActive {
		updates["location"] = string(domainDevice.LocationIn)
	}

	result := r.db.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("id = ?", deviceID).
		Updates(updates)

	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainDevice.ErrDeviceNotFound
	}

	return nil
}

// Claim atomically couples an available device to an order. The row is locked
// FOR UPDATE for the duration of the check-and-set, so concurrent claims on
// the same device serialize and at most one succeeds.
func (r *DeviceRepository) Claim(ctx context.Context, req domainDevice.ClaimRequest) (*domainDevice.Device, error) {
	var claimed *domainDevice.Device

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbModel models.DeviceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", req.DeviceID).
			First(&dbModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainDevice.ErrDeviceNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock device: %w", err)
		}

		d := toDeviceEntity(&dbModel)
		if !d.Claimable() {
			return domainDevice.ErrDeviceUnavailable
		}
		if d.WindowOverlaps(req.RentalStart, req.RentalEnd) {
			return domainDevice.ErrDeviceUnavailable
		}

		start := req.RentalStart
		end := req.RentalEnd
		orderID := req.OrderID
		user := req.CustomerRef

		d.Status = domainDevice.StatusActive
		d.Location = domainDevice.LocationOut
		d.RentalStart = &start
		d.RentalEnd = &end
		d.CurrentOrderID = &orderID
		d.CurrentUser = &user
		d.Cleanup = domainDevice.CleanupChecklist{}
		d.Version++
		d.UpdatedAt = time.Now()

		if err := tx.Save(toDeviceModel(d)).Error; err != nil {
			return fmt.Errorf("failed to claim device: %w", err)
		}

		claimed = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claimed, nil
}

// Release returns a claimed device to the available pool, clearing its rental
// window and order linkage. Used as the compensating action on cancellation.
func (r *DeviceRepository) Release(ctx context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	return r.clearRental(ctx, deviceID, func(d *domainDevice.Device) {
		d.Status = domainDevice.StatusAvailable
		d.CurrentUser = nil
	})
}

// ReturnFromRental records a physical device return at the end of a rental.
// The window and order linkage are cleared but the previous customer stays on
// the record, which is what routes the device through the cleanup checklist
// before it can be claimed again.
func (r *DeviceRepository) ReturnFromRental(ctx context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	return r.clearRental(ctx, deviceID, func(d *domainDevice.Device) {
		d.Status = domainDevice.StatusMaintenance
	})
}

func (r *DeviceRepository) clearRental(ctx context.Context, deviceID uuid.UUID, apply func(*domainDevice.Device)) (*domainDevice.Device, error) {
	var result *domainDevice.Device

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dbModel models.DeviceModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", deviceID).
			First(&dbModel).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainDevice.ErrDeviceNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock device: %w", err)
		}

		d := toDeviceEntity(&dbModel)
		d.Location = domainDevice.LocationIn
		d.RentalStart = nil
		d.RentalEnd = nil
		d.CurrentOrderID = nil
		d.Cleanup = domainDevice.CleanupChecklist{}
		apply(d)
		d.Version++
		d.UpdatedAt = time.Now()

		if err := tx.Save(toDeviceModel(d)).Error; err != nil {
			return fmt.Errorf("failed to update device: %w", err)
		}

		result = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *DeviceRepository) CountByDesk(ctx context.Context, satDeskID uuid.UUID, filter *domainDevice.Filter) (int, error) {
	var count int64

	db := r.db.WithContext(ctx).
		Model(&models.DeviceModel{}).
		Where("sat_desk_id = ?", satDeskID)
	db = applyDeviceFilter(db, filter)

	if err := db.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count devices: %w", err)
	}
	return int(count), nil
}

// Helper functions to convert between domain entities and database models

func toDeviceModel(d *domainDevice.Device) *models.DeviceModel {
	return &models.DeviceModel{
		ID:             d.ID,
		IMEI:           d.IMEI,
		DeviceNumber:   d.DeviceNumber,
		SatDeskID:      d.SatDeskID,
		Status:         string(d.Status),
		Location:       string(d.Location),
		RentalStart:    d.RentalStart,
		RentalEnd:      d.RentalEnd,
		CurrentUser:    d.CurrentUser,
		CurrentOrderID: d.CurrentOrderID,
		Condition:      string(d.Condition),
		BatteryHealth:  d.BatteryHealth,
		Notes:          d.Notes,

		CleanupArchivePreviousUser: d.Cleanup.ArchivePreviousUser,
		CleanupClearMessages:       d.Cleanup.ClearMessages,
		CleanupClearContacts:       d.Cleanup.ClearContacts,
		CleanupResetAccount:        d.Cleanup.ResetAccount,
		CleanupPhysicalInspection:  d.Cleanup.PhysicalInspection,
		CleanupFactoryReset:        d.Cleanup.FactoryReset,

		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toDeviceEntity(m *models.DeviceModel) *domainDevice.Device {
	return &domainDevice.Device{
		ID:             m.ID,
		IMEI:           m.IMEI,
		DeviceNumber:   m.DeviceNumber,
		SatDeskID:      m.SatDeskID,
		Status:         domainDevice.Status(m.Status),
		Location:       domainDevice.Location(m.Location),
		RentalStart:    m.RentalStart,
		RentalEnd:      m.RentalEnd,
		CurrentUser:    m.CurrentUser,
		CurrentOrderID: m.CurrentOrderID,
		Condition:      domainDevice.Condition(m.Condition),
		BatteryHealth:  m.BatteryHealth,
		Notes:          m.Notes,
		Cleanup: domainDevice.CleanupChecklist{
			ArchivePreviousUser: m.CleanupArchivePreviousUser,
			ClearMessages:       m.CleanupClearMessages,
			ClearContacts:       m.CleanupClearContacts,
			ResetAccount:        m.CleanupResetAccount,
			PhysicalInspection:  m.CleanupPhysicalInspection,
			FactoryReset:        m.CleanupFactoryReset,
		},
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
