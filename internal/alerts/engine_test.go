package alerts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainAlert "satdesk-manager/internal/domain/alert"
	domainDevice "satdesk-manager/internal/domain/device"
	domainOrder "satdesk-manager/internal/domain/order"
	domainSatDesk "satdesk-manager/internal/domain/satdesk"
	"satdesk-manager/internal/infrastructure/memory"
	"satdesk-manager/internal/logger"
)

func TestMain(m *testing.M) {
	_ = logger.Init("test")
	m.Run()
}

type engineFixture struct {
	devices *memory.DeviceRepository
	desks   *memory.SatDeskRepository
	orders  *memory.OrderRepository
	engine  *Engine
}

func newEngineFixture() *engineFixture {
	devices := memory.NewDeviceRepository()
	desks := memory.NewSatDeskRepository()
	orders := memory.NewOrderRepository()
	dismissals := memory.NewDismissalStore()
	return &engineFixture{
		devices: devices,
		desks:   desks,
		orders:  orders,
		engine:  NewEngine(devices, desks, orders, dismissals),
	}
}

func (f *engineFixture) seedDesk(t *testing.T, name string, quota int, active bool) *domainSatDesk.SatDesk {
	t.Helper()
	desk := &domainSatDesk.SatDesk{Name: name, DeviceQuota: quota, IsActive: active}
	require.NoError(t, f.desks.Create(context.Background(), desk))
	return desk
}

var imeiSeq int

func (f *engineFixture) seedDevice(t *testing.T, deskID uuid.UUID, status domainDevice.Status, loc domainDevice.Location) *domainDevice.Device {
	t.Helper()
	imeiSeq++
	d := &domainDevice.Device{
		IMEI:          fmt.Sprintf("3569380356%05d", imeiSeq),
		DeviceNumber:  fmt.Sprintf("SAT-%05d", imeiSeq),
		SatDeskID:     deskID,
		Status:        status,
		Location:      loc,
		Condition:     domainDevice.ConditionGood,
		BatteryHealth: 80,
	}
	require.NoError(t, f.devices.Create(context.Background(), d))
	return d
}

func (f *engineFixture) seedActiveRental(t *testing.T, deskID uuid.UUID, end time.Time) *domainDevice.Device {
	t.Helper()
	d := f.seedDevice(t, deskID, domainDevice.StatusAvailable, domainDevice.LocationIn)
	start := end.Add(-7 * 24 * time.Hour)
	_, err := f.devices.Claim(context.Background(), domainDevice.ClaimRequest{
		DeviceID:    d.ID,
		RentalStart: start,
		RentalEnd:   end,
		OrderID:     uuid.New(),
		CustomerRef: "Customer",
	})
	require.NoError(t, err)
	return d
}

func alertsOfType(alerts []domainAlert.Alert, typ domainAlert.Type) []domainAlert.Alert {
	out := make([]domainAlert.Alert, 0)
	for _, a := range alerts {
		if a.Type == typ {
			out = append(out, a)
		}
	}
	return out
}

func TestDaysUntilDue(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"due tomorrow", now.Add(24 * time.Hour), 1},
		{"due later today counts as one day", now.Add(2 * time.Hour), 1},
		{"passed earlier today", now.Add(-2 * time.Hour), 0},
		{"exactly due now", now, 0},
		{"two days overdue", now.Add(-48 * time.Hour), -2},
		{"three days out", now.Add(52 * time.Hour), 3},
		{"beyond the window", now.Add(90 * time.Hour), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntilDue(tt.end, now))
		})
	}
}

func TestScanRentalExpiringTomorrow(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)
	now := time.Now()
	d := f.seedActiveRental(t, desk.ID, now.Add(24*time.Hour))

	alerts, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)

	expiring := alertsOfType(alerts, domainAlert.TypeRentalExpiring)
	require.Len(t, expiring, 1)
	assert.Equal(t, domainAlert.SeverityWarning, expiring[0].Severity)
	require.NotNil(t, expiring[0].DaysUntilDue)
	assert.Equal(t, 1, *expiring[0].DaysUntilDue)
	require.NotNil(t, expiring[0].DeviceID)
	assert.Equal(t, d.ID, *expiring[0].DeviceID)

	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeRentalOverdue))
}

func TestScanRentalOverdue(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)
	now := time.Now()
	f.seedActiveRental(t, desk.ID, now.Add(-48*time.Hour))

	alerts, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)

	overdue := alertsOfType(alerts, domainAlert.TypeRentalOverdue)
	require.Len(t, overdue, 1)
	assert.Equal(t, domainAlert.SeverityCritical, overdue[0].Severity)
	require.NotNil(t, overdue[0].DaysUntilDue)
	assert.Equal(t, -2, *overdue[0].DaysUntilDue)

	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeRentalExpiring))
}

// A rental that lapsed earlier today computes zero days until due, which
// deliberately falls through to the expiring/info bucket rather than getting
// its own classification.
func TestScanDueTodayStaysInfo(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)
	now := time.Now()
	f.seedActiveRental(t, desk.ID, now.Add(-2*time.Hour))

	alerts, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)

	expiring := alertsOfType(alerts, domainAlert.TypeRentalExpiring)
	require.Len(t, expiring, 1)
	assert.Equal(t, domainAlert.SeverityInfo, expiring[0].Severity)
	require.NotNil(t, expiring[0].DaysUntilDue)
	assert.Equal(t, 0, *expiring[0].DaysUntilDue)
	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeRentalOverdue))
}

func TestScanRentalFarOutProducesNothing(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)
	now := time.Now()
	f.seedActiveRental(t, desk.ID, now.Add(10*24*time.Hour))

	alerts, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)

	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeRentalExpiring))
	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeRentalOverdue))
}

func TestScanLowInventory(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "North Desk", 50, true)

	// Two devices in stock, the rest out on rentals.
	f.seedDevice(t, desk.ID, domainDevice.StatusAvailable, domainDevice.LocationIn)
	f.seedDevice(t, desk.ID, domainDevice.StatusAvailable, domainDevice.LocationIn)
	for i := 0; i < 4; i++ {
		f.seedActiveRental(t, desk.ID, time.Now().Add(30*24*time.Hour))
	}

	alerts, err := f.engine.Scan(context.Background(), time.Now())
	require.NoError(t, err)

	low := alertsOfType(alerts, domainAlert.TypeLowInventory)
	require.Len(t, low, 1)
	assert.Equal(t, domainAlert.SeverityWarning, low[0].Severity)
	assert.Equal(t, 2, low[0].Count)
	require.NotNil(t, low[0].SatDeskID)
	assert.Equal(t, desk.ID, *low[0].SatDeskID)
}

func TestScanZeroStockIsCritical(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Empty Desk", 10, true)
	f.seedActiveRental(t, desk.ID, time.Now().Add(30*24*time.Hour))

	alerts, err := f.engine.Scan(context.Background(), time.Now())
	require.NoError(t, err)

	low := alertsOfType(alerts, domainAlert.TypeLowInventory)
	require.Len(t, low, 1)
	assert.Equal(t, domainAlert.SeverityCritical, low[0].Severity)
	assert.Equal(t, 0, low[0].Count)
}

func TestScanInactiveDeskSkipped(t *testing.T) {
	f := newEngineFixture()
	f.seedDesk(t, "Mothballed", 10, false)

	alerts, err := f.engine.Scan(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeLowInventory))
}

func TestScanOverQuota(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Cramped Desk", 2, true)
	for i := 0; i < 4; i++ {
		f.seedDevice(t, desk.ID, domainDevice.StatusAvailable, domainDevice.LocationIn)
	}

	alerts, err := f.engine.Scan(context.Background(), time.Now())
	require.NoError(t, err)

	low := alertsOfType(alerts, domainAlert.TypeLowInventory)
	require.Len(t, low, 1)
	assert.Equal(t, desk.ID.String()+":quota", low[0].SubjectID)
	assert.Equal(t, domainAlert.SeverityWarning, low[0].Severity)
	assert.Equal(t, 4, low[0].Count)
}

func seedPendingOrders(t *testing.T, repo *memory.OrderRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		o := &domainOrder.RentalOrder{
			OrderNumber: fmt.Sprintf("SD-TEST-%04d", i),
			Status:      domainOrder.StatusPending,
		}
		require.NoError(t, repo.Create(context.Background(), o))
	}
}

func TestScanPendingBacklog(t *testing.T) {
	f := newEngineFixture()
	seedPendingOrders(t, f.orders, 3)

	alerts, err := f.engine.Scan(context.Background(), time.Now())
	require.NoError(t, err)

	backlog := alertsOfType(alerts, domainAlert.TypeOrderPending)
	require.Len(t, backlog, 1)
	assert.Equal(t, domainAlert.SeverityInfo, backlog[0].Severity)
	assert.Equal(t, 3, backlog[0].Count)
}

func TestScanPendingBacklogEscalatesAboveThreshold(t *testing.T) {
	f := newEngineFixture()
	seedPendingOrders(t, f.orders, 6)

	alerts, err := f.engine.Scan(context.Background(), time.Now())
	require.NoError(t, err)

	backlog := alertsOfType(alerts, domainAlert.TypeOrderPending)
	require.Len(t, backlog, 1)
	assert.Equal(t, domainAlert.SeverityWarning, backlog[0].Severity)
	assert.Equal(t, 6, backlog[0].Count)
}

func TestScanIdempotent(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)
	now := time.Now()
	f.seedActiveRental(t, desk.ID, now.Add(24*time.Hour))
	f.seedActiveRental(t, desk.ID, now.Add(-48*time.Hour))
	seedPendingOrders(t, f.orders, 2)

	first, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)
	second, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDismissalSurvivesRescanButNotEscalation(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)
	now := time.Now()
	d := f.seedActiveRental(t, desk.ID, now.Add(24*time.Hour))

	alerts, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)
	expiring := alertsOfType(alerts, domainAlert.TypeRentalExpiring)
	require.Len(t, expiring, 1)

	require.NoError(t, f.engine.Dismiss(context.Background(), expiring[0].ID))

	rescanned, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)
	expiring = alertsOfType(rescanned, domainAlert.TypeRentalExpiring)
	require.Len(t, expiring, 1)
	assert.True(t, expiring[0].Dismissed)

	// Three days later the same device is overdue: different type, different
	// deterministic id, so the alert resurfaces undismissed.
	later := now.Add(4 * 24 * time.Hour)
	escalated, err := f.engine.Scan(context.Background(), later)
	require.NoError(t, err)
	overdue := alertsOfType(escalated, domainAlert.TypeRentalOverdue)
	require.Len(t, overdue, 1)
	assert.False(t, overdue[0].Dismissed)
	assert.NotEqual(t, expiring[0].ID, overdue[0].ID)
	require.NotNil(t, overdue[0].DeviceID)
	assert.Equal(t, d.ID, *overdue[0].DeviceID)
}

func TestScanActiveDeviceWithoutWindowIgnored(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)

	// A device mid-claim can briefly be active with no window; that is not
	// an alert.
	d := f.seedDevice(t, desk.ID, domainDevice.StatusAvailable, domainDevice.LocationIn)
	require.NoError(t, f.devices.UpdateStatus(context.Background(), d.ID, domainDevice.StatusActive))

	alerts, err := f.engine.Scan(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeRentalExpiring))
	assert.Empty(t, alertsOfType(alerts, domainAlert.TypeRentalOverdue))
}

func TestScanOrderingBySeverity(t *testing.T) {
	f := newEngineFixture()
	desk := f.seedDesk(t, "Base Camp", 50, true)
	now := time.Now()
	f.seedActiveRental(t, desk.ID, now.Add(-48*time.Hour)) // critical
	f.seedActiveRental(t, desk.ID, now.Add(60*time.Hour))  // info
	f.seedActiveRental(t, desk.ID, now.Add(24*time.Hour))  // warning

	alerts, err := f.engine.Scan(context.Background(), now)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(alerts), 3)

	for i := 1; i < len(alerts); i++ {
		assert.GreaterOrEqual(t, alerts[i-1].Severity.Rank(), alerts[i].Severity.Rank())
	}
}
