package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainDevice "satdesk-manager/internal/domain/device"
	domainOrder "satdesk-manager/internal/domain/order"
	"satdesk-manager/internal/infrastructure/memory"
	"satdesk-manager/internal/logger"
	"satdesk-manager/internal/usecase/allocation"
	appErrors "satdesk-manager/pkg/errors"
)

func TestMain(m *testing.M) {
	_ = logger.Init("test")
	m.Run()
}

type fixture struct {
	orders  *memory.OrderRepository
	devices *memory.DeviceRepository
	svc     *Service
}

func newFixture() *fixture {
	orders := memory.NewOrderRepository()
	devices := memory.NewDeviceRepository()
	allocator := allocation.NewService(devices)
	return &fixture{
		orders:  orders,
		devices: devices,
		svc:     NewService(orders, devices, allocator),
	}
}

func (f *fixture) seedDevice(t *testing.T, imei string) *domainDevice.Device {
	t.Helper()
	d := &domainDevice.Device{
		IMEI:          imei,
		DeviceNumber:  "SAT-" + imei[len(imei)-3:],
		SatDeskID:     uuid.New(),
		Status:        domainDevice.StatusAvailable,
		Location:      domainDevice.LocationIn,
		Condition:     domainDevice.ConditionGood,
		BatteryHealth: 80,
	}
	require.NoError(t, f.devices.Create(context.Background(), d))
	return d
}

func completeCreateRequest() *CreateOrderRequest {
	start := time.Now().Add(48 * time.Hour)
	return &CreateOrderRequest{
		CustomerInfo: CustomerInfoRequest{
			Name:  "Alex Mercer",
			Email: "alex@example.com",
			Phone: "+15550001111",
		},
		Preferences: PreferencesRequest{
			TripWindowDays: 7,
			EmergencyContact: EmergencyContactRequest{
				Name:  "Jordan Mercer",
				Phone: "+15550002222",
			},
			PresetMessages: []string{"Checked in, all OK"},
		},
		RentalDetails: RentalDetailsRequest{
			StartDate: start,
			EndDate:   start.Add(7 * 24 * time.Hour),
		},
		Source: "website",
	}
}

func TestCreateCompleteOrder(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, domainOrder.StatusPending, resp.Status)
	assert.True(t, resp.DataComplete)
	assert.Empty(t, resp.MissingFields)
	assert.False(t, resp.NeedsEscalation)
	assert.NotEmpty(t, resp.OrderNumber)
}

func TestCreateIncompleteOrderStillSucceeds(t *testing.T) {
	f := newFixture()

	req := completeCreateRequest()
	req.CustomerInfo.Phone = ""
	req.Preferences.PresetMessages = nil

	resp, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, domainOrder.StatusPending, resp.Status)
	assert.False(t, resp.DataComplete)
	assert.ElementsMatch(t, []string{
		domainOrder.FieldCustomerPhone,
		domainOrder.FieldPresetMessages,
	}, resp.MissingFields)
	assert.True(t, resp.NeedsEscalation)
}

func TestUpdateRecomputesCompleteness(t *testing.T) {
	f := newFixture()

	req := completeCreateRequest()
	req.CustomerInfo.Phone = ""
	created, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.False(t, created.DataComplete)

	phone := "+15550009999"
	updated, err := f.svc.Update(context.Background(), created.ID, &UpdateOrderRequest{
		CustomerPhone: &phone,
	})
	require.NoError(t, err)

	assert.True(t, updated.DataComplete)
	assert.Empty(t, updated.MissingFields)
}

func TestAssignDeviceMovesOrderToProcessing(t *testing.T) {
	f := newFixture()
	d := f.seedDevice(t, "356938035643809")

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	resp, err := f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{
		DeviceID: d.ID,
		IMEI:     d.IMEI,
	})
	require.NoError(t, err)

	assert.Equal(t, domainOrder.StatusProcessing, resp.Status)
	require.NotNil(t, resp.AssignedDeviceID)
	assert.Equal(t, d.ID, *resp.AssignedDeviceID)
	require.NotNil(t, resp.AssignedIMEI)
	assert.Equal(t, d.IMEI, *resp.AssignedIMEI)
	assert.NotNil(t, resp.ProcessedAt)

	claimed, err := f.devices.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusActive, claimed.Status)
	assert.Equal(t, domainDevice.LocationOut, claimed.Location)
}

func TestAssignDeviceRejectedWhenNotPending(t *testing.T) {
	f := newFixture()
	d1 := f.seedDevice(t, "356938035643809")
	d2 := f.seedDevice(t, "356938035643810")

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{
		DeviceID: d1.ID,
		IMEI:     d1.IMEI,
	})
	require.NoError(t, err)

	_, err = f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{
		DeviceID: d2.ID,
		IMEI:     d2.IMEI,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))

	// The second device was never claimed.
	untouched, err := f.devices.GetByID(context.Background(), d2.ID)
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusAvailable, untouched.Status)
}

func TestAssignDeviceLostRaceLeavesOrderPending(t *testing.T) {
	f := newFixture()
	d := f.seedDevice(t, "356938035643809")

	first, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.AssignDevice(context.Background(), first.ID, &AssignDeviceRequest{
		DeviceID: d.ID,
		IMEI:     d.IMEI,
	})
	require.NoError(t, err)

	_, err = f.svc.AssignDevice(context.Background(), second.ID, &AssignDeviceRequest{
		DeviceID: d.ID,
		IMEI:     d.IMEI,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeDeviceUnavailable, appErrors.CodeOf(err))

	// Loser stays pending with no device linkage.
	loser, err := f.svc.Get(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusPending, loser.Status)
	assert.Nil(t, loser.AssignedDeviceID)

	// Device stays linked to the winner only.
	claimed, err := f.devices.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.CurrentOrderID)
	assert.Equal(t, first.ID, *claimed.CurrentOrderID)
}

func TestFulfillmentPipeline(t *testing.T) {
	f := newFixture()
	d := f.seedDevice(t, "356938035643809")

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{
		DeviceID: d.ID,
		IMEI:     d.IMEI,
	})
	require.NoError(t, err)

	ready, err := f.svc.MarkReadyToShip(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusReadyToShip, ready.Status)

	shipped, err := f.svc.MarkShipped(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusShipped, shipped.Status)
	assert.NotNil(t, shipped.ShippedAt)

	completed, err := f.svc.Complete(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusCompleted, completed.Status)

	// The device comes back through maintenance, still holding the
	// customer reference so it must pass the cleanup gate.
	returned, err := f.devices.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusMaintenance, returned.Status)
	assert.Nil(t, returned.RentalEnd)
	assert.NotNil(t, returned.CurrentUser)
	assert.True(t, returned.NeedsCleanup())
}

func TestMarkShippedRequiresReadyToShip(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.MarkShipped(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
}

func TestCancelReleasesClaimedDevice(t *testing.T) {
	f := newFixture()
	d := f.seedDevice(t, "356938035643809")

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{
		DeviceID: d.ID,
		IMEI:     d.IMEI,
	})
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusCancelled, cancelled.Status)
	assert.Nil(t, cancelled.AssignedDeviceID)

	released, err := f.devices.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusAvailable, released.Status)
	assert.Equal(t, domainDevice.LocationIn, released.Location)
	assert.Nil(t, released.RentalStart)
	assert.Nil(t, released.RentalEnd)
	assert.Nil(t, released.CurrentOrderID)
}

func TestCancelPendingOrderWithoutDevice(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusCancelled, cancelled.Status)
}

func TestCancelShippedOrderRejected(t *testing.T) {
	f := newFixture()
	d := f.seedDevice(t, "356938035643809")

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	_, err = f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{DeviceID: d.ID, IMEI: d.IMEI})
	require.NoError(t, err)
	_, err = f.svc.MarkReadyToShip(context.Background(), created.ID)
	require.NoError(t, err)
	_, err = f.svc.MarkShipped(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), created.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
}

func TestEscalateIsAnOverlayFlag(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	escalated, err := f.svc.Escalate(context.Background(), created.ID, &EscalateRequest{
		Reason: "Customer unreachable for confirmation",
	})
	require.NoError(t, err)

	// The forward status does not move; only the flag and the note change.
	assert.Equal(t, domainOrder.StatusPending, escalated.Status)
	assert.True(t, escalated.NeedsEscalation)
	require.NotEmpty(t, escalated.Notes)
	assert.Contains(t, escalated.Notes[len(escalated.Notes)-1], "Customer unreachable")
}

func TestMarkEscalatedAndReactivate(t *testing.T) {
	f := newFixture()
	d := f.seedDevice(t, "356938035643809")

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{DeviceID: d.ID, IMEI: d.IMEI})
	require.NoError(t, err)

	parked, err := f.svc.MarkEscalated(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusEscalated, parked.Status)
	assert.True(t, parked.NeedsEscalation)

	resumed, err := f.svc.Reactivate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusProcessing, resumed.Status)
	assert.False(t, resumed.NeedsEscalation)
}

func TestEscalateRejectedAfterShipping(t *testing.T) {
	f := newFixture()
	d := f.seedDevice(t, "356938035643809")

	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)
	_, err = f.svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{DeviceID: d.ID, IMEI: d.IMEI})
	require.NoError(t, err)
	_, err = f.svc.MarkReadyToShip(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = f.svc.Escalate(context.Background(), created.ID, &EscalateRequest{Reason: "too late"})
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
}

func TestUpdateFromStaleSnapshotRejected(t *testing.T) {
	f := newFixture()
	created, err := f.svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	stale, err := f.orders.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	fresh, err := f.orders.GetByID(context.Background(), created.ID)
	require.NoError(t, err)

	// Another writer lands first; the stale snapshot must not clobber it.
	fresh.Notes = append(fresh.Notes, "edited elsewhere")
	require.NoError(t, f.orders.Update(context.Background(), fresh))

	err = f.orders.Update(context.Background(), stale)
	assert.ErrorIs(t, err, domainOrder.ErrStaleState)
}

// racingOrderRepo injects a concurrent edit between the service's read and
// its write, so the optimistic version check fires on the write path.
type racingOrderRepo struct {
	*memory.OrderRepository
	raced bool
}

func (r *racingOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domainOrder.RentalOrder, error) {
	o, err := r.OrderRepository.GetByID(ctx, id)
	if err != nil || r.raced {
		return o, err
	}
	r.raced = true
	fresh, ferr := r.OrderRepository.GetByID(ctx, id)
	if ferr == nil {
		fresh.Notes = append(fresh.Notes, "edited elsewhere")
		_ = r.OrderRepository.Update(ctx, fresh)
	}
	return o, err
}

func TestUpdateConcurrentEditSurfacesStaleState(t *testing.T) {
	orders := memory.NewOrderRepository()
	devices := memory.NewDeviceRepository()
	svc := NewService(&racingOrderRepo{OrderRepository: orders}, devices, allocation.NewService(devices))

	created, err := svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)

	phone := "+15550009999"
	_, err = svc.Update(context.Background(), created.ID, &UpdateOrderRequest{CustomerPhone: &phone})
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeStaleState, appErrors.CodeOf(err))
}

// failingReturnRepo simulates a device registry that cannot record the
// end-of-rental return.
type failingReturnRepo struct {
	*memory.DeviceRepository
}

func (r *failingReturnRepo) ReturnFromRental(ctx context.Context, deviceID uuid.UUID) (*domainDevice.Device, error) {
	return nil, errors.New("connection reset by peer")
}

func TestCompleteFlagsOrderWhenDeviceReturnStuck(t *testing.T) {
	orders := memory.NewOrderRepository()
	mem := memory.NewDeviceRepository()
	devices := &failingReturnRepo{DeviceRepository: mem}
	svc := NewService(orders, devices, allocation.NewService(devices))

	d := &domainDevice.Device{
		IMEI:          "356938035643890",
		DeviceNumber:  "SAT-890",
		SatDeskID:     uuid.New(),
		Status:        domainDevice.StatusAvailable,
		Location:      domainDevice.LocationIn,
		Condition:     domainDevice.ConditionGood,
		BatteryHealth: 80,
	}
	require.NoError(t, mem.Create(context.Background(), d))

	created, err := svc.Create(context.Background(), completeCreateRequest())
	require.NoError(t, err)
	_, err = svc.AssignDevice(context.Background(), created.ID, &AssignDeviceRequest{DeviceID: d.ID, IMEI: d.IMEI})
	require.NoError(t, err)
	_, err = svc.MarkReadyToShip(context.Background(), created.ID)
	require.NoError(t, err)
	_, err = svc.MarkShipped(context.Background(), created.ID)
	require.NoError(t, err)

	completed, err := svc.Complete(context.Background(), created.ID)
	require.NoError(t, err)

	// The order completes, but a return that will not stick raises the
	// escalation flag instead of being dropped on the floor.
	assert.Equal(t, domainOrder.StatusCompleted, completed.Status)
	assert.True(t, completed.NeedsEscalation)
	assert.Contains(t, completed.Notes, "device return failed; manual intervention required")
}
