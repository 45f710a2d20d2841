package allocation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainDevice "satdesk-manager/internal/domain/device"
	"satdesk-manager/internal/infrastructure/memory"
	"satdesk-manager/internal/logger"
	appErrors "satdesk-manager/pkg/errors"
)

func TestMain(m *testing.M) {
	_ = logger.Init("test")
	m.Run()
}

func seedDevice(t *testing.T, repo *memory.DeviceRepository, imei, number string, cond domainDevice.Condition, battery int) *domainDevice.Device {
	t.Helper()
	d := &domainDevice.Device{
		IMEI:          imei,
		DeviceNumber:  number,
		SatDeskID:     uuid.New(),
		Status:        domainDevice.StatusAvailable,
		Location:      domainDevice.LocationIn,
		Condition:     cond,
		BatteryHealth: battery,
	}
	require.NoError(t, repo.Create(context.Background(), d))
	return d
}

func rentalWindow() (time.Time, time.Time) {
	start := time.Now().Add(24 * time.Hour)
	return start, start.Add(7 * 24 * time.Hour)
}

func TestFindCandidatesRanking(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	// Scores: fair+90 = 1.9, good+50 = 2.5, excellent+10 = 3.1
	seedDevice(t, repo, "356938035643809", "SAT-003", domainDevice.ConditionFair, 90)
	seedDevice(t, repo, "356938035643810", "SAT-002", domainDevice.ConditionGood, 50)
	seedDevice(t, repo, "356938035643811", "SAT-001", domainDevice.ConditionExcellent, 10)

	start, end := rentalWindow()
	candidates, err := svc.FindCandidates(context.Background(), &CandidateRequest{
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	assert.Equal(t, "SAT-001", candidates[0].DeviceNumber)
	assert.Equal(t, "SAT-002", candidates[1].DeviceNumber)
	assert.Equal(t, "SAT-003", candidates[2].DeviceNumber)
}

func TestFindCandidatesTieBreakByDeviceNumber(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	seedDevice(t, repo, "356938035643812", "SAT-020", domainDevice.ConditionGood, 80)
	seedDevice(t, repo, "356938035643813", "SAT-010", domainDevice.ConditionGood, 80)

	start, end := rentalWindow()
	candidates, err := svc.FindCandidates(context.Background(), &CandidateRequest{
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "SAT-010", candidates[0].DeviceNumber)
	assert.Equal(t, "SAT-020", candidates[1].DeviceNumber)
}

func TestRecommendSurfacesTopFive(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	for i := 0; i < 8; i++ {
		seedDevice(t, repo,
			fmt.Sprintf("3569380356438%02d", i),
			fmt.Sprintf("SAT-%03d", i),
			domainDevice.ConditionGood, 50+i)
	}

	start, end := rentalWindow()
	recommended, err := svc.Recommend(context.Background(), &CandidateRequest{
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	assert.Len(t, recommended, 5)
	for _, c := range recommended {
		assert.True(t, c.Recommended)
	}

	all, err := svc.FindCandidates(context.Background(), &CandidateRequest{
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	require.Len(t, all, 8)
	assert.False(t, all[5].Recommended)
}

func TestFindCandidatesExcludesOverlappingWindows(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	busy := seedDevice(t, repo, "356938035643820", "SAT-100", domainDevice.ConditionGood, 80)
	free := seedDevice(t, repo, "356938035643821", "SAT-101", domainDevice.ConditionGood, 80)

	start, end := rentalWindow()
	_, err := repo.Claim(context.Background(), domainDevice.ClaimRequest{
		DeviceID:    busy.ID,
		RentalStart: start,
		RentalEnd:   end,
		OrderID:     uuid.New(),
	})
	require.NoError(t, err)

	candidates, err := svc.FindCandidates(context.Background(), &CandidateRequest{
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, free.ID, candidates[0].DeviceID)
}

func TestClaimLosingRaceReturnsDeviceUnavailable(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	d := seedDevice(t, repo, "356938035643830", "SAT-200", domainDevice.ConditionExcellent, 95)
	start, end := rentalWindow()

	first, err := svc.Claim(context.Background(), &ClaimDeviceRequest{
		DeviceID:  d.ID,
		OrderID:   uuid.New(),
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusActive, first.Status)
	assert.Equal(t, domainDevice.LocationOut, first.Location)

	_, err = svc.Claim(context.Background(), &ClaimDeviceRequest{
		DeviceID:  d.ID,
		OrderID:   uuid.New(),
		StartDate: start,
		EndDate:   end,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeDeviceUnavailable, appErrors.CodeOf(err))
}

func TestConcurrentClaimsExactlyOneWinner(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	d := seedDevice(t, repo, "356938035643840", "SAT-300", domainDevice.ConditionExcellent, 95)
	start, end := rentalWindow()

	const claimers = 32
	var wg sync.WaitGroup
	results := make(chan error, claimers)

	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Claim(context.Background(), &ClaimDeviceRequest{
				DeviceID:  d.ID,
				OrderID:   uuid.New(),
				StartDate: start,
				EndDate:   end,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins, losses := 0, 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.Equal(t, appErrors.CodeDeviceUnavailable, appErrors.CodeOf(err))
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, claimers-1, losses)

	final, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusActive, final.Status)
	require.NotNil(t, final.CurrentOrderID)
}

func TestClaimGatedByIncompleteCleanup(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	d := seedDevice(t, repo, "356938035643850", "SAT-400", domainDevice.ConditionGood, 70)

	// Simulate a returned device still holding the previous customer.
	stored, err := repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	user := "Previous Customer"
	stored.Status = domainDevice.StatusMaintenance
	stored.CurrentUser = &user
	require.NoError(t, repo.Update(context.Background(), stored))

	start, end := rentalWindow()
	_, err = svc.Claim(context.Background(), &ClaimDeviceRequest{
		DeviceID:  d.ID,
		OrderID:   uuid.New(),
		StartDate: start,
		EndDate:   end,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeDeviceUnavailable, appErrors.CodeOf(err))

	// Completing the checklist makes the same device claimable.
	stored, err = repo.GetByID(context.Background(), d.ID)
	require.NoError(t, err)
	stored.Cleanup = domainDevice.CleanupChecklist{
		ArchivePreviousUser: true,
		ClearMessages:       true,
		ClearContacts:       true,
		ResetAccount:        true,
		PhysicalInspection:  true,
		FactoryReset:        true,
	}
	require.NoError(t, repo.Update(context.Background(), stored))

	claimed, err := svc.Claim(context.Background(), &ClaimDeviceRequest{
		DeviceID:  d.ID,
		OrderID:   uuid.New(),
		StartDate: start,
		EndDate:   end,
	})
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusActive, claimed.Status)
}

func TestAllocateBulkPartialFulfillment(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	seedDevice(t, repo, "356938035643860", "SAT-500", domainDevice.ConditionExcellent, 90)
	seedDevice(t, repo, "356938035643861", "SAT-501", domainDevice.ConditionGood, 80)

	start, end := rentalWindow()
	result, err := svc.AllocateBulk(context.Background(), &BulkAllocationRequest{
		DeviceCount: 5,
		OrderID:     uuid.New(),
		StartDate:   start,
		EndDate:     end,
	})
	require.NoError(t, err)

	assert.Equal(t, 5, result.Requested)
	assert.Len(t, result.Claimed, 2)
	assert.Equal(t, 3, result.Shortfall)

	// Best-ranked device is claimed first.
	assert.Equal(t, "SAT-500", result.Claimed[0].DeviceNumber)
}

func TestAllocateBulkClaimsInRankedOrder(t *testing.T) {
	repo := memory.NewDeviceRepository()
	svc := NewService(repo)

	seedDevice(t, repo, "356938035643870", "SAT-601", domainDevice.ConditionFair, 40)
	seedDevice(t, repo, "356938035643871", "SAT-600", domainDevice.ConditionExcellent, 90)
	seedDevice(t, repo, "356938035643872", "SAT-602", domainDevice.ConditionGood, 60)

	start, end := rentalWindow()
	result, err := svc.AllocateBulk(context.Background(), &BulkAllocationRequest{
		DeviceCount: 2,
		OrderID:     uuid.New(),
		StartDate:   start,
		EndDate:     end,
	})
	require.NoError(t, err)

	require.Len(t, result.Claimed, 2)
	assert.Equal(t, 0, result.Shortfall)
	assert.Equal(t, "SAT-600", result.Claimed[0].DeviceNumber)
	assert.Equal(t, "SAT-602", result.Claimed[1].DeviceNumber)

	// The worst-ranked device is untouched.
	leftover, err := repo.GetByIMEI(context.Background(), "356938035643870")
	require.NoError(t, err)
	assert.Equal(t, domainDevice.StatusAvailable, leftover.Status)
}

// faultyClaimRepo fails every claim from failFrom onward with an
// infrastructure error, letting earlier claims land normally.
type faultyClaimRepo struct {
	domainDevice.Repository
	claims   int
	failFrom int
}

func (r *faultyClaimRepo) Claim(ctx context.Context, req domainDevice.ClaimRequest) (*domainDevice.Device, error) {
	r.claims++
	if r.claims >= r.failFrom {
		return nil, fmt.Errorf("connection reset by peer")
	}
	return r.Repository.Claim(ctx, req)
}

func TestAllocateBulkRollsBackClaimsOnInfraError(t *testing.T) {
	mem := memory.NewDeviceRepository()
	svc := NewService(&faultyClaimRepo{Repository: mem, failFrom: 2})

	first := seedDevice(t, mem, "356938035643880", "SAT-900", domainDevice.ConditionExcellent, 90)
	seedDevice(t, mem, "356938035643881", "SAT-901", domainDevice.ConditionGood, 80)

	start, end := rentalWindow()
	result, err := svc.AllocateBulk(context.Background(), &BulkAllocationRequest{
		DeviceCount: 2,
		OrderID:     uuid.New(),
		StartDate:   start,
		EndDate:     end,
	})
	require.Error(t, err)
	assert.Nil(t, result)

	// The device claimed before the failure must not stay coupled to an
	// order that never received it.
	got, getErr := mem.GetByID(context.Background(), first.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domainDevice.StatusAvailable, got.Status)
	assert.Equal(t, domainDevice.LocationIn, got.Location)
	assert.Nil(t, got.CurrentOrderID)
	assert.Nil(t, got.CurrentUser)
	assert.Nil(t, got.RentalStart)
}
