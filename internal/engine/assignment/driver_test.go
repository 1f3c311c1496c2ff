package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/internal/observability"
	"github.com/fleetsim/optimizer/pkg/domain"
)

type stubOracle struct {
	relations map[[2]int]domain.Relation
}

func (s stubOracle) Lookup(from, to int) (domain.Relation, bool) {
	if from == to {
		return domain.IdentityRelation(from), true
	}
	r, ok := s.relations[[2]int{from, to}]
	return r, ok
}

func seg(start, end time.Time, from, to int) domain.Segment {
	return domain.Segment{StartLocID: from, EndLocID: to, StartTime: start, EndTime: end}
}

func newRoute(id, from, to int, start, end time.Time, km float64) domain.Route {
	return domain.Route{ID: id, StartTime: start, EndTime: end, DistanceKM: km, Segments: []domain.Segment{seg(start, end, from, to)}}
}

func day(h, m int) time.Time {
	return time.Date(2024, 1, 2, h, m, 0, 0, time.UTC)
}

func TestRun_SingleVehicleTwoRoutesSameLocation(t *testing.T) {
	cfg := domain.DefaultConfig()
	r1 := newRoute(1, 1, 2, day(10, 0), day(12, 0), 100)
	r2 := newRoute(2, 2, 1, day(13, 0), day(14, 0), 50)

	states := map[int]domain.VehicleState{
		1: {VehicleID: 1, CurrentLocationID: 1, AnnualLimitKM: 150000, ServiceIntervalKM: 20000},
	}

	res := Run(context.Background(), "run-1", states, []domain.Route{r1, r2}, stubOracle{}, cfg, nil)

	require.Len(t, res.Assignments, 2)
	assert.Equal(t, 1, res.Assignments[0].VehicleID)
	assert.Equal(t, 1, res.Assignments[1].VehicleID)
	assert.False(t, res.Assignments[0].RequiresRelocation)
	assert.False(t, res.Assignments[1].RequiresRelocation)
	assert.Equal(t, 150, res.FinalStates[1].OdometerKM)
}

func TestRun_TwoVehiclesConflictingRoute(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := newRoute(1, 1, 3, day(10, 0), day(11, 0), 50)

	states := map[int]domain.VehicleState{
		1: {VehicleID: 1, CurrentLocationID: 1, AnnualLimitKM: 150000, ServiceIntervalKM: 20000},
		2: {VehicleID: 2, CurrentLocationID: 2, AnnualLimitKM: 150000, ServiceIntervalKM: 20000},
	}
	oracle := stubOracle{relations: map[[2]int]domain.Relation{
		{2, 1}: {FromID: 2, ToID: 1, DistanceKM: 20, TravelMinutes: 30},
	}}

	res := Run(context.Background(), "run-2", states, []domain.Route{route}, oracle, cfg, nil)

	require.Len(t, res.Assignments, 1)
	assert.Equal(t, 1, res.Assignments[0].VehicleID)
}

func TestRun_ForcedRelocation(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := newRoute(1, 2, 3, day(10, 0), day(11, 0), 70)

	states := map[int]domain.VehicleState{
		1: {VehicleID: 1, CurrentLocationID: 1, AnnualLimitKM: 150000, ServiceIntervalKM: 20000},
	}
	oracle := stubOracle{relations: map[[2]int]domain.Relation{
		{1, 2}: {FromID: 1, ToID: 2, DistanceKM: 50, TravelMinutes: 60},
	}}

	res := Run(context.Background(), "run-3", states, []domain.Route{route}, oracle, cfg, nil)

	require.Len(t, res.Assignments, 1)
	a := res.Assignments[0]
	assert.True(t, a.RequiresRelocation)
	assert.Equal(t, 120, res.FinalStates[1].KMThisLeaseYear) // 50 relocation + 70 route
}

func TestRun_LeaseYearRollover(t *testing.T) {
	cfg := domain.DefaultConfig()
	leaseEnd := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := leaseEnd.Add(-1 * time.Hour)
	end := leaseEnd.Add(1 * time.Hour)
	route := newRoute(1, 1, 1, start, end, 200)

	states := map[int]domain.VehicleState{
		1: {VehicleID: 1, CurrentLocationID: 1, AnnualLimitKM: 150000, ServiceIntervalKM: 20000, LeaseEnd: leaseEnd, AvailableFrom: start.Add(-25 * time.Hour)},
	}

	res := Run(context.Background(), "run-4", states, []domain.Route{route}, stubOracle{}, cfg, nil)

	require.Len(t, res.Assignments, 1)
	assert.Equal(t, 1, res.FinalStates[1].LeaseCycleNumber)
	assert.InDelta(t, 100, res.FinalStates[1].KMThisLeaseYear, 1)
}

func TestRun_SwapPolicyExhaustionFallsBackToRelaxedPass(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Swap.MaxSwapsPerPeriod = 2
	cfg.Swap.SwapPeriodDays = 90

	route := newRoute(1, 2, 3, day(10, 0), day(11, 0), 40)
	states := map[int]domain.VehicleState{
		1: {
			VehicleID: 1, CurrentLocationID: 1, AnnualLimitKM: 150000, ServiceIntervalKM: 20000,
			RelocationHistory: []domain.Relocation{
				{At: day(9, 0).Add(-24 * time.Hour), From: 9, To: 1},
				{At: day(9, 0).Add(-48 * time.Hour), From: 8, To: 9},
			},
		},
	}
	oracle := stubOracle{relations: map[[2]int]domain.Relation{
		{1, 2}: {FromID: 1, ToID: 2, DistanceKM: 10, TravelMinutes: 15},
	}}

	res := Run(context.Background(), "run-5", states, []domain.Route{route}, oracle, cfg, nil)

	require.Len(t, res.Assignments, 1)
	assert.True(t, res.Assignments[0].UsedRelaxedPass)
	assert.Greater(t, res.Assignments[0].ImmediateCost, cfg.Assignment.SwapViolationPenalty)
}

func TestRun_UnassignedRouteWhenUnreachable(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := newRoute(1, 9, 10, day(10, 0), day(11, 0), 40)

	states := map[int]domain.VehicleState{
		1: {VehicleID: 1, CurrentLocationID: 1, AnnualLimitKM: 150000, ServiceIntervalKM: 20000},
	}

	res := Run(context.Background(), "run-6", states, []domain.Route{route}, stubOracle{}, cfg, nil)

	assert.Empty(t, res.Assignments)
	require.Len(t, res.UnassignedRoutes, 1)
	assert.Equal(t, 1, res.UnassignedRoutes[0])
	assert.Equal(t, 0, res.FinalStates[1].OdometerKM)
}

func TestRun_CancellationReturnsIncompletePartialResult(t *testing.T) {
	cfg := domain.DefaultConfig()
	r1 := newRoute(1, 1, 1, day(10, 0), day(11, 0), 10)
	r2 := newRoute(2, 1, 1, day(12, 0), day(13, 0), 10)

	states := map[int]domain.VehicleState{
		1: {VehicleID: 1, CurrentLocationID: 1, AnnualLimitKM: 150000, ServiceIntervalKM: 20000},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := Run(ctx, "run-7", states, []domain.Route{r1, r2}, stubOracle{}, cfg, observability.NoopSink{})

	assert.True(t, res.Incomplete)
	assert.Less(t, len(res.Assignments), 2)
}
