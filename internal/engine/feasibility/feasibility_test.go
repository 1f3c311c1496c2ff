package feasibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

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

func baseRoute() domain.Route {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	return domain.Route{
		ID:         1,
		StartTime:  start,
		EndTime:    end,
		DistanceKM: 100,
		Segments: []domain.Segment{
			{StartLocID: 1, EndLocID: 2, StartTime: start, EndTime: end},
		},
	}
}

func baseState() domain.VehicleState {
	return domain.VehicleState{
		VehicleID:         1,
		CurrentLocationID: 1,
		AvailableFrom:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		AnnualLimitKM:     150000,
		ServiceIntervalKM: 20000,
	}
}

func TestCheck_SameLocationFeasible(t *testing.T) {
	cfg := domain.DefaultConfig()
	out := Check(baseState(), baseRoute(), stubOracle{}, cfg, true)
	assert.True(t, out.OK)
}

func TestCheck_ArrivalEqualsStartIsFeasible(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := baseRoute()
	state := baseState()
	state.CurrentLocationID = 3
	state.AvailableFrom = route.StartTime.Add(-30 * time.Minute)

	o := stubOracle{relations: map[[2]int]domain.Relation{
		{3, 1}: {FromID: 3, ToID: 1, DistanceKM: 10, TravelMinutes: 30},
	}}

	out := Check(state, route, o, cfg, true)
	assert.True(t, out.OK)
}

func TestCheck_CannotReachInTime(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := baseRoute()
	state := baseState()
	state.CurrentLocationID = 3
	state.AvailableFrom = route.StartTime.Add(-10 * time.Minute)

	o := stubOracle{relations: map[[2]int]domain.Relation{
		{3, 1}: {FromID: 3, ToID: 1, DistanceKM: 10, TravelMinutes: 30},
	}}

	out := Check(state, route, o, cfg, true)
	assert.False(t, out.OK)
	assert.Equal(t, domain.ReasonCannotReach, out.Reason)
}

func TestCheck_NoPath(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := baseRoute()
	state := baseState()
	state.CurrentLocationID = 99

	out := Check(state, route, stubOracle{}, cfg, true)
	assert.False(t, out.OK)
	assert.Equal(t, domain.ReasonNoPath, out.Reason)
}

func TestCheck_NotAvailableYet(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := baseRoute()
	state := baseState()
	state.AvailableFrom = route.StartTime.Add(1 * time.Hour)

	out := Check(state, route, stubOracle{}, cfg, true)
	assert.False(t, out.OK)
	assert.Equal(t, domain.ReasonNotAvailable, out.Reason)
}

func TestCheck_SwapPolicyExceeded(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Swap.MaxSwapsPerPeriod = 2
	cfg.Swap.SwapPeriodDays = 90

	route := baseRoute()
	state := baseState()
	state.CurrentLocationID = 3
	state.RelocationHistory = []domain.Relocation{
		{At: route.StartTime.Add(-24 * time.Hour), From: 9, To: 3},
		{At: route.StartTime.Add(-48 * time.Hour), From: 8, To: 9},
	}

	o := stubOracle{relations: map[[2]int]domain.Relation{
		{3, 1}: {FromID: 3, ToID: 1, DistanceKM: 10, TravelMinutes: 10},
	}}

	out := Check(state, route, o, cfg, true)
	assert.False(t, out.OK)
	assert.Equal(t, domain.ReasonSwapExceeded, out.Reason)
}

func TestCheck_SwapPolicyNotEnforced(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Swap.MaxSwapsPerPeriod = 1

	route := baseRoute()
	state := baseState()
	state.CurrentLocationID = 3
	state.RelocationHistory = []domain.Relocation{
		{At: route.StartTime.Add(-24 * time.Hour), From: 9, To: 3},
	}

	o := stubOracle{relations: map[[2]int]domain.Relation{
		{3, 1}: {FromID: 3, ToID: 1, DistanceKM: 10, TravelMinutes: 10},
	}}

	out := Check(state, route, o, cfg, false)
	assert.True(t, out.OK)
}

func TestCheck_LifetimeCapExceeded(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := baseRoute()
	state := baseState()
	state.HasLifetimeCap = true
	state.LifetimeCapKM = 150
	state.LifetimeKM = 100

	out := Check(state, route, stubOracle{}, cfg, true)
	assert.False(t, out.OK)
	assert.Equal(t, domain.ReasonWouldExceedContract, out.Reason)
}

func TestCheck_ServicePrePositioningDelaysAvailability(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := baseRoute()
	state := baseState()
	state.KMSinceService = state.ServiceIntervalKM + cfg.Service.ToleranceKM + 1
	state.AvailableFrom = route.StartTime.Add(-1 * time.Hour)

	out := Check(state, route, stubOracle{}, cfg, true)
	assert.False(t, out.OK)
	assert.Equal(t, domain.ReasonNotAvailable, out.Reason)
}

func TestCheck_InvalidRouteRejected(t *testing.T) {
	cfg := domain.DefaultConfig()
	route := baseRoute()
	route.DistanceKM = 0

	out := Check(baseState(), route, stubOracle{}, cfg, true)
	assert.False(t, out.OK)
	assert.Equal(t, domain.ReasonInvalidRoute, out.Reason)
}
