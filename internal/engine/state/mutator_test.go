package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestApply_SameLocationNoRelocation(t *testing.T) {
	cfg := domain.DefaultConfig()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	route := domain.Route{
		ID: 1, StartTime: start, EndTime: start.Add(2 * time.Hour), DistanceKM: 100,
		Segments: []domain.Segment{{StartLocID: 1, EndLocID: 2, StartTime: start, EndTime: start.Add(2 * time.Hour)}},
	}
	s := domain.VehicleState{
		CurrentLocationID: 1,
		AvailableFrom:     start.Add(-1 * time.Hour),
		LeaseEnd:          start.AddDate(1, 0, 0),
	}

	out := Apply(s, route, stubOracle{}, cfg)

	assert.Equal(t, 2, out.CurrentLocationID)
	assert.Equal(t, 100, out.OdometerKM)
	assert.Equal(t, 100, out.KMThisLeaseYear)
	assert.Equal(t, 1, out.RoutesAssigned)
	assert.True(t, out.AvailableFrom.Equal(route.EndTime))
	assert.Empty(t, out.RelocationHistory)
}

func TestApply_InputStateUnmutated(t *testing.T) {
	cfg := domain.DefaultConfig()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	route := domain.Route{
		ID: 1, StartTime: start, EndTime: start.Add(1 * time.Hour), DistanceKM: 50,
		Segments: []domain.Segment{{StartLocID: 1, EndLocID: 1, StartTime: start, EndTime: start.Add(1 * time.Hour)}},
	}
	in := domain.VehicleState{CurrentLocationID: 1, LeaseEnd: start.AddDate(1, 0, 0)}

	_ = Apply(in, route, stubOracle{}, cfg)

	assert.Equal(t, 0, in.OdometerKM, "input state must not be mutated")
	assert.Equal(t, 0, in.RoutesAssigned)
}

func TestApply_RelocationAddsDistanceAndHistory(t *testing.T) {
	cfg := domain.DefaultConfig()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	route := domain.Route{
		ID: 2, StartTime: start, EndTime: start.Add(2 * time.Hour), DistanceKM: 80,
		Segments: []domain.Segment{{StartLocID: 2, EndLocID: 3, StartTime: start, EndTime: start.Add(2 * time.Hour)}},
	}
	s := domain.VehicleState{
		CurrentLocationID: 1,
		AvailableFrom:     start.Add(-1 * time.Hour),
		LeaseEnd:          start.AddDate(1, 0, 0),
	}
	o := stubOracle{relations: map[[2]int]domain.Relation{
		{1, 2}: {FromID: 1, ToID: 2, DistanceKM: 50, TravelMinutes: 60},
	}}

	out := Apply(s, route, o, cfg)

	require.Len(t, out.RelocationHistory, 1)
	assert.Equal(t, 1, out.RelocationHistory[0].From)
	assert.Equal(t, 2, out.RelocationHistory[0].To)
	assert.Equal(t, 130, out.OdometerKM) // 50 relocation + 80 route
	assert.Equal(t, 130, out.KMThisLeaseYear)
	assert.Equal(t, 3, out.CurrentLocationID)
}

func TestApply_LeaseYearRollover(t *testing.T) {
	cfg := domain.DefaultConfig()
	leaseEnd := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := leaseEnd.Add(-1 * time.Hour) // 2024-05-31 23:00
	end := leaseEnd.Add(1 * time.Hour)    // 2024-06-01 01:00
	route := domain.Route{
		ID: 3, StartTime: start, EndTime: end, DistanceKM: 200,
		Segments: []domain.Segment{{StartLocID: 1, EndLocID: 1, StartTime: start, EndTime: end}},
	}
	s := domain.VehicleState{
		CurrentLocationID: 1,
		AvailableFrom:     start,
		LeaseEnd:          leaseEnd,
		LeaseCycleNumber:  0,
	}

	out := Apply(s, route, stubOracle{}, cfg)

	assert.Equal(t, 1, out.LeaseCycleNumber, "lease cycle advances exactly once")
	// 1 hour of the 2-hour route falls after the original lease_end: ~100km portion.
	assert.InDelta(t, 100, out.KMThisLeaseYear, 1)
	assert.Equal(t, 200, out.OdometerKM, "full distance always credited to odometer")
}

func TestApply_ServiceScheduledWhenOverdue(t *testing.T) {
	cfg := domain.DefaultConfig()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	route := domain.Route{
		ID: 4, StartTime: start, EndTime: start.Add(1 * time.Hour), DistanceKM: 50,
		Segments: []domain.Segment{{StartLocID: 1, EndLocID: 1, StartTime: start, EndTime: start.Add(1 * time.Hour)}},
	}
	s := domain.VehicleState{
		CurrentLocationID: 1,
		AvailableFrom:     start,
		ServiceIntervalKM: 20000,
		KMSinceService:    20000 + cfg.Service.ToleranceKM + 1,
		LeaseEnd:          start.AddDate(1, 0, 0),
	}

	out := Apply(s, route, stubOracle{}, cfg)

	assert.Equal(t, 1, out.ServicesDone)
	assert.True(t, out.AvailableFrom.Equal(route.EndTime), "step 6 always sets available_from to route end time")
}
