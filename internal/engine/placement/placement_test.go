package placement

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
	_, ok := s.relations[[2]int{from, to}]
	return domain.Relation{}, ok
}

func vroute(id, from, to int, start time.Time) domain.Route {
	end := start.Add(1 * time.Hour)
	return domain.Route{ID: id, StartTime: start, EndTime: end, DistanceKM: 10,
		Segments: []domain.Segment{{StartLocID: from, EndLocID: to, StartTime: start, EndTime: end}}}
}

func TestRun_NoRoutesFallsBackToVehicleCurrentLocation(t *testing.T) {
	cfg := domain.DefaultConfig()
	loc := 7
	vehicles := []domain.Vehicle{{ID: 1, CurrentLocationID: &loc}}

	res := Run(vehicles, nil, stubOracle{}, cfg)

	assert.Equal(t, 7, res.Placements[1])
}

func TestRun_CostMatrixGreedyFavoursHighDemandLocation(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Placement.Strategy = domain.PlacementCostMatrix
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	routes := []domain.Route{
		vroute(1, 1, 2, start),
		vroute(2, 1, 2, start.Add(time.Hour)),
		vroute(3, 1, 2, start.Add(2*time.Hour)),
		vroute(4, 3, 4, start.Add(3*time.Hour)),
	}
	vehicles := []domain.Vehicle{{ID: 1}}

	res := Run(vehicles, routes, stubOracle{}, cfg)

	require.Contains(t, res.Placements, 1)
	assert.Equal(t, 1, res.Placements[1], "location 1 has the most starts and should be cheapest")
}

func TestRun_ProportionalDistributesAcrossLocations(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Placement.Strategy = domain.PlacementProportional
	cfg.Placement.MaxConcentration = 1.0
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	routes := []domain.Route{
		vroute(1, 1, 2, start),
		vroute(2, 1, 2, start.Add(time.Hour)),
		vroute(3, 3, 4, start.Add(2*time.Hour)),
	}
	vehicles := []domain.Vehicle{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	res := Run(vehicles, routes, stubOracle{}, cfg)

	require.Len(t, res.Placements, 4)
	assert.Equal(t, 4, res.Quality.TotalVehiclesPlaced)
}

func TestRun_CoverageFirstSeedsEveryDemandedLocation(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Placement.Strategy = domain.PlacementCoverageFirst
	cfg.Placement.MaxConcentration = 1.0
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	routes := []domain.Route{
		vroute(1, 1, 9, start),
		vroute(2, 2, 9, start.Add(time.Hour)),
		vroute(3, 3, 9, start.Add(2*time.Hour)),
	}
	vehicles := []domain.Vehicle{{ID: 1}, {ID: 2}, {ID: 3}}

	res := Run(vehicles, routes, stubOracle{}, cfg)

	seen := make(map[int]bool)
	for _, loc := range res.Placements {
		seen[loc] = true
	}
	assert.True(t, seen[1])
	assert.True(t, seen[2])
	assert.True(t, seen[3])
}

func TestRun_QualityReportsZeroCoverageWithNoDemand(t *testing.T) {
	cfg := domain.DefaultConfig()
	loc := 1
	vehicles := []domain.Vehicle{{ID: 1, CurrentLocationID: &loc}}

	res := Run(vehicles, nil, stubOracle{}, cfg)

	assert.Equal(t, 0.0, res.Quality.DemandCoverage)
	assert.Equal(t, 1, res.Quality.TotalVehiclesPlaced)
}
