package chain

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

func route(id, startLoc, endLoc int, start time.Time, distanceKM float64) domain.Route {
	end := start.Add(2 * time.Hour)
	return domain.Route{
		ID: id, StartTime: start, EndTime: end, DistanceKM: distanceKM,
		Segments: []domain.Segment{{StartLocID: startLoc, EndLocID: endLoc, StartTime: start, EndTime: end}},
	}
}

func TestScore_NoCandidatesIsZero(t *testing.T) {
	cfg := domain.DefaultConfig()
	overlay := Overlay{LocationID: 1, AvailableFrom: time.Now(), AnnualLimitKM: 150000}

	got := Score(overlay, nil, stubOracle{}, cfg)

	assert.Equal(t, 0.0, got)
}

func TestScore_PositiveWhenFeasibleRoutesFollow(t *testing.T) {
	cfg := domain.DefaultConfig()
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	overlay := Overlay{LocationID: 1, AvailableFrom: start, AnnualLimitKM: 150000, ServiceIntervalKM: 20000}

	future := []domain.Route{
		route(2, 1, 2, start.Add(3*time.Hour), 50),
		route(3, 2, 1, start.Add(6*time.Hour), 50),
	}

	got := Score(overlay, future, stubOracle{}, cfg)

	assert.Greater(t, got, 0.0)
}

func TestScore_IgnoresRoutesBeyondLookaheadWindow(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Assignment.LookAheadDays = 1
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	overlay := Overlay{LocationID: 1, AvailableFrom: start, AnnualLimitKM: 150000}

	future := []domain.Route{
		route(2, 1, 1, start.AddDate(0, 0, 10), 50),
	}

	got := Score(overlay, future, stubOracle{}, cfg)

	assert.Equal(t, 0.0, got)
}

func TestScore_StopsAtMaxLookaheadRoutes(t *testing.T) {
	cfg := domain.DefaultConfig()
	cfg.Assignment.MaxLookaheadRoutes = 1
	cfg.Assignment.LookAheadDays = 30
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	overlay := Overlay{LocationID: 1, AvailableFrom: start, AnnualLimitKM: 150000}

	// Second route would be infeasible (no path to location 9), but since
	// MaxLookaheadRoutes=1, only the first is even examined.
	future := []domain.Route{
		route(2, 1, 1, start.Add(3*time.Hour), 50),
		route(3, 9, 1, start.Add(6*time.Hour), 50),
	}

	got := Score(overlay, future, stubOracle{}, cfg)
	assert.Greater(t, got, 0.0)
}
