// Package chain implements a look-ahead scorer: a forward-looking reward for
// a hypothetical post-route vehicle state, computed without cloning the full
// VehicleState.
package chain

import (
	"math"
	"sort"
	"time"

	"github.com/fleetsim/optimizer/internal/engine/costs"
	"github.com/fleetsim/optimizer/internal/engine/feasibility"
	"github.com/fleetsim/optimizer/pkg/domain"
)

// Overlay is the lightweight hypothetical state the chain scorer evaluates
// each look-ahead route against. It deliberately carries only the fields a
// feasibility/cost evaluation needs, avoiding a deep copy of the full
// vehicle state for look-ahead.
type Overlay struct {
	LocationID      int
	AvailableFrom   time.Time
	KMSinceService  int
	KMThisLeaseYear int
	LifetimeKM      int

	// Static per-vehicle attributes a cost evaluation needs; these never
	// change across the scan so they are copied once, not re-derived.
	AnnualLimitKM     int
	ServiceIntervalKM int
}

// FromState builds the overlay a chain scan starts from: the hypothetical
// state a vehicle would be in immediately after accepting the route under
// evaluation.
func FromState(s domain.VehicleState) Overlay {
	return Overlay{
		LocationID:        s.CurrentLocationID,
		AvailableFrom:     s.AvailableFrom,
		KMSinceService:    s.KMSinceService,
		KMThisLeaseYear:   s.KMThisLeaseYear,
		LifetimeKM:        s.LifetimeKM,
		AnnualLimitKM:     s.AnnualLimitKM,
		ServiceIntervalKM: s.ServiceIntervalKM,
	}
}

// apply advances the overlay past a route as if it had been assigned,
// without touching relocation history or lease-year bookkeeping — those are
// irrelevant to a forward score and are exactly what the overlay exists to
// avoid carrying.
func (o Overlay) apply(route domain.Route, relocKM float64) Overlay {
	out := o
	out.LocationID = route.EndLocationID()
	out.AvailableFrom = route.EndTime
	out.KMSinceService += int(relocKM) + int(route.DistanceKM)
	out.KMThisLeaseYear += int(relocKM) + int(route.DistanceKM)
	out.LifetimeKM += int(relocKM) + int(route.DistanceKM)
	return out
}

func (o Overlay) feasibleFor(route domain.Route, oracle feasibility.Relocator) (ok bool, reloc domain.Relation, requiresRelocation bool) {
	if route.StartLocationID() < 0 || route.DistanceKM <= 0 || !route.EndTime.After(route.StartTime) {
		return false, domain.Relation{}, false
	}
	if o.AvailableFrom.After(route.StartTime) {
		return false, domain.Relation{}, false
	}
	requiresRelocation = o.LocationID != route.StartLocationID()
	if requiresRelocation {
		r, found := oracle.Lookup(o.LocationID, route.StartLocationID())
		if !found {
			return false, domain.Relation{}, requiresRelocation
		}
		reloc = r
		arrival := o.AvailableFrom.Add(time.Duration(r.TravelMinutes) * time.Minute)
		if arrival.After(route.StartTime) {
			return false, reloc, requiresRelocation
		}
	}
	return true, reloc, requiresRelocation
}

// Score scans forward through candidateRoutes (assumed already filtered to
// those starting after the route under evaluation), stopping at the first
// of MaxLookaheadRoutes or the configured look-ahead day window, whichever
// comes first. Swap policy is never enforced in this scan. It returns the
// geometrically-decayed sum of the top ChainDepth route scores.
func Score(overlay Overlay, candidateRoutes []domain.Route, oracle feasibility.Relocator, cfg domain.Config) float64 {
	if cfg.Assignment.ChainDepth <= 0 {
		return 0
	}
	deadline := overlay.AvailableFrom.AddDate(0, 0, cfg.Assignment.LookAheadDays)

	type scored struct{ score float64 }
	var candidates []scored

	checked := 0
	for _, route := range candidateRoutes {
		if checked >= cfg.Assignment.MaxLookaheadRoutes {
			break
		}
		if route.StartTime.After(deadline) {
			break
		}
		checked++

		ok, reloc, requiresRelocation := overlay.feasibleFor(route, oracle)
		if !ok {
			continue
		}

		needsServiceSoon := overlay.KMSinceService+int(route.DistanceKM) > overlay.ServiceIntervalKM+cfg.Service.ToleranceKM
		projectedYearlyKM := overlay.KMThisLeaseYear + int(route.DistanceKM) + int(reloc.DistanceKM)
		breakdown := costs.Assignment(reloc, requiresRelocation, projectedYearlyKM, overlay.AnnualLimitKM, needsServiceSoon, cfg)

		routeScore := 1000.0 / (breakdown.Total + 100.0)
		candidates = append(candidates, scored{score: routeScore})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	depth := cfg.Assignment.ChainDepth
	if depth > len(candidates) {
		depth = len(candidates)
	}

	var total float64
	for i := 0; i < depth; i++ {
		total += candidates[i].score * math.Pow(0.5, float64(i))
	}
	return total
}
