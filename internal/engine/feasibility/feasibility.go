// Package feasibility implements the hard-constraint gate on (vehicle,
// route) pairs. Soft constraints (service imminence, annual overage) are
// priced by the cost model, never gated here.
package feasibility

import (
	"time"

	"github.com/fleetsim/optimizer/pkg/domain"
)

// Relocator resolves the relation between two locations. *oracle.Oracle
// satisfies this; it is expressed as an interface here so the checker
// package never imports the oracle package's concrete type, keeping the
// dependency direction leaf-ward.
type Relocator interface {
	Lookup(from, to int) (domain.Relation, bool)
}

// EffectiveAvailability is the result of evaluating the service
// pre-positioning step: the availability time a candidate would have once
// any required pre-route service is accounted for.
type EffectiveAvailability struct {
	At             time.Time
	ServiceApplied bool
}

// Check runs the six-step hard-constraint gate in a fixed order.
// enforceSwapPolicy is false during the chain scorer's forward scan and
// during the assignment driver's relaxed fallback pass.
func Check(state domain.VehicleState, route domain.Route, oracle Relocator, cfg domain.Config, enforceSwapPolicy bool) domain.Outcome {
	// 1. Route sanity.
	if route.StartLocationID() < 0 || route.EndLocationID() < 0 {
		return domain.Infeasible(domain.ReasonInvalidRoute, "route has no segments")
	}
	if route.DistanceKM <= 0 {
		return domain.Infeasible(domain.ReasonInvalidRoute, "route distance must be positive")
	}
	if !route.EndTime.After(route.StartTime) {
		return domain.Infeasible(domain.ReasonInvalidRoute, "route end_time must be after start_time")
	}

	// 2. Potential service pre-positioning.
	eff := serviceAdjustedAvailability(state, cfg)

	// 3. Time to be at start (without relocation).
	if eff.At.After(route.StartTime) {
		return domain.Infeasible(domain.ReasonNotAvailable, "vehicle not available before route start")
	}

	// 4. Reachability.
	var reloc domain.Relation
	requiresRelocation := state.CurrentLocationID != route.StartLocationID()
	if requiresRelocation {
		r, ok := oracle.Lookup(state.CurrentLocationID, route.StartLocationID())
		if !ok {
			return domain.Infeasible(domain.ReasonNoPath, "no relation between current location and route start")
		}
		reloc = r
		arrival := eff.At.Add(time.Duration(r.TravelMinutes) * time.Minute)
		if arrival.After(route.StartTime) {
			return domain.Infeasible(domain.ReasonCannotReach, "cannot reach route start in time")
		}
	}

	// 5. Swap policy.
	if enforceSwapPolicy && requiresRelocation {
		cutoff := route.StartTime.AddDate(0, 0, -cfg.Swap.SwapPeriodDays)
		if state.RelocationsWithin(cutoff) >= cfg.Swap.MaxSwapsPerPeriod {
			return domain.Infeasible(domain.ReasonSwapExceeded, "swap policy window exceeded")
		}
	}

	// 6. Lifetime cap.
	if state.HasLifetimeCap {
		projected := state.LifetimeKM + int(route.DistanceKM) + int(reloc.DistanceKM)
		if projected > state.LifetimeCapKM {
			return domain.Infeasible(domain.ReasonWouldExceedContract, "would exceed lifetime contract limit")
		}
	}

	return domain.Feasible()
}

// NeedsServiceBefore reports whether a vehicle's current KMSinceService
// already exceeds its tolerance, independent of the route under
// consideration.
func NeedsServiceBefore(state domain.VehicleState, cfg domain.Config) bool {
	return state.KMSinceService > state.ServiceIntervalKM+cfg.Service.ToleranceKM
}

// NeedsServiceSoon reports the soft-constraint variant priced into cost:
// whether completing the given route would push the vehicle over its
// service tolerance, without requiring service first.
func NeedsServiceSoon(state domain.VehicleState, route domain.Route, cfg domain.Config) bool {
	after := state.KMSinceService + int(route.DistanceKM)
	return after > state.ServiceIntervalKM+cfg.Service.ToleranceKM
}

func serviceAdjustedAvailability(state domain.VehicleState, cfg domain.Config) EffectiveAvailability {
	if !NeedsServiceBefore(state, cfg) {
		return EffectiveAvailability{At: state.AvailableFrom}
	}
	duration := time.Duration(cfg.Service.DurationHours) * time.Hour
	return EffectiveAvailability{At: state.AvailableFrom.Add(duration), ServiceApplied: true}
}
