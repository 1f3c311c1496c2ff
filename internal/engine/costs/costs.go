// Package costs implements the monetary cost model for pricing a candidate
// (vehicle, route) assignment: relocation, overage, and service components.
package costs

import "github.com/fleetsim/optimizer/pkg/domain"

// NoPathCost is a sentinel cost for a relocation that is required when no
// relation (direct or synthetic) connects the two locations: a value large
// enough to never win a cost comparison, but not infinite, so it still
// participates in arithmetic cleanly. Nothing in the engine applies it: the
// feasibility gate rejects such pairings before they are priced.
const NoPathCost = 999999.0

// Relocation returns the cost of moving between two locations across
// relation r. Callers must not call this for the identity relation (from ==
// to); that case costs zero by construction and has no relocation to price.
func Relocation(r domain.Relation, cfg domain.CostConfig) float64 {
	return cfg.RelocationBase +
		r.DistanceKM*cfg.RelocationPerKM +
		(r.TravelMinutes/60.0)*cfg.RelocationPerHour
}

// Overage returns the cost of kilometres driven beyond a vehicle's annual
// limit in the current lease year. It is always recomputed from the current
// projected yearly total, never accumulated incrementally.
func Overage(projectedYearlyKM, annualLimitKM int, perKM float64) float64 {
	excess := projectedYearlyKM - annualLimitKM
	if excess <= 0 {
		return 0
	}
	return float64(excess) * perKM
}

// Breakdown is the itemised cost of one candidate (vehicle, route) pairing.
type Breakdown struct {
	Relocation     float64
	Overage        float64
	ServicePenalty float64
	Total          float64
}

// Assignment computes the full immediate cost breakdown for assigning a
// vehicle in the given state to serve distanceKM more kilometres, optionally
// relocating across relation reloc first, and optionally incurring a
// service penalty because service is imminent (a soft constraint, priced
// but never gating).
func Assignment(reloc domain.Relation, requiresRelocation bool, projectedYearlyKM, annualLimitKM int, needsServiceSoon bool, cfg domain.Config) Breakdown {
	var b Breakdown
	if requiresRelocation {
		b.Relocation = Relocation(reloc, cfg.Costs)
	}
	b.Overage = Overage(projectedYearlyKM, annualLimitKM, cfg.Costs.OveragePerKM)
	if needsServiceSoon {
		b.ServicePenalty = cfg.Service.Penalty
	}
	b.Total = b.Relocation + b.Overage + b.ServicePenalty
	return b
}
