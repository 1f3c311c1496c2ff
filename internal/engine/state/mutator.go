// Package state implements the atomic post-assignment vehicle state
// transition: lease rollover, service scheduling, relocation, and route
// mileage accounting applied as a single all-or-nothing step.
package state

import (
	"time"

	"github.com/fleetsim/optimizer/pkg/domain"
)

// Relocator resolves the relation between two locations, mirroring
// feasibility.Relocator so this package never depends on the oracle's
// concrete type.
type Relocator interface {
	Lookup(from, to int) (domain.Relation, bool)
}

// Apply computes the full six-step transition for accepting route on a
// vehicle currently in state, returning the new state. The input state is
// never mutated: every step is computed into a local copy first, and only
// the fully-formed result is returned, so a caller can discard it on any
// downstream failure without the live state having changed.
func Apply(in domain.VehicleState, route domain.Route, oracle Relocator, cfg domain.Config) domain.VehicleState {
	s := in.Clone()

	// Step 1: lease-year rollover, possibly cascading.
	rolloverLeaseYear(&s, route.StartTime)

	// Step 2: relocation-history prune.
	cutoff := route.StartTime.AddDate(0, 0, -cfg.Swap.SwapPeriodDays)
	s.PruneRelocationHistory(cutoff)

	// Step 3: service.
	if s.KMSinceService > s.ServiceIntervalKM+cfg.Service.ToleranceKM {
		serviceEnd := s.AvailableFrom.Add(time.Duration(cfg.Service.DurationHours) * time.Hour)
		s.KMSinceService = 0
		s.ServiceCostAccrued += cfg.Service.Cost
		s.ServicesDone++
		s.AvailableFrom = serviceEnd
	}

	// Step 4: relocation.
	requiresRelocation := s.CurrentLocationID != route.StartLocationID()
	var relocCost float64
	if requiresRelocation {
		reloc, ok := oracle.Lookup(s.CurrentLocationID, route.StartLocationID())
		if ok {
			s.RelocationHistory = append(s.RelocationHistory, domain.Relocation{
				At:   route.StartTime,
				From: s.CurrentLocationID,
				To:   route.StartLocationID(),
			})
			relocKM := int(reloc.DistanceKM)
			s.OdometerKM += relocKM
			s.KMThisLeaseYear += relocKM
			s.LifetimeKM += relocKM
			s.KMSinceService += relocKM
			relocCost = reloc.DistanceKM*cfg.Costs.RelocationPerKM + cfg.Costs.RelocationBase + (reloc.TravelMinutes/60.0)*cfg.Costs.RelocationPerHour
		}
	}
	s.TotalRelocationCost += relocCost

	// Step 5: route kilometres, pro-rated across a lease-year boundary.
	addRouteKM(&s, route)

	// Step 6: location and availability.
	s.CurrentLocationID = route.EndLocationID()
	s.AvailableFrom = route.EndTime
	s.LastRouteID = route.ID
	s.RoutesAssigned++

	return s
}

// rolloverLeaseYear advances lease_start/lease_end by 365-day increments
// while at is on or after lease_end, cascading if the vehicle has been idle
// more than one lease year.
func rolloverLeaseYear(s *domain.VehicleState, at time.Time) {
	for !at.Before(s.LeaseEnd) {
		s.KMThisLeaseYear = 0
		s.LeaseStart = s.LeaseEnd
		s.LeaseEnd = s.LeaseEnd.AddDate(0, 0, 365)
		s.LeaseCycleNumber++
	}
}

// addRouteKM adds the route's full distance to odometer/lifetime/service
// counters unconditionally, and splits the lease-year-credited portion by
// elapsed wall-time fraction when the route itself straddles a lease-year
// boundary.
func addRouteKM(s *domain.VehicleState, route domain.Route) {
	km := int(route.DistanceKM)
	s.OdometerKM += km
	s.LifetimeKM += km
	s.KMSinceService += km

	if route.EndTime.Before(s.LeaseEnd) {
		s.KMThisLeaseYear += km
		return
	}

	totalSeconds := route.EndTime.Sub(route.StartTime).Seconds()
	if totalSeconds <= 0 {
		s.KMThisLeaseYear += km
		return
	}
	inCurrentYearSeconds := s.LeaseEnd.Sub(route.StartTime).Seconds()
	if inCurrentYearSeconds < 0 {
		inCurrentYearSeconds = 0
	}
	kmBeforeBoundary := int(float64(km) * inCurrentYearSeconds / totalSeconds)
	s.KMThisLeaseYear += kmBeforeBoundary

	// Roll the lease year forward to route.EndTime and credit the remainder
	// to the (now current) next lease year.
	rolloverLeaseYear(s, route.EndTime)
	s.KMThisLeaseYear += km - kmBeforeBoundary
}
