package domain

import "time"

// Relocation records a single non-revenue move, kept only long enough to
// enforce the swap-policy window.
type Relocation struct {
	At   time.Time
	From int
	To   int
}

// VehicleState is the mutable, per-run state the driver owns for one
// vehicle. It is created once at driver setup and mutated exactly on
// assignment acceptance.
type VehicleState struct {
	VehicleID int

	CurrentLocationID int
	OdometerKM        int
	KMSinceService    int
	KMThisLeaseYear   int
	LifetimeKM        int
	AvailableFrom     time.Time
	LastRouteID       int // 0 means none yet

	RelocationHistory []Relocation

	AnnualLimitKM    int
	ServiceIntervalKM int
	LifetimeCapKM    int
	HasLifetimeCap   bool

	LeaseStart        time.Time
	LeaseEnd          time.Time
	LeaseCycleNumber  int

	ServicesDone        int
	ServiceCostAccrued  float64
	RoutesAssigned      int
	TotalRelocationCost float64
	TotalOverageCost    float64
}

// Clone returns a deep-enough copy for use as the staging value during an
// atomic state transition: the slice backing array is copied so appends to
// the clone never alias the live state.
func (s VehicleState) Clone() VehicleState {
	clone := s
	clone.RelocationHistory = append([]Relocation(nil), s.RelocationHistory...)
	return clone
}

// RelocationsWithin counts relocations with timestamp >= cutoff, the
// quantity the swap-policy check and the swap-budget invariant both need.
func (s VehicleState) RelocationsWithin(cutoff time.Time) int {
	n := 0
	for _, r := range s.RelocationHistory {
		if !r.At.Before(cutoff) {
			n++
		}
	}
	return n
}

// PruneRelocationHistory drops entries older than cutoff.
func (s *VehicleState) PruneRelocationHistory(cutoff time.Time) {
	kept := s.RelocationHistory[:0]
	for _, r := range s.RelocationHistory {
		if !r.At.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	s.RelocationHistory = kept
}

// NewVehicleState builds the initial state for a vehicle at the start of a
// run, given its static record, its placed location, and availableFrom, the
// start of the 24-hour pre-positioning grace window before its first route.
func NewVehicleState(v Vehicle, locationID int, availableFrom time.Time) VehicleState {
	capKM, hasCap := v.LifetimeCapKM()
	return VehicleState{
		VehicleID:         v.ID,
		CurrentLocationID: locationID,
		OdometerKM:        v.CurrentOdometerKM,
		LifetimeKM:        v.CurrentOdometerKM,
		AvailableFrom:     availableFrom,
		AnnualLimitKM:     v.AnnualLimitKM(),
		ServiceIntervalKM: v.ServiceIntervalKM,
		LifetimeCapKM:     capKM,
		HasLifetimeCap:    hasCap,
		LeaseStart:        v.LeaseStart,
		LeaseEnd:          v.LeaseEnd,
		LeaseCycleNumber:  0,
	}
}
