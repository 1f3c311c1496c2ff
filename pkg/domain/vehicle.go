package domain

import "time"

// LifetimeLimitThresholdKM is the boundary above which a leasing limit is
// treated as a total contract (lifetime) cap rather than an annual one.
const LifetimeLimitThresholdKM = 200000

// DefaultAnnualLimitKM is the synthetic annual limit applied to vehicles
// under a lifetime-capped contract, matching the source data convention.
const DefaultAnnualLimitKM = 150000

// Vehicle is the static, load-time record for one fleet vehicle. It never
// changes during a run; mutable per-run state lives in VehicleState.
type Vehicle struct {
	ID                 int
	Registration       string
	Brand              string
	ServiceIntervalKM  int
	LeasingStartKM     int
	LeasingLimitKM     int
	LeaseStart         time.Time
	LeaseEnd           time.Time
	CurrentOdometerKM  int
	CurrentLocationID  *int // nil when unplaced
}

// HasLifetimeLimit reports whether the leasing limit is a total contract cap
// (> 200,000 km) rather than an annual one.
func (v Vehicle) HasLifetimeLimit() bool {
	return v.LeasingLimitKM > LifetimeLimitThresholdKM
}

// AnnualLimitKM returns the kilometres allowed within one lease year.
func (v Vehicle) AnnualLimitKM() int {
	if v.HasLifetimeLimit() {
		return DefaultAnnualLimitKM
	}
	return v.LeasingLimitKM
}

// LifetimeCapKM returns the total contract limit and whether one applies.
func (v Vehicle) LifetimeCapKM() (limit int, ok bool) {
	if v.HasLifetimeLimit() {
		return v.LeasingLimitKM, true
	}
	return 0, false
}
