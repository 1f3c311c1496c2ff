package domain

import "time"

// Reason discriminates why a (vehicle, route) pairing was rejected, replacing
// exception-for-control-flow with an explicit, enumerated result.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonInvalidRoute       Reason = "invalid_route"
	ReasonNotAvailable       Reason = "not_available"
	ReasonCannotReach        Reason = "cannot_reach"
	ReasonNoPath             Reason = "no_path"
	ReasonSwapExceeded       Reason = "swap_exceeded"
	ReasonWouldExceedContract Reason = "would_exceed_contract"
)

// Outcome is the result of a feasibility check: either ok with no reason, or
// not ok carrying exactly one Reason.
type Outcome struct {
	OK     bool
	Reason Reason
	Detail string
}

func Feasible() Outcome { return Outcome{OK: true} }

func Infeasible(reason Reason, detail string) Outcome {
	return Outcome{OK: false, Reason: reason, Detail: detail}
}

// Assignment is the immutable record of one accepted vehicle-to-route
// pairing, carrying enough of a before/after snapshot to support the
// round-trip testable property without re-deriving it from state.
type Assignment struct {
	RouteID    int
	VehicleID  int
	AssignedAt time.Time

	RouteStartLocationID int
	RouteEndLocationID   int

	RequiresRelocation bool
	RequiresService    bool

	RelocationFromID   int
	RelocationToID     int
	RelocationDistKM   float64
	RelocationMinutes  float64

	OdometerBeforeKM int
	OdometerAfterKM  int
	AnnualKMBefore   int
	AnnualKMAfter    int
	OverageKM        int

	ImmediateCost  float64
	ChainScore     float64
	EffectiveCost  float64
	UsedRelaxedPass bool
}

// RunResult is the terminal output of one assignment driver execution.
type RunResult struct {
	Assignments      []Assignment
	UnassignedRoutes []int
	FinalStates      map[int]VehicleState
	TotalCost        float64
	TotalRelocation  float64
	TotalOverage     float64
	Incomplete       bool
}

// PlacementResult maps each vehicle to its assigned starting location,
// alongside a quality report used both for the HTTP response and for
// driving the assignment driver's initial VehicleState construction.
type PlacementResult struct {
	Placements map[int]int // vehicle_id -> location_id
	Quality    PlacementQuality
}

// PlacementQuality summarises how good a placement is expected to be.
type PlacementQuality struct {
	TotalVehiclesPlaced     int
	LocationsUsed           int
	MaxConcentration        float64
	DemandCoverage          float64
	EstimatedRelocationCost float64
	DistributionByLocation  map[int]int
}
