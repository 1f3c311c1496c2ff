package domain

// CostConfig holds the monetary constants of the cost model.
type CostConfig struct {
	RelocationBase    float64 `mapstructure:"relocation_base"`
	RelocationPerKM   float64 `mapstructure:"relocation_per_km"`
	RelocationPerHour float64 `mapstructure:"relocation_per_hour"`
	OveragePerKM      float64 `mapstructure:"overage_per_km"`
}

// ServicePolicy holds the rules governing scheduled vehicle service.
type ServicePolicy struct {
	ToleranceKM     int     `mapstructure:"service_tolerance_km"`
	DurationHours   int     `mapstructure:"service_duration_hours"`
	Cost            float64 `mapstructure:"service_cost"`
	Penalty         float64 `mapstructure:"service_penalty"`
}

// SwapPolicy caps how often a vehicle may be relocated within a window.
type SwapPolicy struct {
	MaxSwapsPerPeriod int `mapstructure:"max_swaps_per_period"`
	SwapPeriodDays    int `mapstructure:"swap_period_days"`
}

// AssignmentStrategy selects the driver's candidate-selection behaviour.
type AssignmentStrategy string

const (
	StrategyGreedy              AssignmentStrategy = "greedy"
	StrategyGreedyWithLookahead AssignmentStrategy = "greedy_with_lookahead"
)

// AssignmentSettings controls the driver's behaviour.
type AssignmentSettings struct {
	Strategy                AssignmentStrategy `mapstructure:"strategy"`
	AssignmentLookaheadDays int                `mapstructure:"assignment_lookahead_days"`
	LookAheadDays           int                `mapstructure:"look_ahead_days"`
	ChainDepth              int                `mapstructure:"chain_depth"`
	ChainWeight             float64            `mapstructure:"chain_weight"`
	MaxLookaheadRoutes      int                `mapstructure:"max_lookahead_routes"`
	UseChainOptimization    bool               `mapstructure:"use_chain_optimization"`
	SwapViolationPenalty    float64            `mapstructure:"swap_violation_penalty"`
	ProgressReportInterval  int                `mapstructure:"progress_report_interval"`
}

// PlacementStrategy selects the placement engine's allocation algorithm.
type PlacementStrategy string

const (
	PlacementCostMatrix    PlacementStrategy = "cost_matrix"
	PlacementProportional  PlacementStrategy = "proportional"
	PlacementCoverageFirst PlacementStrategy = "coverage_first"
)

// PlacementSettings controls the placement engine.
type PlacementSettings struct {
	Strategy              PlacementStrategy `mapstructure:"strategy"`
	LookaheadDays         int               `mapstructure:"lookahead_days"`
	MaxConcentration      float64           `mapstructure:"max_concentration"`
	MaxVehiclesPerLocation int              `mapstructure:"max_vehicles_per_location"` // 0 means unset/derived
}

// PerformanceSettings are runtime switches that do not change semantics,
// only how the algorithm computes its answer.
type PerformanceSettings struct {
	ProgressReportInterval int  `mapstructure:"progress_report_interval"`
	UsePathfinding         bool `mapstructure:"use_pathfinding"`
	UseRelationCache       bool `mapstructure:"use_relation_cache"`
}

// Config is the full recognised configuration object.
type Config struct {
	Costs       CostConfig          `mapstructure:"costs"`
	Service     ServicePolicy       `mapstructure:"service_policy"`
	Swap        SwapPolicy          `mapstructure:"swap_policy"`
	Assignment  AssignmentSettings  `mapstructure:"assignment"`
	Placement   PlacementSettings   `mapstructure:"placement"`
	Performance PerformanceSettings `mapstructure:"performance"`
}

// DefaultConfig returns the baseline tuning values for cost, service, swap,
// assignment, placement, and performance behaviour.
func DefaultConfig() Config {
	return Config{
		Costs: CostConfig{
			RelocationBase:    1000.0,
			RelocationPerKM:   1.0,
			RelocationPerHour: 150.0,
			OveragePerKM:      0.92,
		},
		Service: ServicePolicy{
			ToleranceKM:   1000,
			DurationHours: 48,
			Cost:          0,
			Penalty:       500.0,
		},
		Swap: SwapPolicy{
			MaxSwapsPerPeriod: 1,
			SwapPeriodDays:    90,
		},
		Assignment: AssignmentSettings{
			Strategy:                StrategyGreedyWithLookahead,
			AssignmentLookaheadDays: 0, // 0 means unrestricted
			LookAheadDays:           7,
			ChainDepth:              3,
			ChainWeight:             1.0,
			MaxLookaheadRoutes:      50,
			UseChainOptimization:    true,
			SwapViolationPenalty:    5000.0,
			ProgressReportInterval:  30,
		},
		Placement: PlacementSettings{
			Strategy:         PlacementCostMatrix,
			LookaheadDays:    14,
			MaxConcentration: 0.3,
		},
		Performance: PerformanceSettings{
			ProgressReportInterval: 30,
			UsePathfinding:         true,
			UseRelationCache:       true,
		},
	}
}
