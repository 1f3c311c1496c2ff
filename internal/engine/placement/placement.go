// Package placement computes where to station each vehicle before a run's
// route timeline begins, so the assignment driver starts from a layout that
// already matches where demand will appear.
package placement

import (
	"math"
	"sort"

	"github.com/fleetsim/optimizer/pkg/domain"
)

// Relocator resolves the relation between two locations, used only for the
// connectivity probe in the cost-matrix strategy.
type Relocator interface {
	Lookup(from, to int) (domain.Relation, bool)
}

// flow is the per-location demand signal the placement strategies share.
type flow struct {
	starts    int
	ends      int
	netDemand int
	activity  int
}

// analyzeDemand restricts routes to the configured look-ahead window
// (measured from the first route's start time) and tallies starts, ends,
// net demand, and total activity per location.
func analyzeDemand(routes []domain.Route, lookaheadDays int) map[int]*flow {
	demand := make(map[int]*flow)
	if len(routes) == 0 {
		return demand
	}

	deadline := routes[0].StartTime.AddDate(0, 0, lookaheadDays)
	get := func(loc int) *flow {
		f, ok := demand[loc]
		if !ok {
			f = &flow{}
			demand[loc] = f
		}
		return f
	}

	for _, r := range routes {
		if r.StartTime.After(deadline) {
			break
		}
		if from := r.StartLocationID(); from >= 0 {
			get(from).starts++
		}
		if to := r.EndLocationID(); to >= 0 {
			get(to).ends++
		}
	}
	for _, f := range demand {
		f.netDemand = f.starts - f.ends
		f.activity = f.starts + f.ends
	}
	return demand
}

// Run computes a vehicle->location placement for vehicles using strategy,
// returning the mapping alongside a quality report.
func Run(vehicles []domain.Vehicle, routes []domain.Route, oracle Relocator, cfg domain.Config) domain.PlacementResult {
	demand := analyzeDemand(routes, cfg.Placement.LookaheadDays)

	var placements map[int]int
	switch cfg.Placement.Strategy {
	case domain.PlacementProportional:
		placements = proportional(vehicles, demand, cfg)
	case domain.PlacementCoverageFirst:
		placements = coverageFirst(vehicles, demand, cfg)
	default:
		placements = costMatrixGreedy(vehicles, demand, oracle, cfg)
	}

	return domain.PlacementResult{
		Placements: placements,
		Quality:    evaluateQuality(placements, demand),
	}
}

func fallbackLocation(vehicles []domain.Vehicle) int {
	for _, v := range vehicles {
		if v.CurrentLocationID != nil {
			return *v.CurrentLocationID
		}
	}
	return 1
}

func sortedLocations(demand map[int]*flow) []int {
	locs := make([]int, 0, len(demand))
	for loc := range demand {
		locs = append(locs, loc)
	}
	sort.Ints(locs)
	return locs
}

// costMatrixGreedy scores every (vehicle, location) pair and assigns each
// vehicle to its cheapest still-available location, applying a soft
// concentration penalty as a location fills up.
func costMatrixGreedy(vehicles []domain.Vehicle, demand map[int]*flow, oracle Relocator, cfg domain.Config) map[int]int {
	placements := make(map[int]int, len(vehicles))
	if len(demand) == 0 {
		loc := fallbackLocation(vehicles)
		for _, v := range vehicles {
			placements[v.ID] = loc
		}
		return placements
	}

	locations := sortedLocations(demand)
	maxPerLocation := maxVehiclesPerLocation(cfg, len(vehicles))
	counts := make(map[int]int, len(locations))

	connectivity := make(map[int]float64, len(locations))
	if oracle != nil {
		for _, loc := range locations {
			connectivity[loc] = connectivityHitRatio(loc, locations, oracle)
		}
	}

	baseCost := func(loc int) float64 {
		f := demand[loc]
		netBonus := 0.0
		if f.netDemand > 0 {
			netBonus = -math.Min(200, float64(f.netDemand)*10)
		} else if f.netDemand < 0 {
			netBonus = math.Min(100, float64(-f.netDemand)*5)
		}
		connBonus := 0.0
		if connectivity[loc] >= 0.5 {
			connBonus = -300 * connectivity[loc]
		}
		return 1000/math.Log(float64(f.activity)+2) + netBonus + connBonus
	}

	for _, v := range vehicles {
		bestLoc, bestCost := locations[0], math.Inf(1)
		for _, loc := range locations {
			cost := baseCost(loc) + concentrationPenalty(counts[loc], maxPerLocation)
			if cost < bestCost {
				bestCost, bestLoc = cost, loc
			}
		}
		placements[v.ID] = bestLoc
		counts[bestLoc]++
	}
	return placements
}

// concentrationPenalty grows quadratically once a location passes 70% of
// its per-location cap, and becomes a strong repellent past the cap itself.
func concentrationPenalty(countAtLocation, maxPerLocation int) float64 {
	if maxPerLocation <= 0 {
		return 0
	}
	soft := 0.7 * float64(maxPerLocation)
	if float64(countAtLocation) >= float64(maxPerLocation) {
		return 100000
	}
	if float64(countAtLocation) <= soft {
		return 0
	}
	over := float64(countAtLocation) - soft
	return over * over * 50
}

// connectivityHitRatio probes up to 20 other locations and reports the
// fraction directly reachable from loc.
func connectivityHitRatio(loc int, locations []int, oracle Relocator) float64 {
	others := make([]int, 0, len(locations)-1)
	for _, l := range locations {
		if l != loc {
			others = append(others, l)
		}
	}
	if len(others) == 0 {
		return 0
	}
	if len(others) > 20 {
		others = others[:20]
	}
	hits := 0
	for _, other := range others {
		if r, ok := oracle.Lookup(loc, other); ok && !r.Synthetic {
			hits++
		}
	}
	return float64(hits) / float64(len(others))
}

// proportional allocates vehicles to locations in proportion to activity,
// capped per location, with any remainder piled onto the top-activity
// location.
func proportional(vehicles []domain.Vehicle, demand map[int]*flow, cfg domain.Config) map[int]int {
	placements := make(map[int]int, len(vehicles))
	if len(demand) == 0 {
		loc := fallbackLocation(vehicles)
		for _, v := range vehicles {
			placements[v.ID] = loc
		}
		return placements
	}

	locations := sortedLocations(demand)
	sort.Slice(locations, func(i, j int) bool {
		if demand[locations[i]].activity != demand[locations[j]].activity {
			return demand[locations[i]].activity > demand[locations[j]].activity
		}
		return locations[i] < locations[j]
	})

	totalActivity := 0
	for _, loc := range locations {
		totalActivity += demand[loc].activity
	}

	maxPerLocation := maxVehiclesPerLocation(cfg, len(vehicles))
	idx := 0
	for _, loc := range locations {
		if idx >= len(vehicles) {
			break
		}
		if totalActivity == 0 {
			break
		}
		proportion := float64(demand[loc].activity) / float64(totalActivity)
		need := int(float64(len(vehicles)) * proportion)
		if need < 1 {
			need = 1
		}
		if need > maxPerLocation {
			need = maxPerLocation
		}
		if need > len(vehicles)-idx {
			need = len(vehicles) - idx
		}
		for i := 0; i < need; i++ {
			placements[vehicles[idx].ID] = loc
			idx++
		}
	}

	if idx < len(vehicles) {
		top := locations[0]
		for ; idx < len(vehicles); idx++ {
			placements[vehicles[idx].ID] = top
		}
	}
	return placements
}

// coverageFirst seeds one vehicle per demanded location in demand order,
// then distributes any remainder proportionally.
func coverageFirst(vehicles []domain.Vehicle, demand map[int]*flow, cfg domain.Config) map[int]int {
	placements := make(map[int]int, len(vehicles))
	if len(demand) == 0 {
		loc := fallbackLocation(vehicles)
		for _, v := range vehicles {
			placements[v.ID] = loc
		}
		return placements
	}

	locations := sortedLocations(demand)
	sort.Slice(locations, func(i, j int) bool {
		if demand[locations[i]].netDemand != demand[locations[j]].netDemand {
			return demand[locations[i]].netDemand > demand[locations[j]].netDemand
		}
		return locations[i] < locations[j]
	})

	idx := 0
	seedCount := len(locations)
	if seedCount > len(vehicles) {
		seedCount = len(vehicles)
	}
	for i := 0; i < seedCount; i++ {
		placements[vehicles[idx].ID] = locations[i]
		idx++
	}

	if idx < len(vehicles) {
		remaining := make([]domain.Vehicle, len(vehicles)-idx)
		copy(remaining, vehicles[idx:])
		rest := proportional(remaining, demand, cfg)
		for id, loc := range rest {
			placements[id] = loc
		}
	}
	return placements
}

func maxVehiclesPerLocation(cfg domain.Config, fleetSize int) int {
	if cfg.Placement.MaxVehiclesPerLocation > 0 {
		return cfg.Placement.MaxVehiclesPerLocation
	}
	n := int(cfg.Placement.MaxConcentration * float64(fleetSize))
	if n < 1 {
		n = 1
	}
	return n
}

func evaluateQuality(placements map[int]int, demand map[int]*flow) domain.PlacementQuality {
	counts := make(map[int]int)
	for _, loc := range placements {
		counts[loc]++
	}

	totalDemand := 0
	for _, f := range demand {
		if f.netDemand > 0 {
			totalDemand += f.netDemand
		}
	}

	covered := 0
	for loc, count := range counts {
		if f, ok := demand[loc]; ok && f.netDemand > 0 {
			covered += minInt(f.netDemand, count)
		}
	}

	coverage := 0.0
	if totalDemand > 0 {
		coverage = float64(covered) / float64(totalDemand)
	}

	maxAt := 0
	for _, c := range counts {
		if c > maxAt {
			maxAt = c
		}
	}
	concentration := 0.0
	if len(placements) > 0 {
		concentration = float64(maxAt) / float64(len(placements))
	}

	estimatedCost := 0.0
	for loc, f := range demand {
		if f.netDemand <= 0 {
			continue
		}
		deficit := f.netDemand - counts[loc]
		if deficit > 0 {
			estimatedCost += float64(deficit) * 2500
		}
	}

	return domain.PlacementQuality{
		TotalVehiclesPlaced:     len(placements),
		LocationsUsed:           len(counts),
		MaxConcentration:        concentration,
		DemandCoverage:          coverage,
		EstimatedRelocationCost: estimatedCost,
		DistributionByLocation:  counts,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
