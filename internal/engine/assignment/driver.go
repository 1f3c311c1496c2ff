// Package assignment drives the route-by-route vehicle assignment timeline:
// for each route in chronological order, it picks the vehicle that can
// serve it for the lowest effective cost, applies the resulting state
// transition, and records the outcome.
package assignment

import (
	"context"
	"sort"
	"time"

	"github.com/fleetsim/optimizer/internal/engine/chain"
	"github.com/fleetsim/optimizer/internal/engine/costs"
	"github.com/fleetsim/optimizer/internal/engine/feasibility"
	"github.com/fleetsim/optimizer/internal/engine/state"
	"github.com/fleetsim/optimizer/internal/observability"
	"github.com/fleetsim/optimizer/pkg/domain"
)

// preRoutePositioningGrace is how far before the first route's start time a
// vehicle's initial availability is set, giving the driver room to relocate
// it into position before any route begins.
const preRoutePositioningGrace = 24 * time.Hour

// Oracle is the distance/relation lookup the driver and its subordinate
// packages depend on.
type Oracle interface {
	Lookup(from, to int) (domain.Relation, bool)
}

// candidate is one feasible (vehicle, route) pairing under consideration for
// a single route.
type candidate struct {
	vehicleID     int
	immediateCost float64
	breakdown     costs.Breakdown
	reloc         domain.Relation
	requiresReloc bool
	usedRelaxed   bool
	needsService  bool
	chainScore    float64
	effectiveCost float64
}

// Run walks routes (already sorted chronologically) assigning each to the
// cheapest feasible vehicle in vehicleStates, mutating a private copy of the
// state map as it goes. vehicleStates is not mutated; the final per-vehicle
// states are returned in RunResult.FinalStates.
func Run(ctx context.Context, runID string, vehicleStates map[int]domain.VehicleState, routes []domain.Route, oracle Oracle, cfg domain.Config, sink observability.Sink) domain.RunResult {
	if sink == nil {
		sink = observability.NoopSink{}
	}

	live := make(map[int]domain.VehicleState, len(vehicleStates))
	for id, s := range vehicleStates {
		live[id] = s
	}

	if len(routes) > 0 {
		start := routes[0].StartTime.Add(-preRoutePositioningGrace)
		for id, s := range live {
			s.AvailableFrom = start
			live[id] = s
		}
	}

	assignRoutes := routes
	if cfg.Assignment.AssignmentLookaheadDays > 0 && len(routes) > 0 {
		deadline := routes[0].StartTime.AddDate(0, 0, cfg.Assignment.AssignmentLookaheadDays)
		cut := len(routes)
		for i, r := range routes {
			if r.StartTime.After(deadline) {
				cut = i
				break
			}
		}
		assignRoutes = routes[:cut]
	}

	routeIndex := make(map[int]int, len(routes))
	for i, r := range routes {
		routeIndex[r.ID] = i
	}

	result := domain.RunResult{FinalStates: live}

	vehicleIDs := make([]int, 0, len(live))
	for id := range live {
		vehicleIDs = append(vehicleIDs, id)
	}
	sort.Ints(vehicleIDs)

	usedRelaxedCount := 0

	for i, route := range assignRoutes {
		select {
		case <-ctx.Done():
			result.Incomplete = true
			sink.RunCompleted(observability.RunCompletedEvent{
				RunID:            runID,
				RoutesAssigned:   len(result.Assignments),
				RoutesUnassigned: len(result.UnassignedRoutes),
				TotalCost:        result.TotalCost,
				Incomplete:       true,
			})
			return result
		default:
		}

		avgAssigned := averageRoutesAssigned(live, vehicleIDs)

		cands := collectCandidates(live, vehicleIDs, route, oracle, cfg, true, avgAssigned)
		usedRelaxed := false
		if len(cands) == 0 {
			cands = collectCandidates(live, vehicleIDs, route, oracle, cfg, false, avgAssigned)
			usedRelaxed = true
		}

		if len(cands) == 0 {
			result.UnassignedRoutes = append(result.UnassignedRoutes, route.ID)
			sink.UnassignedRoute(observability.UnassignedRouteEvent{
				RunID: runID, RouteID: route.ID, Reason: "no feasible vehicle",
			})
			continue
		}

		future := futureRoutes(routes, routeIndex, route.ID, cfg)
		chosen := pick(cands, live, route, future, oracle, cfg)
		if chosen.usedRelaxed {
			usedRelaxedCount++
		}

		before := live[chosen.vehicleID]
		after := state.Apply(before, route, oracle, cfg)
		live[chosen.vehicleID] = after

		result.Assignments = append(result.Assignments, domain.Assignment{
			RouteID:              route.ID,
			VehicleID:            chosen.vehicleID,
			AssignedAt:           route.StartTime,
			RouteStartLocationID: route.StartLocationID(),
			RouteEndLocationID:   route.EndLocationID(),
			RequiresRelocation:   chosen.requiresReloc,
			RequiresService:      chosen.needsService,
			RelocationFromID:     chosen.reloc.FromID,
			RelocationToID:       chosen.reloc.ToID,
			RelocationDistKM:     chosen.reloc.DistanceKM,
			RelocationMinutes:    chosen.reloc.TravelMinutes,
			OdometerBeforeKM:     before.OdometerKM,
			OdometerAfterKM:      after.OdometerKM,
			AnnualKMBefore:       before.KMThisLeaseYear,
			AnnualKMAfter:        after.KMThisLeaseYear,
			OverageKM:            overageKM(after.KMThisLeaseYear, after.AnnualLimitKM),
			ImmediateCost:        chosen.immediateCost,
			ChainScore:           chosen.chainScore,
			EffectiveCost:        chosen.effectiveCost,
			UsedRelaxedPass:      chosen.usedRelaxed,
		})
		result.TotalCost += chosen.immediateCost
		result.TotalRelocation += chosen.breakdown.Relocation
		result.TotalOverage += chosen.breakdown.Overage

		if cfg.Assignment.ProgressReportInterval > 0 && (i+1)%cfg.Assignment.ProgressReportInterval == 0 {
			sink.Progress(observability.ProgressEvent{
				RunID:            runID,
				RoutesDone:       i + 1,
				RoutesTotal:      len(assignRoutes),
				RoutesUnassigned: len(result.UnassignedRoutes),
				UsedRelaxedPass:  usedRelaxedCount,
			})
		}
	}

	sink.RunCompleted(observability.RunCompletedEvent{
		RunID:            runID,
		RoutesAssigned:   len(result.Assignments),
		RoutesUnassigned: len(result.UnassignedRoutes),
		TotalCost:        result.TotalCost,
		Incomplete:       false,
	})
	return result
}

func overageKM(km, limit int) int {
	if km <= limit {
		return 0
	}
	return km - limit
}

// collectCandidates gathers every vehicle that passes the feasibility gate
// for route, with cost including the workload-balancing penalty (and, on
// the relaxed pass, a fixed swap-violation penalty in place of the gate).
func collectCandidates(live map[int]domain.VehicleState, vehicleIDs []int, route domain.Route, oracle Oracle, cfg domain.Config, enforceSwapPolicy bool, avgAssigned float64) []candidate {
	var out []candidate
	for _, id := range vehicleIDs {
		s := live[id]
		outcome := feasibility.Check(s, route, oracle, cfg, enforceSwapPolicy)
		if !outcome.OK {
			continue
		}

		reloc, requiresReloc := relationFor(s, route, oracle)
		needsService := feasibility.NeedsServiceSoon(s, route, cfg)
		projectedYearlyKM := s.KMThisLeaseYear + int(route.DistanceKM) + int(reloc.DistanceKM)
		breakdown := costs.Assignment(reloc, requiresReloc, projectedYearlyKM, s.AnnualLimitKM, needsService, cfg)

		total := breakdown.Total
		total += workloadPenalty(s.RoutesAssigned, avgAssigned)
		if !enforceSwapPolicy && requiresReloc {
			total += cfg.Assignment.SwapViolationPenalty
		}

		out = append(out, candidate{
			vehicleID:     id,
			immediateCost: total,
			effectiveCost: total,
			breakdown:     breakdown,
			reloc:         reloc,
			requiresReloc: requiresReloc,
			usedRelaxed:   !enforceSwapPolicy,
			needsService:  needsService,
		})
	}
	return out
}

func relationFor(s domain.VehicleState, route domain.Route, oracle Oracle) (domain.Relation, bool) {
	if s.CurrentLocationID == route.StartLocationID() {
		return domain.Relation{}, false
	}
	r, ok := oracle.Lookup(s.CurrentLocationID, route.StartLocationID())
	if !ok {
		return domain.Relation{}, true
	}
	return r, true
}

// workloadPenalty discourages piling routes onto an already-busy vehicle:
// once a vehicle's routes_assigned exceeds 1.2x the fleet average, it picks
// up an escalating penalty capped at 500.
func workloadPenalty(routesAssigned int, avgAssigned float64) float64 {
	threshold := 1.2 * avgAssigned
	if avgAssigned <= 0 || float64(routesAssigned) <= threshold {
		return 0
	}
	excessRatio := (float64(routesAssigned) - threshold) / threshold
	penalty := 50 + excessRatio*200
	if penalty > 500 {
		return 500
	}
	return penalty
}

func averageRoutesAssigned(live map[int]domain.VehicleState, vehicleIDs []int) float64 {
	if len(vehicleIDs) == 0 {
		return 0
	}
	total := 0
	for _, id := range vehicleIDs {
		total += live[id].RoutesAssigned
	}
	return float64(total) / float64(len(vehicleIDs))
}

// pick applies the performance shortcut: take the cheapest candidate
// outright when it clearly dominates, otherwise break the near-tie among
// the cheapest few using the chain scorer's look-ahead reward.
func pick(cands []candidate, live map[int]domain.VehicleState, route domain.Route, future []domain.Route, oracle Oracle, cfg domain.Config) candidate {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].immediateCost != cands[j].immediateCost {
			return cands[i].immediateCost < cands[j].immediateCost
		}
		return cands[i].vehicleID < cands[j].vehicleID
	})

	if len(cands) == 1 || !cfg.Assignment.UseChainOptimization {
		return cands[0]
	}

	cheapest, second := cands[0], cands[1]
	absGap := second.immediateCost - cheapest.immediateCost
	relGap := 0.0
	if cheapest.immediateCost != 0 {
		relGap = absGap / cheapest.immediateCost
	}
	if absGap > 2000 || relGap > 0.5 {
		return cheapest
	}

	threshold := cheapest.immediateCost * 1.2
	top := make([]candidate, 0, 5)
	for _, c := range cands {
		if c.immediateCost > threshold {
			break
		}
		top = append(top, c)
		if len(top) == 5 {
			break
		}
	}

	for i, c := range top {
		top[i].chainScore, top[i].effectiveCost = chainAdjusted(c, live, route, future, oracle, cfg)
	}

	best := top[0]
	for _, c := range top[1:] {
		if c.effectiveCost < best.effectiveCost || (c.effectiveCost == best.effectiveCost && c.vehicleID < best.vehicleID) {
			best = c
		}
	}
	return best
}

// chainAdjusted scores candidate's look-ahead reward and nets it against the
// immediate cost, giving the real chain_score/effective_cost pair the picked
// candidate carries into its recorded Assignment.
func chainAdjusted(c candidate, live map[int]domain.VehicleState, route domain.Route, future []domain.Route, oracle Oracle, cfg domain.Config) (score, effective float64) {
	overlay := chain.FromState(state.Apply(live[c.vehicleID], route, oracle, cfg))
	score = chain.Score(overlay, future, oracle, cfg)
	effective = c.immediateCost - cfg.Assignment.ChainWeight*score
	return score, effective
}

// futureRoutes returns every route following routeID in the full timeline,
// using the precomputed index for O(1) lookup of "what comes next" rather
// than a linear scan per candidate; the chain scorer applies the
// look_ahead_days window.
func futureRoutes(all []domain.Route, index map[int]int, routeID int, cfg domain.Config) []domain.Route {
	i, ok := index[routeID]
	if !ok || i+1 >= len(all) {
		return nil
	}
	return all[i+1:]
}
