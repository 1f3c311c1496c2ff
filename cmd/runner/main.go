// Command runner is a one-shot CLI entry point for the optimizer: load a
// CSV data set, run placement and/or assignment, and write the results back
// to the same directory. It mirrors the HTTP surface's /algorithm/* modes
// without needing a server or a job queue running.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fleetsim/optimizer/internal/common/config"
	"github.com/fleetsim/optimizer/internal/common/logging"
	csvsource "github.com/fleetsim/optimizer/internal/datasource/csv"
	"github.com/fleetsim/optimizer/internal/engine/assignment"
	"github.com/fleetsim/optimizer/internal/engine/oracle"
	"github.com/fleetsim/optimizer/internal/engine/placement"
	"github.com/fleetsim/optimizer/internal/observability"
	apperrors "github.com/fleetsim/optimizer/pkg/errors"
	"github.com/fleetsim/optimizer/pkg/domain"
)

func main() {
	mode := flag.String("mode", "full", "one of: placement, assignment, full")
	dataDir := flag.String("data", "data", "directory holding the five CSV input files")
	configPath := flag.String("config", "", "optional config file overriding optimizer defaults")
	runID := flag.String("run-id", "", "run identifier; a new one is generated when empty")
	flag.Parse()

	if *mode != "placement" && *mode != "assignment" && *mode != "full" {
		fmt.Fprintf(os.Stderr, "unknown mode %q (expected placement, assignment, or full)\n", *mode)
		os.Exit(1)
	}

	if _, err := os.Stat(*dataDir); err != nil {
		log.Fatalf("data directory not found: %s", *dataDir)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	id := *runID
	if id == "" {
		id = uuid.New().String()
	}

	logger := logging.NewLogger(nil)
	sink := observability.NewLogSink(logger)

	ds := csvsource.New(*dataDir)
	ctx := context.Background()

	snapshot, err := ds.LoadAll(ctx)
	if err != nil {
		log.Fatalf("failed to load data set: %v", err)
	}
	log.Printf("loaded %d vehicles, %d locations, %d relations, %d routes",
		len(snapshot.Vehicles), len(snapshot.Locations), len(snapshot.Relations), len(snapshot.Routes))

	orc := oracle.New(snapshot.Relations, cfg.Optimizer.Performance.UsePathfinding)

	var placementResult *domain.PlacementResult
	if *mode == "placement" || *mode == "full" {
		log.Println("running placement...")
		pr := placement.Run(snapshot.Vehicles, snapshot.Routes, orc, cfg.Optimizer)
		placementResult = &pr
		log.Printf("placement complete: %d vehicles placed, concentration quality %.3f",
			len(pr.Placements), pr.Quality.MaxConcentration)
	}

	var result domain.RunResult
	if *mode == "assignment" || *mode == "full" {
		log.Println("running assignment...")
		vehicleStates, err := buildVehicleStates(snapshot.Vehicles, snapshot.Routes, placementResult)
		if err != nil {
			log.Fatalf("failed to seed vehicle states: %v", err)
		}
		result = assignment.Run(ctx, id, vehicleStates, snapshot.Routes, orc, cfg.Optimizer, sink)
		log.Printf("assignment complete: %d assigned, %d unassigned, total cost %.2f",
			len(result.Assignments), len(result.UnassignedRoutes), result.TotalCost)
	}

	if err := ds.Persist(ctx, id, result, placementResult); err != nil {
		log.Fatalf("failed to persist results: %v", err)
	}

	log.Printf("run %s complete, results written to %s", id, *dataDir)
}

// buildVehicleStates seeds one VehicleState per vehicle: a placement result
// just computed in this invocation takes priority, falling back to the
// vehicle's own CurrentLocationID for an assignment-only run.
func buildVehicleStates(vehicles []domain.Vehicle, routes []domain.Route, placementResult *domain.PlacementResult) (map[int]domain.VehicleState, error) {
	var availableFrom time.Time
	if len(routes) > 0 {
		availableFrom = routes[0].StartTime.Add(-24 * time.Hour)
	} else {
		availableFrom = time.Now()
	}

	states := make(map[int]domain.VehicleState, len(vehicles))
	for _, v := range vehicles {
		locationID := 0
		switch {
		case placementResult != nil:
			loc, ok := placementResult.Placements[v.ID]
			if !ok {
				return nil, apperrors.NewInputValidationError(fmt.Sprintf("vehicle %d has no placement", v.ID))
			}
			locationID = loc
		case v.CurrentLocationID != nil:
			locationID = *v.CurrentLocationID
		default:
			return nil, apperrors.NewInputValidationError(fmt.Sprintf("vehicle %d has no current location and no placement was run", v.ID))
		}
		states[v.ID] = domain.NewVehicleState(v, locationID, availableFrom)
	}
	return states, nil
}
