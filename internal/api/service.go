// Package api wires the engine, data source, cache, and background job
// packages together behind an HTTP surface: submit a placement, assignment,
// or full run, and poll its outcome.
package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fleetsim/optimizer/internal/common/cache"
	"github.com/fleetsim/optimizer/internal/common/logging"
	"github.com/fleetsim/optimizer/internal/datasource"
	"github.com/fleetsim/optimizer/internal/engine/assignment"
	"github.com/fleetsim/optimizer/internal/engine/oracle"
	"github.com/fleetsim/optimizer/internal/engine/placement"
	"github.com/fleetsim/optimizer/internal/observability"
	apperrors "github.com/fleetsim/optimizer/pkg/errors"
	"github.com/fleetsim/optimizer/pkg/domain"
)

// Mode selects which engine stages a run executes.
type Mode string

const (
	ModePlacement  Mode = "placement"
	ModeAssignment Mode = "assignment"
	ModeFull       Mode = "full"
)

// Status is the lifecycle state of one submitted run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// RunRecord is the envelope returned by every algorithm endpoint and by the
// run status poll: {run_id, status, runtime_seconds, counters}.
type RunRecord struct {
	RunID          string                 `json:"run_id"`
	Mode           Mode                   `json:"mode"`
	Status         Status                 `json:"status"`
	StartedAt      time.Time              `json:"started_at"`
	CompletedAt    *time.Time             `json:"completed_at,omitempty"`
	RuntimeSeconds float64                `json:"runtime_seconds"`
	Counters       map[string]interface{} `json:"counters,omitempty"`
	Message        string                 `json:"message,omitempty"`
}

// Service runs the optimizer end to end: load a snapshot, run the
// requested engine stages, persist the result, and track the run's status
// for polling. It implements jobs.RunService so the same logic executes
// whether invoked synchronously (placement/assignment) or through the
// background job queue (a full run submitted via POST /algorithm/run).
type Service struct {
	dataSource datasource.DataSource
	cfg        domain.Config
	cache      *cache.RedisCache
	sink       observability.Sink
	logger     *logging.Logger

	mu   sync.RWMutex
	runs map[string]*RunRecord
}

// NewService builds the orchestration service. cache may be nil, in which
// case run results are tracked only in memory for the life of the process.
func NewService(ds datasource.DataSource, cfg domain.Config, rc *cache.RedisCache, sink observability.Sink, logger *logging.Logger) *Service {
	if sink == nil {
		sink = observability.NoopSink{}
	}
	return &Service{
		dataSource: ds,
		cfg:        cfg,
		cache:      rc,
		sink:       sink,
		logger:     logger,
		runs:       make(map[string]*RunRecord),
	}
}

// SetDataSource swaps the backing data source, used by the CSV upload
// endpoint to point subsequent runs at a freshly uploaded tabular set.
func (s *Service) SetDataSource(ds datasource.DataSource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataSource = ds
}

// Submit registers a new run in the running state and returns its id,
// without executing it. Callers run the work either inline (RunSync) or by
// enqueuing it onto the job queue (ExecuteRun is the entry point the queue
// calls back into).
func (s *Service) Submit(mode Mode) *RunRecord {
	rec := &RunRecord{
		RunID:     uuid.New().String(),
		Mode:      mode,
		Status:    StatusRunning,
		StartedAt: time.Now(),
	}
	s.mu.Lock()
	s.runs[rec.RunID] = rec
	s.mu.Unlock()
	return rec
}

// GetRun returns the tracked status of a submitted run.
func (s *Service) GetRun(runID string) (*RunRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	cp := *rec
	return &cp, true
}

// Overrides carries the per-request tuning knobs a caller may supply on top
// of the service's configured defaults, validated by the handler before
// reaching here.
type Overrides struct {
	AssignmentStrategy *domain.AssignmentStrategy
	UsePathfinding     *bool
}

func (o *Overrides) apply(cfg domain.Config) domain.Config {
	if o == nil {
		return cfg
	}
	if o.AssignmentStrategy != nil {
		cfg.Assignment.Strategy = *o.AssignmentStrategy
	}
	if o.UsePathfinding != nil {
		cfg.Performance.UsePathfinding = *o.UsePathfinding
	}
	return cfg
}

// RunSync executes mode against runID synchronously and returns the final
// record, used by the placement and assignment endpoints which are cheap
// enough not to need the background worker pool. overrides may be nil.
func (s *Service) RunSync(ctx context.Context, runID string, mode Mode, overrides *Overrides) (*RunRecord, error) {
	result, err := s.execute(ctx, runID, mode, overrides)
	return s.finish(runID, mode, result, err), err
}

// ExecuteRun implements jobs.RunService: the job handler calls this from
// the worker pool for a backgrounded "full" run. The run must already have
// been registered via Submit (POST /algorithm/run does this before
// enqueuing) so GetRun has something to report while the job is in flight.
// Per-request overrides aren't available here: the job queue only carries a
// run id and mode, so a backgrounded run always executes with the service's
// configured defaults.
func (s *Service) ExecuteRun(ctx context.Context, runID string, mode string) (domain.RunResult, error) {
	result, err := s.execute(ctx, runID, Mode(mode), nil)
	s.finish(runID, Mode(mode), result, err)
	return result, err
}

func (s *Service) finish(runID string, mode Mode, result domain.RunResult, err error) *RunRecord {
	now := time.Now()

	s.mu.Lock()
	rec, ok := s.runs[runID]
	if !ok {
		rec = &RunRecord{RunID: runID, Mode: mode, StartedAt: now}
		s.runs[runID] = rec
	}
	rec.CompletedAt = &now
	rec.RuntimeSeconds = now.Sub(rec.StartedAt).Seconds()
	if err != nil {
		rec.Status = StatusFailed
		rec.Message = err.Error()
	} else {
		rec.Status = StatusCompleted
		rec.Counters = map[string]interface{}{
			"assignments":       len(result.Assignments),
			"unassigned_routes": len(result.UnassignedRoutes),
			"total_cost":        result.TotalCost,
			"total_relocation":  result.TotalRelocation,
			"total_overage":     result.TotalOverage,
			"incomplete":        result.Incomplete,
		}
	}
	cp := *rec
	s.mu.Unlock()

	if s.cache != nil {
		_ = s.cache.Set(context.Background(), s.cache.RunResultKey(runID), cp, cache.LongExpiration)
	}

	return &cp
}

// execute is the shared core of RunSync and ExecuteRun: load the snapshot,
// run the requested stages, and persist what they produced.
func (s *Service) execute(ctx context.Context, runID string, mode Mode, overrides *Overrides) (domain.RunResult, error) {
	s.mu.RLock()
	ds := s.dataSource
	s.mu.RUnlock()

	cfg := overrides.apply(s.cfg)

	snapshot, err := ds.LoadAll(ctx)
	if err != nil {
		return domain.RunResult{}, err
	}

	orc := oracle.New(snapshot.Relations, cfg.Performance.UsePathfinding)

	var placementResult *domain.PlacementResult
	if mode == ModePlacement || mode == ModeFull {
		pr := placement.Run(snapshot.Vehicles, snapshot.Routes, orc, cfg)
		placementResult = &pr
	}

	var result domain.RunResult
	if mode == ModeAssignment || mode == ModeFull {
		vehicleStates, err := s.buildVehicleStates(snapshot.Vehicles, snapshot.Routes, placementResult)
		if err != nil {
			return domain.RunResult{}, err
		}
		result = assignment.Run(ctx, runID, vehicleStates, snapshot.Routes, orc, cfg, s.sink)
	}

	if err := ds.Persist(ctx, runID, result, placementResult); err != nil {
		return result, err
	}

	return result, nil
}

// buildVehicleStates seeds one VehicleState per vehicle: placed location
// comes from a placement result just computed in this run, falling back to
// the vehicle's already-persisted CurrentLocationID for an assignment-only
// run against a previously placed fleet.
func (s *Service) buildVehicleStates(vehicles []domain.Vehicle, routes []domain.Route, placementResult *domain.PlacementResult) (map[int]domain.VehicleState, error) {
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
