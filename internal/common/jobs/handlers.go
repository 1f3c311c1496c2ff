package jobs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fleetsim/optimizer/internal/common/logging"
	"github.com/fleetsim/optimizer/pkg/domain"
)

// RunService executes one full optimizer run end to end: load vehicles,
// locations, and routes from the backing data source, run placement and/or
// assignment, and persist the result. The concrete implementation lives in
// the HTTP/service layer that wires the engine packages, the data source,
// and configuration together; the job handler only adapts that surface to
// the queue's job shape so the same run can execute synchronously (direct
// handler call) or asynchronously (queued job).
type RunService interface {
	ExecuteRun(ctx context.Context, runID string, mode string) (domain.RunResult, error)
}

// RunOptimizationJob is the job type POST /algorithm/run schedules through
// the queue: running the vehicle placement/assignment optimizer in the
// background so POST /algorithm/run can return immediately and the caller
// polls GET /algorithm/run/{run_id} for the outcome.
type RunOptimizationJob struct {
	service RunService
	events  *logging.RunEventLogger
}

// NewRunOptimizationJob creates the run-optimization job handler.
func NewRunOptimizationJob(service RunService, events *logging.RunEventLogger) *RunOptimizationJob {
	return &RunOptimizationJob{service: service, events: events}
}

// GetJobType returns the job type.
func (j *RunOptimizationJob) GetJobType() string {
	return "run_optimization"
}

// Handle runs the optimizer for the run id and mode carried in the job's
// data payload. The job record's Result mirrors the run's summary so a
// caller polling the queue (rather than the run record itself) still sees
// a usable outcome.
func (j *RunOptimizationJob) Handle(ctx context.Context, job *Job) error {
	runID, ok := job.Data["run_id"].(string)
	if !ok || runID == "" {
		return fmt.Errorf("missing 'run_id' field in job data")
	}

	mode, ok := job.Data["mode"].(string)
	if !ok || mode == "" {
		mode = "full"
	}

	if j.events != nil {
		j.events.LogRunStarted(ctx, runID, 0, 0)
	}

	result, err := j.service.ExecuteRun(ctx, runID, mode)
	if err != nil {
		if j.events != nil {
			j.events.LogRunFailed(ctx, runID, err)
		}
		return fmt.Errorf("run %s failed: %w", runID, err)
	}

	job.Result = map[string]interface{}{
		"run_id":            runID,
		"assignments":       len(result.Assignments),
		"unassigned_routes": len(result.UnassignedRoutes),
		"total_cost":        result.TotalCost,
		"incomplete":        result.Incomplete,
	}

	return nil
}

// PurgeOldRunsJob removes run, assignment, and vehicle state snapshot rows
// older than a retention window. It runs on a recurring schedule rather
// than on demand, so unbounded run history doesn't accumulate in the
// database once a deployment has been processing routes for months.
type PurgeOldRunsJob struct {
	db *gorm.DB
}

// NewPurgeOldRunsJob creates the retention job handler. db may be nil in a
// CSV-only deployment, in which case the handler is a no-op.
func NewPurgeOldRunsJob(db *gorm.DB) *PurgeOldRunsJob {
	return &PurgeOldRunsJob{db: db}
}

// GetJobType returns the job type.
func (j *PurgeOldRunsJob) GetJobType() string {
	return "purge_old_runs"
}

// Handle deletes runs (and their dependent assignments and snapshots)
// completed or failed before the cutoff carried in the job data.
func (j *PurgeOldRunsJob) Handle(ctx context.Context, job *Job) error {
	if j.db == nil {
		return nil
	}

	olderThanDays, ok := job.Data["older_than_days"].(float64)
	if !ok || olderThanDays <= 0 {
		olderThanDays = 90
	}
	cutoff := time.Now().AddDate(0, 0, -int(olderThanDays))

	if err := j.db.WithContext(ctx).Exec(
		"DELETE FROM assignments WHERE run_id IN (SELECT id FROM runs WHERE completed_at IS NOT NULL AND completed_at < ?)",
		cutoff,
	).Error; err != nil {
		return fmt.Errorf("failed to purge old assignments: %w", err)
	}

	if err := j.db.WithContext(ctx).Exec(
		"DELETE FROM vehicle_state_snapshots WHERE run_id IN (SELECT id FROM runs WHERE completed_at IS NOT NULL AND completed_at < ?)",
		cutoff,
	).Error; err != nil {
		return fmt.Errorf("failed to purge old vehicle state snapshots: %w", err)
	}

	result := j.db.WithContext(ctx).Exec(
		"DELETE FROM runs WHERE completed_at IS NOT NULL AND completed_at < ?", cutoff,
	)
	if result.Error != nil {
		return fmt.Errorf("failed to purge old runs: %w", result.Error)
	}

	job.Result = map[string]interface{}{
		"runs_purged": result.RowsAffected,
		"cutoff":      cutoff,
	}
	return nil
}
