package logging

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// RunEventLogger records the start and the failure of one optimizer run. It
// complements the observability sink (which reports
// progress/unassignment/completion to whoever is watching a run) by giving
// the jobs worker a single place to log both events and, optionally,
// persist the failed transition; the start is only logged.
type RunEventLogger struct {
	logger *Logger
	db     *gorm.DB
}

// NewRunEventLogger creates a run event logger. db may be nil, in which
// case events are only logged, never persisted.
func NewRunEventLogger(logger *Logger, db *gorm.DB) *RunEventLogger {
	return &RunEventLogger{logger: logger, db: db}
}

// LogRunStarted records that a run began executing against a given route
// count, before the assignment driver has produced any decisions yet.
func (rl *RunEventLogger) LogRunStarted(ctx context.Context, runID string, routeCount, vehicleCount int) {
	rl.logger.WithContext(ctx).Info("run started",
		"run_id", runID,
		"route_count", routeCount,
		"vehicle_count", vehicleCount,
		"started_at", time.Now(),
	)
}

// LogRunFailed records that a run aborted before producing a result, with
// the terminating error.
func (rl *RunEventLogger) LogRunFailed(ctx context.Context, runID string, err error) {
	rl.logger.WithContext(ctx).Error("run failed",
		"run_id", runID,
		"error", err,
	)

	if rl.db == nil {
		return
	}
	rl.db.WithContext(ctx).Exec(
		"UPDATE runs SET status = ?, error_message = ?, completed_at = ? WHERE id = ?",
		"failed", err.Error(), time.Now(), runID,
	)
}

