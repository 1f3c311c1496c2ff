// Package observability reports run progress and outcomes as a run
// executes, decoupling the assignment driver from any particular logging
// or transport backend.
package observability

import "github.com/fleetsim/optimizer/internal/common/logging"

// ProgressEvent reports how far a run has advanced through its route
// timeline.
type ProgressEvent struct {
	RunID            string
	RoutesDone       int
	RoutesTotal      int
	RoutesUnassigned int
	UsedRelaxedPass  int
}

// UnassignedRouteEvent reports a single route the driver could not place on
// any vehicle, even with the relaxed fallback pass.
type UnassignedRouteEvent struct {
	RunID   string
	RouteID int
	Reason  string
}

// RunCompletedEvent summarises a finished (or cancelled) run.
type RunCompletedEvent struct {
	RunID            string
	RoutesAssigned   int
	RoutesUnassigned int
	TotalCost        float64
	Incomplete       bool
}

// Sink receives run lifecycle events. Implementations must be safe to call
// from a single goroutine driving the run; the driver never calls a sink
// concurrently.
type Sink interface {
	Progress(ProgressEvent)
	UnassignedRoute(UnassignedRouteEvent)
	RunCompleted(RunCompletedEvent)
}

// LogSink reports every event through a structured logger. It is the
// default sink for both the HTTP server and the standalone runner.
type LogSink struct {
	logger *logging.Logger
}

// NewLogSink builds a LogSink over logger. A nil logger falls back to the
// process-wide default logger.
func NewLogSink(logger *logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Progress(e ProgressEvent) {
	s.logger.Info("assignment progress",
		"run_id", e.RunID,
		"routes_done", e.RoutesDone,
		"routes_total", e.RoutesTotal,
		"routes_unassigned", e.RoutesUnassigned,
		"used_relaxed_pass", e.UsedRelaxedPass,
	)
}

func (s *LogSink) UnassignedRoute(e UnassignedRouteEvent) {
	s.logger.Warn("route left unassigned",
		"run_id", e.RunID,
		"route_id", e.RouteID,
		"reason", e.Reason,
	)
}

func (s *LogSink) RunCompleted(e RunCompletedEvent) {
	s.logger.Info("run completed",
		"run_id", e.RunID,
		"routes_assigned", e.RoutesAssigned,
		"routes_unassigned", e.RoutesUnassigned,
		"total_cost", e.TotalCost,
		"incomplete", e.Incomplete,
	)
}

// NoopSink discards every event. Useful in tests that don't care about
// progress reporting.
type NoopSink struct{}

func (NoopSink) Progress(ProgressEvent)               {}
func (NoopSink) UnassignedRoute(UnassignedRouteEvent) {}
func (NoopSink) RunCompleted(RunCompletedEvent)       {}
