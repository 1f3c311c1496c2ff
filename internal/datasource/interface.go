// Package datasource defines the capability both backing stores (tabular
// files and a relational database) implement: load everything a run needs,
// and persist what a run produced.
package datasource

import (
	"context"

	"github.com/fleetsim/optimizer/pkg/domain"
)

// Snapshot is everything a run needs loaded before it can start.
type Snapshot struct {
	Vehicles  []domain.Vehicle
	Locations []domain.Location
	Relations []domain.Relation
	Routes    []domain.Route
}

// DataSource is the two-method capability every backing store implements:
// load everything up front, persist the result of a completed run.
type DataSource interface {
	LoadAll(ctx context.Context) (*Snapshot, error)
	Persist(ctx context.Context, runID string, result domain.RunResult, placement *domain.PlacementResult) error
}
