package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/internal/datasource"
	"github.com/fleetsim/optimizer/internal/observability"
	"github.com/fleetsim/optimizer/pkg/domain"
)

type fakeDataSource struct {
	snapshot    *datasource.Snapshot
	loadErr     error
	persisted   bool
	persistedID string
}

func (f *fakeDataSource) LoadAll(ctx context.Context) (*datasource.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.snapshot, nil
}

func (f *fakeDataSource) Persist(ctx context.Context, runID string, result domain.RunResult, placement *domain.PlacementResult) error {
	f.persisted = true
	f.persistedID = runID
	return nil
}

func newFleet(t *testing.T) *fakeDataSource {
	t.Helper()
	loc1 := domain.Location{ID: 1, Name: "hub"}
	loc2 := domain.Location{ID: 2, Name: "depot"}
	rel := domain.Relation{ID: 1, FromID: 1, ToID: 2, DistanceKM: 50, TravelMinutes: 60}
	vehicle := domain.Vehicle{ID: 1, Registration: "AB1234", LeasingLimitKM: 150000, ServiceIntervalKM: 20000}
	start := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	route := domain.Route{
		ID:         1,
		StartTime:  start,
		EndTime:    end,
		DistanceKM: 100,
		Segments: []domain.Segment{
			{StartLocID: 1, EndLocID: 2, StartTime: start, EndTime: end, DistanceKM: 100},
		},
	}
	return &fakeDataSource{
		snapshot: &datasource.Snapshot{
			Vehicles:  []domain.Vehicle{vehicle},
			Locations: []domain.Location{loc1, loc2},
			Relations: []domain.Relation{rel},
			Routes:    []domain.Route{route},
		},
	}
}

func TestService_RunSync_Placement(t *testing.T) {
	ds := newFleet(t)
	svc := NewService(ds, domain.DefaultConfig(), nil, observability.NoopSink{}, nil)

	rec := svc.Submit(ModePlacement)
	rec, err := svc.RunSync(context.Background(), rec.RunID, ModePlacement, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.True(t, ds.persisted)
}

func TestService_RunSync_Full(t *testing.T) {
	ds := newFleet(t)
	svc := NewService(ds, domain.DefaultConfig(), nil, observability.NoopSink{}, nil)

	rec := svc.Submit(ModeFull)
	rec, err := svc.RunSync(context.Background(), rec.RunID, ModeFull, nil)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 1, rec.Counters["assignments"])
	assert.Equal(t, ds.persistedID, rec.RunID)
}

func TestService_RunSync_AssignmentWithoutPlacementOrLocationFails(t *testing.T) {
	ds := newFleet(t)
	svc := NewService(ds, domain.DefaultConfig(), nil, observability.NoopSink{}, nil)

	rec := svc.Submit(ModeAssignment)
	rec, err := svc.RunSync(context.Background(), rec.RunID, ModeAssignment, nil)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
}

func TestService_RunSync_LoadFailureMarksRunFailed(t *testing.T) {
	ds := &fakeDataSource{loadErr: errLoadFailure}
	svc := NewService(ds, domain.DefaultConfig(), nil, observability.NoopSink{}, nil)

	rec := svc.Submit(ModePlacement)
	rec, err := svc.RunSync(context.Background(), rec.RunID, ModePlacement, nil)

	require.Error(t, err)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Equal(t, err.Error(), rec.Message)
}

func TestService_GetRun_UnknownReturnsFalse(t *testing.T) {
	svc := NewService(newFleet(t), domain.DefaultConfig(), nil, observability.NoopSink{}, nil)
	_, ok := svc.GetRun("does-not-exist")
	assert.False(t, ok)
}

func TestOverrides_ApplyNilIsNoop(t *testing.T) {
	cfg := domain.DefaultConfig()
	var o *Overrides
	assert.Equal(t, cfg, o.apply(cfg))
}

func TestOverrides_ApplyOverridesStrategyAndPathfinding(t *testing.T) {
	cfg := domain.DefaultConfig()
	strategy := domain.StrategyGreedyWithLookahead
	usePathfinding := true
	o := &Overrides{AssignmentStrategy: &strategy, UsePathfinding: &usePathfinding}

	got := o.apply(cfg)

	assert.Equal(t, domain.StrategyGreedyWithLookahead, got.Assignment.Strategy)
	assert.True(t, got.Performance.UsePathfinding)
}

var errLoadFailure = errors.New("data source unavailable")
