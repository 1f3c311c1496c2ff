package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/internal/common/testutil"
	"github.com/fleetsim/optimizer/pkg/models"
)

func TestAssignmentRepository_ListByRun(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	loc1 := testutil.NewTestLocation(1)
	loc2 := testutil.NewTestLocation(2)
	require.NoError(t, db.Create(loc1).Error)
	require.NoError(t, db.Create(loc2).Error)

	vehicle := testutil.NewTestVehicle(1, testutil.PtrInt(1))
	require.NoError(t, db.Create(vehicle).Error)

	route := testutil.NewTestRoute(1, 1, 2, time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC))
	require.NoError(t, db.Create(route).Error)

	runA := testutil.NewTestRun()
	runB := testutil.NewTestRun()
	require.NoError(t, db.Create(runA).Error)
	require.NoError(t, db.Create(runB).Error)

	assignmentA := &models.Assignment{RunID: runA.ID, RouteID: route.ID, VehicleID: vehicle.ID}
	assignmentB := &models.Assignment{RunID: runB.ID, RouteID: route.ID, VehicleID: vehicle.ID}
	require.NoError(t, db.Create(assignmentA).Error)
	require.NoError(t, db.Create(assignmentB).Error)

	repo := NewAssignmentRepository(db)
	result, err := repo.ListByRun(context.Background(), runA.ID)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, assignmentA.ID, result[0].ID)
}
