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

func TestRouteRepository_ListPendingExcludesAssignedAndFutureCutoff(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	loc1 := testutil.NewTestLocation(1)
	loc2 := testutil.NewTestLocation(2)
	require.NoError(t, db.Create(loc1).Error)
	require.NoError(t, db.Create(loc2).Error)

	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	pendingEarly := testutil.NewTestRoute(1, 1, 2, now)
	pendingLate := testutil.NewTestRoute(2, 1, 2, now.Add(48*time.Hour))
	assigned := testutil.NewTestRoute(3, 1, 2, now)
	assigned.Status = models.RouteStatusAssigned

	require.NoError(t, db.Create(pendingEarly).Error)
	require.NoError(t, db.Create(pendingLate).Error)
	require.NoError(t, db.Create(assigned).Error)

	repo := NewRouteRepository(db)
	ctx := context.Background()

	result, err := repo.ListPending(ctx, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, pendingEarly.ID, result[0].ID)
	require.Len(t, result[0].Segments, 1)

	require.NoError(t, repo.MarkStatus(ctx, pendingEarly.ID, models.RouteStatusCompleted))
	updated, err := repo.GetByID(ctx, pendingEarly.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RouteStatusCompleted, updated.Status)
}
