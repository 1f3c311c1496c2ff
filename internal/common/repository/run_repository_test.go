package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/internal/common/testutil"
	"github.com/fleetsim/optimizer/pkg/models"
)

func TestRunRepository_GetLatestAndMarkCompleted(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	older := testutil.NewTestRun()
	require.NoError(t, db.Create(older).Error)

	newer := testutil.NewTestRun()
	require.NoError(t, db.Create(newer).Error)

	repo := NewRunRepository(db)
	ctx := context.Background()

	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, newer.ID, latest.ID)

	require.NoError(t, repo.MarkCompleted(ctx, newer.ID, 10, 8, 2, 1234.5, true))
	updated, err := repo.GetByID(ctx, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, updated.Status)
	assert.Equal(t, 8, updated.AssignmentsCreated)
	assert.True(t, updated.Incomplete)
	require.NotNil(t, updated.CompletedAt)
}

func TestRunRepository_MarkFailed(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	run := testutil.NewTestRun()
	require.NoError(t, db.Create(run).Error)

	repo := NewRunRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.MarkFailed(ctx, run.ID, "datasource unreachable"))
	updated, err := repo.GetByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusFailed, updated.Status)
	assert.Equal(t, "datasource unreachable", updated.ErrorMessage)
}

func TestRunRepository_GetLatestOnEmptyTableReturnsNilNoError(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	repo := NewRunRepository(db)
	latest, err := repo.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}
