package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/internal/common/testutil"
)

func TestVehicleRepository_ListUnplacedAndUpdateLocation(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	loc := testutil.NewTestLocation(1)
	require.NoError(t, db.Create(loc).Error)

	placed := testutil.NewTestVehicle(1, testutil.PtrInt(1))
	unplaced := testutil.NewTestVehicle(2, nil)
	require.NoError(t, db.Create(placed).Error)
	require.NoError(t, db.Create(unplaced).Error)

	repo := NewVehicleRepository(db)
	ctx := context.Background()

	result, err := repo.ListUnplaced(ctx)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, unplaced.ID, result[0].ID)

	require.NoError(t, repo.UpdateLocation(ctx, unplaced.ID, 1))

	result, err = repo.ListUnplaced(ctx)
	require.NoError(t, err)
	assert.Empty(t, result)
}
