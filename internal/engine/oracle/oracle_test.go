package oracle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/pkg/domain"
)

func TestLookup_SameLocationIsIdentity(t *testing.T) {
	o := New(nil, true)
	r, ok := o.Lookup(5, 5)
	require.True(t, ok)
	assert.Equal(t, 0.0, r.DistanceKM)
	assert.Equal(t, 0.0, r.TravelMinutes)
}

func TestLookup_DirectRelation(t *testing.T) {
	o := New([]domain.Relation{
		{ID: 1, FromID: 1, ToID: 2, DistanceKM: 50, TravelMinutes: 60},
	}, true)

	r, ok := o.Lookup(1, 2)
	require.True(t, ok)
	assert.Equal(t, 50.0, r.DistanceKM)
	assert.Equal(t, 60.0, r.TravelMinutes)
}

func TestLookup_ReverseDirectionPreservesWeights(t *testing.T) {
	o := New([]domain.Relation{
		{ID: 1, FromID: 1, ToID: 2, DistanceKM: 50, TravelMinutes: 60},
	}, true)

	r, ok := o.Lookup(2, 1)
	require.True(t, ok)
	assert.Equal(t, 50.0, r.DistanceKM)
	assert.Equal(t, 60.0, r.TravelMinutes)
}

func TestLookup_MultiHopWithinCap(t *testing.T) {
	o := New([]domain.Relation{
		{ID: 1, FromID: 1, ToID: 2, DistanceKM: 10, TravelMinutes: 10},
		{ID: 2, FromID: 2, ToID: 3, DistanceKM: 10, TravelMinutes: 10},
		{ID: 3, FromID: 3, ToID: 4, DistanceKM: 10, TravelMinutes: 10},
	}, true)

	r, ok := o.Lookup(1, 4)
	require.True(t, ok)
	assert.True(t, r.Synthetic)
	assert.InDelta(t, 30.0, r.DistanceKM, 0.001)
	assert.InDelta(t, 30.0, r.TravelMinutes, 0.001)
}

func TestLookup_BeyondHopCapFails(t *testing.T) {
	o := New([]domain.Relation{
		{ID: 1, FromID: 1, ToID: 2, DistanceKM: 10, TravelMinutes: 10},
		{ID: 2, FromID: 2, ToID: 3, DistanceKM: 10, TravelMinutes: 10},
		{ID: 3, FromID: 3, ToID: 4, DistanceKM: 10, TravelMinutes: 10},
		{ID: 4, FromID: 4, ToID: 5, DistanceKM: 10, TravelMinutes: 10},
	}, true)

	_, ok := o.Lookup(1, 5)
	assert.False(t, ok, "path requires 4 hops, exceeding MaxHops=3")
}

func TestLookup_PathfindingDisabled(t *testing.T) {
	o := New([]domain.Relation{
		{ID: 1, FromID: 1, ToID: 2, DistanceKM: 10, TravelMinutes: 10},
		{ID: 2, FromID: 2, ToID: 3, DistanceKM: 10, TravelMinutes: 10},
	}, false)

	_, ok := o.Lookup(1, 3)
	assert.False(t, ok)
}

func TestLookup_NoPath(t *testing.T) {
	o := New([]domain.Relation{
		{ID: 1, FromID: 1, ToID: 2, DistanceKM: 10, TravelMinutes: 10},
	}, true)

	_, ok := o.Lookup(1, 99)
	assert.False(t, ok)
}

func TestClearCache_DoesNotAffectCorrectness(t *testing.T) {
	o := New([]domain.Relation{
		{ID: 1, FromID: 1, ToID: 2, DistanceKM: 10, TravelMinutes: 10},
	}, true)

	_, _ = o.Lookup(1, 2)
	o.ClearCache()
	r, ok := o.Lookup(1, 2)
	require.True(t, ok)
	assert.Equal(t, 10.0, r.DistanceKM)
}
