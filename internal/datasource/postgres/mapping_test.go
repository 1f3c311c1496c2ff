package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/pkg/domain"
	"github.com/fleetsim/optimizer/pkg/models"
)

func TestToDomainVehicles_PreservesNilCurrentLocation(t *testing.T) {
	loc := 5
	rows := []models.Vehicle{
		{ID: 1, RegistrationNumber: "AB-1", LeasingLimitKM: 150000, CurrentLocationID: &loc},
		{ID: 2, RegistrationNumber: "AB-2", LeasingLimitKM: 150000, CurrentLocationID: nil},
	}

	out := toDomainVehicles(rows)

	require.Len(t, out, 2)
	require.NotNil(t, out[0].CurrentLocationID)
	assert.Equal(t, 5, *out[0].CurrentLocationID)
	assert.Nil(t, out[1].CurrentLocationID)
}

func TestToDomainRoutes_SortsByStartTimeThenStartLocation(t *testing.T) {
	later := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC)
	earlier := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	rows := []models.Route{
		{ID: 1, StartDatetime: later, Segments: []models.Segment{{StartLocationID: 1, EndLocationID: 2}}},
		{ID: 2, StartDatetime: earlier, Segments: []models.Segment{{StartLocationID: 1, EndLocationID: 2}}},
	}

	out := toDomainRoutes(rows)

	require.Len(t, out, 2)
	assert.Equal(t, 2, out[0].ID, "earlier route should sort first")
	assert.Equal(t, 1, out[1].ID)
}

func TestToModelAssignment_RelocationFieldsNilWhenNoRelocation(t *testing.T) {
	a := domain.Assignment{
		RouteID: 1, VehicleID: 2, RequiresRelocation: false,
		ImmediateCost: 100,
	}

	m := toModelAssignment("run-1", a)

	assert.Equal(t, "run-1", m.RunID)
	assert.Nil(t, m.RelocationFromID)
	assert.Nil(t, m.RelocationToID)
}

func TestToModelAssignment_RelocationFieldsSetWhenRelocating(t *testing.T) {
	a := domain.Assignment{
		RouteID: 1, VehicleID: 2, RequiresRelocation: true,
		RelocationFromID: 3, RelocationToID: 4, RelocationDistKM: 50,
	}

	m := toModelAssignment("run-1", a)

	require.NotNil(t, m.RelocationFromID)
	require.NotNil(t, m.RelocationToID)
	assert.Equal(t, 3, *m.RelocationFromID)
	assert.Equal(t, 4, *m.RelocationToID)
}

func TestToDomainRelations_MapsMinutesField(t *testing.T) {
	rows := []models.LocationRelation{
		{ID: 1, FromLocationID: 1, ToLocationID: 2, DistanceKM: 100, TimeMinutes: 90},
	}

	out := toDomainRelations(rows)

	require.Len(t, out, 1)
	assert.Equal(t, 90.0, out[0].TravelMinutes)
}
