package csv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/optimizer/pkg/domain"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func seedFleet(t *testing.T, dir string) {
	writeFile(t, dir, locationsFile, "id,name,lat,long,is_hub\n1,Depot,52.0,4.0,1\n2,Customer,51.0,5.0,0\n")
	writeFile(t, dir, relationsFile, "id,id_loc_1,id_loc_2,dist,time\n1,1,2,100.5,90\n")
	writeFile(t, dir, vehiclesFile,
		"Id,registration_number,brand,service_interval_km,Leasing_start_km,leasing_limit_km,leasing_start_date,leasing_end_date,current_odometer_km,Current_location_id\n"+
			"1,AB-123-C,Volvo,30000,0,150000,2023-01-01 00:00:00,2026-01-01 00:00:00,45000,1\n"+
			"2,CD-456-E,Scania,30000,0,150000,2023-01-01 00:00:00,2026-01-01 00:00:00,12000,N/A\n")
	writeFile(t, dir, segmentsFile,
		"id,route_id,seq,start_loc_id,end_loc_id,start_datetime,end_datetime,relation_id\n"+
			"1,1,1,1,2,2024-01-01 08:00:00,2024-01-01 09:30:00,1\n")
	writeFile(t, dir, routesFile,
		"id,start_datetime,end_datetime,distance_km\n"+
			"1,2024-01-01 08:00:00,2024-01-01 09:30:00,100.5\n")
}

func TestLoadAll_ParsesAllFiveInputFiles(t *testing.T) {
	dir := t.TempDir()
	seedFleet(t, dir)

	ds := New(dir)
	snap, err := ds.LoadAll(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Locations, 2)
	require.Len(t, snap.Relations, 1)
	require.Len(t, snap.Vehicles, 2)
	require.Len(t, snap.Routes, 1)

	assert.Equal(t, 1, snap.Vehicles[0].ID)
	require.NotNil(t, snap.Vehicles[0].CurrentLocationID)
	assert.Equal(t, 1, *snap.Vehicles[0].CurrentLocationID)

	assert.Nil(t, snap.Vehicles[1].CurrentLocationID, "N/A current location must parse to nil")

	require.Len(t, snap.Routes[0].Segments, 1)
	assert.Equal(t, 1, snap.Routes[0].StartLocationID())
	assert.Equal(t, 2, snap.Routes[0].EndLocationID())
}

func TestPersist_RoundTripsPlacementMapping(t *testing.T) {
	dir := t.TempDir()
	seedFleet(t, dir)
	ds := New(dir)

	placement := &domain.PlacementResult{
		Placements: map[int]int{1: 2, 2: 1},
		Quality:    domain.PlacementQuality{TotalVehiclesPlaced: 2},
	}

	err := ds.Persist(context.Background(), "run-1", domain.RunResult{}, placement)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, placementsFile))
	require.NoError(t, err)
	assert.Equal(t, "vehicle_id,location_id\n1,2\n2,1\n", string(data))
}

func TestPersist_NilPlacementIsNoOp(t *testing.T) {
	dir := t.TempDir()
	ds := New(dir)

	err := ds.Persist(context.Background(), "run-1", domain.RunResult{}, nil)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, placementsFile))
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadAll_CancelledContextReturnsCancellationError(t *testing.T) {
	dir := t.TempDir()
	seedFleet(t, dir)
	ds := New(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ds.LoadAll(ctx)
	require.Error(t, err)
}

func TestLoadVehicles_InvalidIntegerColumnFails(t *testing.T) {
	dir := t.TempDir()
	seedFleet(t, dir)
	writeFile(t, dir, vehiclesFile,
		"Id,registration_number,brand,service_interval_km,Leasing_start_km,leasing_limit_km,leasing_start_date,leasing_end_date,current_odometer_km,Current_location_id\n"+
			"x,AB-123-C,Volvo,30000,0,150000,2023-01-01 00:00:00,2026-01-01 00:00:00,45000,1\n")

	ds := New(dir)
	_, err := ds.LoadAll(context.Background())
	assert.Error(t, err)
}
