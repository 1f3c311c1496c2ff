package testutil

import (
	"fmt"
	"time"

	"github.com/fleetsim/optimizer/pkg/models"
)

// NewTestLocation creates a test location with default values.
func NewTestLocation(id int) *models.Location {
	return &models.Location{
		ID:    id,
		Name:  "Depot",
		Lat:   52.2297,
		Long:  21.0122,
		IsHub: id == 1,
	}
}

// NewTestRelation creates a test directed edge between two locations.
func NewTestRelation(id, fromID, toID int) *models.LocationRelation {
	return &models.LocationRelation{
		ID:             id,
		FromLocationID: fromID,
		ToLocationID:   toID,
		DistanceKM:     50.0,
		TimeMinutes:    60.0,
	}
}

// NewTestVehicle creates a test vehicle with default values, unplaced unless
// currentLocationID is non-nil.
func NewTestVehicle(id int, currentLocationID *int) *models.Vehicle {
	return &models.Vehicle{
		ID:                 id,
		RegistrationNumber: fmt.Sprintf("WA%05d", id),
		Brand:              "Volvo",
		ServiceIntervalKM:  30000,
		LeasingStartKM:     0,
		LeasingLimitKM:     300000,
		LeasingStartDate:   time.Now().AddDate(-1, 0, 0),
		LeasingEndDate:     time.Now().AddDate(2, 0, 0),
		CurrentOdometerKM:  15000,
		CurrentLocationID:  currentLocationID,
	}
}

// NewTestRoute creates a test route with a single segment between two
// locations, starting at start and lasting one hour.
func NewTestRoute(id, startLocationID, endLocationID int, start time.Time) *models.Route {
	end := start.Add(time.Hour)
	return &models.Route{
		ID:            id,
		StartDatetime: start,
		EndDatetime:   end,
		DistanceKM:    50.0,
		Status:        models.RouteStatusPending,
		Segments: []models.Segment{
			{
				ID:              id,
				RouteID:         id,
				Seq:             1,
				StartLocationID: startLocationID,
				EndLocationID:   endLocationID,
				StartDatetime:   start,
				EndDatetime:     end,
				DistanceKM:      50.0,
			},
		},
	}
}

// NewTestRun creates a test run record in the running state.
func NewTestRun() *models.Run {
	return &models.Run{
		Status: models.RunStatusRunning,
	}
}

// PtrInt returns a pointer to i.
func PtrInt(i int) *int {
	return &i
}

// PtrTime returns a pointer to t.
func PtrTime(t time.Time) *time.Time {
	return &t
}
