package domain

import (
	"sort"
	"time"
)

// Segment is one leg of a route between two locations.
type Segment struct {
	ID           int
	RouteID      int
	Seq          int
	StartLocID   int
	EndLocID     int
	StartTime    time.Time
	EndTime      time.Time
	DistanceKM   float64
	RelationID   int
}

// Route is an atomic, immutable delivery task. It is consumed exactly once
// by the assignment driver and never decomposed into its segments for
// partial assignment.
type Route struct {
	ID          int
	StartTime   time.Time
	EndTime     time.Time
	DistanceKM  float64
	Segments    []Segment
}

// StartLocationID is the start location of the first segment, or -1 if the
// route has no segments.
func (r Route) StartLocationID() int {
	if len(r.Segments) == 0 {
		return -1
	}
	return r.Segments[0].StartLocID
}

// EndLocationID is the end location of the last segment, or -1 if the route
// has no segments.
func (r Route) EndLocationID() int {
	if len(r.Segments) == 0 {
		return -1
	}
	return r.Segments[len(r.Segments)-1].EndLocID
}

// Less orders routes by (start_time, start_location_id), the total order
// required for deterministic timeline walks.
func Less(a, b Route) bool {
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.Before(b.StartTime)
	}
	return a.StartLocationID() < b.StartLocationID()
}

// SortRoutes sorts routes in place by the canonical timeline order.
func SortRoutes(routes []Route) {
	sort.Slice(routes, func(i, j int) bool { return Less(routes[i], routes[j]) })
}
