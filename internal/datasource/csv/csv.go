// Package csv implements the tabular-file DataSource variant: six CSV files
// (locations, locations_relations, vehicles, routes, segments, plus a
// placement-output file) loaded into the in-memory domain model, and
// written back the same way.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/fleetsim/optimizer/pkg/errors"

	"github.com/fleetsim/optimizer/internal/datasource"
	"github.com/fleetsim/optimizer/pkg/domain"
)

const (
	locationsFile  = "locations.csv"
	relationsFile  = "locations_relations.csv"
	vehiclesFile   = "vehicles.csv"
	routesFile     = "routes.csv"
	segmentsFile   = "segments.csv"
	placementsFile = "placements.csv"
)

const timeLayout = "2006-01-02 15:04:05"

// DataSource reads and writes the tabular file set rooted at Dir.
type DataSource struct {
	Dir string
}

// New builds a csv.DataSource rooted at dir.
func New(dir string) *DataSource {
	return &DataSource{Dir: dir}
}

func (d *DataSource) path(name string) string {
	return filepath.Join(d.Dir, name)
}

// LoadAll reads all five input files and assembles a Snapshot. It does not
// accept a context deadline mid-read: file I/O here is local and expected
// to be fast; ctx is honoured only at the call boundary.
func (d *DataSource) LoadAll(ctx context.Context) (*datasource.Snapshot, error) {
	select {
	case <-ctx.Done():
		return nil, apperrors.NewCancellationError("load cancelled")
	default:
	}

	locations, err := loadLocations(d.path(locationsFile))
	if err != nil {
		return nil, err
	}
	relations, err := loadRelations(d.path(relationsFile))
	if err != nil {
		return nil, err
	}
	vehicles, err := loadVehicles(d.path(vehiclesFile))
	if err != nil {
		return nil, err
	}
	segmentsByRoute, err := loadSegments(d.path(segmentsFile))
	if err != nil {
		return nil, err
	}
	routes, err := loadRoutes(d.path(routesFile), segmentsByRoute)
	if err != nil {
		return nil, err
	}

	return &datasource.Snapshot{
		Vehicles:  vehicles,
		Locations: locations,
		Relations: relations,
		Routes:    routes,
	}, nil
}

// Persist writes the final vehicle->location mapping to placements.csv.
// Assignment and state detail are not re-serialised to CSV: the tabular
// backend is a read-mostly seed format, and a full run's audit trail
// belongs in the relational backend.
func (d *DataSource) Persist(ctx context.Context, runID string, result domain.RunResult, placement *domain.PlacementResult) error {
	select {
	case <-ctx.Done():
		return apperrors.NewCancellationError("persist cancelled")
	default:
	}
	if placement == nil {
		return nil
	}

	f, err := os.Create(d.path(placementsFile))
	if err != nil {
		return apperrors.NewResourceExhaustionError("cannot open placements file").WithInternal(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"vehicle_id", "location_id"}); err != nil {
		return apperrors.NewInternalError("failed writing placements header").WithInternal(err)
	}

	ids := make([]int, 0, len(placement.Placements))
	for id := range placement.Placements {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		row := []string{strconv.Itoa(id), strconv.Itoa(placement.Placements[id])}
		if err := w.Write(row); err != nil {
			return apperrors.NewInternalError("failed writing placement row").WithInternal(err)
		}
	}
	return w.Error()
}

func openReader(path string) (*csv.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewResourceExhaustionError(fmt.Sprintf("cannot open %s", path)).WithInternal(err)
	}
	r := csv.NewReader(f)
	return r, f, nil
}

// readRows returns the header and data rows of a CSV file as maps keyed by
// column name, mirroring csv.DictReader's row shape.
func readRows(path string) ([]map[string]string, error) {
	r, f, err := openReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := r.ReadAll()
	if err != nil {
		return nil, apperrors.NewInputValidationError(fmt.Sprintf("malformed csv %s", path)).WithInternal(err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseDatetime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.Parse("2006-01-02 15:04:05.999999", s); err2 == nil {
		return t, nil
	}
	if t, err2 := time.Parse("2006-01-02", s); err2 == nil {
		return t, nil
	}
	return time.Time{}, apperrors.NewInputValidationError(fmt.Sprintf("unparseable timestamp %q", s)).WithInternal(err)
}

// parseOptionalInt parses an integer column that may hold the literal N/A
// to denote an absent value.
func parseOptionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil, apperrors.NewInputValidationError(fmt.Sprintf("invalid integer %q", s)).WithInternal(err)
		}
		v = int(f)
	}
	return &v, nil
}

func parseInt(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.NewInputValidationError(fmt.Sprintf("invalid integer %q", s)).WithInternal(err)
	}
	return v, nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperrors.NewInputValidationError(fmt.Sprintf("invalid number %q", s)).WithInternal(err)
	}
	return v, nil
}

func loadLocations(path string) ([]domain.Location, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Location, 0, len(rows))
	for _, row := range rows {
		id, err := parseInt(row["id"])
		if err != nil {
			return nil, err
		}
		lat, err := parseFloat(row["lat"])
		if err != nil {
			return nil, err
		}
		lon, err := parseFloat(row["long"])
		if err != nil {
			return nil, err
		}
		isHub, err := parseInt(row["is_hub"])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Location{ID: id, Name: row["name"], Lat: lat, Lon: lon, IsHub: isHub != 0})
	}
	return out, nil
}

func loadRelations(path string) ([]domain.Relation, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Relation, 0, len(rows))
	for _, row := range rows {
		id, err := parseInt(row["id"])
		if err != nil {
			return nil, err
		}
		from, err := parseInt(row["id_loc_1"])
		if err != nil {
			return nil, err
		}
		to, err := parseInt(row["id_loc_2"])
		if err != nil {
			return nil, err
		}
		dist, err := parseFloat(row["dist"])
		if err != nil {
			return nil, err
		}
		minutes, err := parseFloat(row["time"])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Relation{ID: id, FromID: from, ToID: to, DistanceKM: dist, TravelMinutes: minutes})
	}
	return out, nil
}

func loadVehicles(path string) ([]domain.Vehicle, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Vehicle, 0, len(rows))
	for _, row := range rows {
		id, err := parseInt(row["Id"])
		if err != nil {
			return nil, err
		}
		serviceInterval, err := parseInt(row["service_interval_km"])
		if err != nil {
			return nil, err
		}
		startKM, err := parseInt(row["Leasing_start_km"])
		if err != nil {
			return nil, err
		}
		limitKM, err := parseInt(row["leasing_limit_km"])
		if err != nil {
			return nil, err
		}
		leaseStart, err := parseDatetime(row["leasing_start_date"])
		if err != nil {
			return nil, err
		}
		leaseEnd, err := parseDatetime(row["leasing_end_date"])
		if err != nil {
			return nil, err
		}
		odometer, err := parseInt(row["current_odometer_km"])
		if err != nil {
			return nil, err
		}
		currentLoc, err := parseOptionalInt(row["Current_location_id"])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Vehicle{
			ID: id, Registration: row["registration_number"], Brand: row["brand"],
			ServiceIntervalKM: serviceInterval, LeasingStartKM: startKM, LeasingLimitKM: limitKM,
			LeaseStart: leaseStart, LeaseEnd: leaseEnd, CurrentOdometerKM: odometer,
			CurrentLocationID: currentLoc,
		})
	}
	return out, nil
}

func loadSegments(path string) (map[int][]domain.Segment, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	byRoute := make(map[int][]domain.Segment)
	for _, row := range rows {
		id, err := parseInt(row["id"])
		if err != nil {
			return nil, err
		}
		routeID, err := parseInt(row["route_id"])
		if err != nil {
			return nil, err
		}
		seq, err := parseInt(row["seq"])
		if err != nil {
			return nil, err
		}
		startLoc, err := parseInt(row["start_loc_id"])
		if err != nil {
			return nil, err
		}
		endLoc, err := parseInt(row["end_loc_id"])
		if err != nil {
			return nil, err
		}
		startT, err := parseDatetime(row["start_datetime"])
		if err != nil {
			return nil, err
		}
		endT, err := parseDatetime(row["end_datetime"])
		if err != nil {
			return nil, err
		}
		relationID, err := parseInt(row["relation_id"])
		if err != nil {
			return nil, err
		}
		byRoute[routeID] = append(byRoute[routeID], domain.Segment{
			ID: id, RouteID: routeID, Seq: seq, StartLocID: startLoc, EndLocID: endLoc,
			StartTime: startT, EndTime: endT, RelationID: relationID,
		})
	}
	for routeID := range byRoute {
		segs := byRoute[routeID]
		sort.Slice(segs, func(i, j int) bool { return segs[i].Seq < segs[j].Seq })
		byRoute[routeID] = segs
	}
	return byRoute, nil
}

func loadRoutes(path string, segmentsByRoute map[int][]domain.Segment) ([]domain.Route, error) {
	rows, err := readRows(path)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Route, 0, len(rows))
	for _, row := range rows {
		id, err := parseInt(row["id"])
		if err != nil {
			return nil, err
		}
		startT, err := parseDatetime(row["start_datetime"])
		if err != nil {
			return nil, err
		}
		endT, err := parseDatetime(row["end_datetime"])
		if err != nil {
			return nil, err
		}
		dist, err := parseFloat(row["distance_km"])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.Route{
			ID: id, StartTime: startT, EndTime: endT, DistanceKM: dist,
			Segments: segmentsByRoute[id],
		})
	}
	domain.SortRoutes(out)
	return out, nil
}
