// Package postgres implements the relational DataSource variant: vehicles,
// locations, relations and routes are loaded from tables via GORM, and a
// completed run's assignments and state snapshots are persisted back inside
// a single transaction.
package postgres

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"github.com/fleetsim/optimizer/internal/datasource"
	apperrors "github.com/fleetsim/optimizer/pkg/errors"
	"github.com/fleetsim/optimizer/pkg/domain"
	"github.com/fleetsim/optimizer/pkg/models"
)

// DataSource reads and writes the relational schema through db.
type DataSource struct {
	db *gorm.DB
}

// New wraps an already-connected *gorm.DB.
func New(db *gorm.DB) *DataSource {
	return &DataSource{db: db}
}

// ConnectionInfo mirrors what GET /db/info reports: server identity plus a
// row count per table, useful for a quick sanity check against a fresh
// database.
type ConnectionInfo struct {
	Database    string         `json:"database"`
	TableCounts map[string]int64 `json:"table_counts"`
}

// Info reports database identity and row counts for every model table.
func (d *DataSource) Info(ctx context.Context) (*ConnectionInfo, error) {
	var dbName string
	if err := d.db.WithContext(ctx).Raw("SELECT current_database()").Scan(&dbName).Error; err != nil {
		return nil, apperrors.NewResourceExhaustionError("database unreachable").WithInternal(err)
	}

	counts := make(map[string]int64)
	tables := map[string]interface{}{
		"locations":          &models.Location{},
		"location_relations": &models.LocationRelation{},
		"vehicles":           &models.Vehicle{},
		"routes":             &models.Route{},
		"segments":           &models.Segment{},
		"runs":               &models.Run{},
		"assignments":        &models.Assignment{},
	}
	for name, model := range tables {
		var count int64
		if err := d.db.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
			return nil, apperrors.NewInternalError("failed counting " + name).WithInternal(err)
		}
		counts[name] = count
	}

	return &ConnectionInfo{Database: dbName, TableCounts: counts}, nil
}

// LoadAll loads every vehicle and location, and only routes still pending
// assignment.
func (d *DataSource) LoadAll(ctx context.Context) (*datasource.Snapshot, error) {
	var dbLocations []models.Location
	if err := d.db.WithContext(ctx).Order("id").Find(&dbLocations).Error; err != nil {
		return nil, apperrors.NewResourceExhaustionError("failed loading locations").WithInternal(err)
	}

	var dbRelations []models.LocationRelation
	if err := d.db.WithContext(ctx).Order("id").Find(&dbRelations).Error; err != nil {
		return nil, apperrors.NewResourceExhaustionError("failed loading location relations").WithInternal(err)
	}

	var dbVehicles []models.Vehicle
	if err := d.db.WithContext(ctx).Order("id").Find(&dbVehicles).Error; err != nil {
		return nil, apperrors.NewResourceExhaustionError("failed loading vehicles").WithInternal(err)
	}

	var dbRoutes []models.Route
	if err := d.db.WithContext(ctx).
		Where("status = ?", models.RouteStatusPending).
		Preload("Segments", func(tx *gorm.DB) *gorm.DB { return tx.Order("segments.seq") }).
		Order("start_datetime, id").
		Find(&dbRoutes).Error; err != nil {
		return nil, apperrors.NewResourceExhaustionError("failed loading routes").WithInternal(err)
	}

	return &datasource.Snapshot{
		Locations: toDomainLocations(dbLocations),
		Relations: toDomainRelations(dbRelations),
		Vehicles:  toDomainVehicles(dbVehicles),
		Routes:    toDomainRoutes(dbRoutes),
	}, nil
}

// Persist writes the run's assignments and resulting vehicle states inside
// a single transaction, rolling back entirely on any failure.
func (d *DataSource) Persist(ctx context.Context, runID string, result domain.RunResult, placement *domain.PlacementResult) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run := models.Run{
			ID:                 runID,
			Status:             models.RunStatusCompleted,
			RoutesProcessed:    len(result.Assignments) + len(result.UnassignedRoutes),
			AssignmentsCreated: len(result.Assignments),
			RoutesUnassigned:   len(result.UnassignedRoutes),
			TotalCostPLN:       result.TotalCost,
			Incomplete:         result.Incomplete,
		}
		if err := tx.Create(&run).Error; err != nil {
			return apperrors.NewInternalError("failed creating run record").WithInternal(err)
		}

		for _, a := range result.Assignments {
			dbAssignment := toModelAssignment(runID, a)
			if err := tx.Create(&dbAssignment).Error; err != nil {
				return apperrors.NewInternalError("failed saving assignment").WithInternal(err)
			}

			if state, ok := result.FinalStates[a.VehicleID]; ok {
				snapshot := models.VehicleStateSnapshot{
					RunID:                 runID,
					VehicleID:             a.VehicleID,
					AssignmentID:          &dbAssignment.ID,
					LocationID:            state.CurrentLocationID,
					OdometerKM:            state.OdometerKM,
					KmSinceLastServiceKM:  state.KMSinceService,
					KmDrivenThisLeaseYear: state.KMThisLeaseYear,
					EventType:             "assignment",
				}
				if err := tx.Create(&snapshot).Error; err != nil {
					return apperrors.NewInternalError("failed saving vehicle state snapshot").WithInternal(err)
				}
			}

			if err := tx.Model(&models.Route{}).Where("id = ?", a.RouteID).
				Update("status", models.RouteStatusAssigned).Error; err != nil {
				return apperrors.NewInternalError("failed marking route assigned").WithInternal(err)
			}
		}

		if placement != nil {
			for vehicleID, locationID := range placement.Placements {
				locID := locationID
				if err := tx.Model(&models.Vehicle{}).Where("id = ?", vehicleID).
					Update("current_location_id", locID).Error; err != nil {
					return apperrors.NewInternalError("failed persisting placement").WithInternal(err)
				}
			}
		}

		return nil
	})
}

func toDomainLocations(rows []models.Location) []domain.Location {
	out := make([]domain.Location, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Location{ID: r.ID, Name: r.Name, Lat: r.Lat, Lon: r.Long, IsHub: r.IsHub})
	}
	return out
}

func toDomainRelations(rows []models.LocationRelation) []domain.Relation {
	out := make([]domain.Relation, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Relation{
			ID: r.ID, FromID: r.FromLocationID, ToID: r.ToLocationID,
			DistanceKM: r.DistanceKM, TravelMinutes: r.TimeMinutes,
		})
	}
	return out
}

func toDomainVehicles(rows []models.Vehicle) []domain.Vehicle {
	out := make([]domain.Vehicle, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.Vehicle{
			ID: r.ID, Registration: r.RegistrationNumber, Brand: r.Brand,
			ServiceIntervalKM: r.ServiceIntervalKM, LeasingStartKM: r.LeasingStartKM,
			LeasingLimitKM: r.LeasingLimitKM, LeaseStart: r.LeasingStartDate, LeaseEnd: r.LeasingEndDate,
			CurrentOdometerKM: r.CurrentOdometerKM, CurrentLocationID: r.CurrentLocationID,
		})
	}
	return out
}

func toDomainRoutes(rows []models.Route) []domain.Route {
	out := make([]domain.Route, 0, len(rows))
	for _, r := range rows {
		segs := make([]domain.Segment, 0, len(r.Segments))
		for _, s := range r.Segments {
			segs = append(segs, domain.Segment{
				ID: s.ID, RouteID: s.RouteID, Seq: s.Seq,
				StartLocID: s.StartLocationID, EndLocID: s.EndLocationID,
				StartTime: s.StartDatetime, EndTime: s.EndDatetime,
				DistanceKM: s.DistanceKM, RelationID: s.RelationID,
			})
		}
		out = append(out, domain.Route{
			ID: r.ID, StartTime: r.StartDatetime, EndTime: r.EndDatetime,
			DistanceKM: r.DistanceKM, Segments: segs,
		})
	}
	domain.SortRoutes(out)
	return out
}

func toModelAssignment(runID string, a domain.Assignment) models.Assignment {
	var fromID, toID *int
	if a.RequiresRelocation {
		from, to := a.RelocationFromID, a.RelocationToID
		fromID, toID = &from, &to
	}
	return models.Assignment{
		RunID: runID, RouteID: a.RouteID, VehicleID: a.VehicleID,
		RequiresRelocation: a.RequiresRelocation, RequiresService: a.RequiresService,
		RelocationFromID: fromID, RelocationToID: toID,
		RelocationDistKM: a.RelocationDistKM, RelocationMinutes: a.RelocationMinutes,
		OverageKM: a.OverageKM, ImmediateCostPLN: a.ImmediateCost,
		ChainScore: a.ChainScore, EffectiveCostPLN: a.EffectiveCost,
		AssignedAt: a.AssignedAt,
	}
}

// marshalConfig serialises the run's tuning config for storing alongside
// the run record; nothing in this codebase calls it.
func marshalConfig(cfg domain.Config) json.RawMessage {
	b, err := json.Marshal(cfg)
	if err != nil {
		return nil
	}
	return b
}
