package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is the persistence mirror of domain.Location. Its ID is the
// externally assigned location id carried through from the source system,
// not a generated key.
type Location struct {
	ID    int     `json:"id" gorm:"primaryKey"`
	Name  string  `json:"name" gorm:"size:200;not null"`
	Lat   float64 `json:"lat" gorm:"type:decimal(9,6)"`
	Long  float64 `json:"long" gorm:"type:decimal(9,6)"`
	IsHub bool    `json:"is_hub" gorm:"default:false"`
}

// LocationRelation is a directed edge between two locations, stored in
// minutes to match domain.Relation's canonical unit.
type LocationRelation struct {
	ID             int     `json:"id" gorm:"primaryKey"`
	FromLocationID int     `json:"from_location_id" gorm:"not null;index"`
	ToLocationID   int     `json:"to_location_id" gorm:"not null;index"`
	DistanceKM     float64 `json:"distance_km" gorm:"type:decimal(10,2)"`
	TimeMinutes    float64 `json:"time_minutes" gorm:"type:decimal(10,2)"`

	FromLocation Location `json:"-" gorm:"foreignKey:FromLocationID"`
	ToLocation   Location `json:"-" gorm:"foreignKey:ToLocationID"`
}

// Vehicle is the persistence mirror of domain.Vehicle.
type Vehicle struct {
	ID                  int        `json:"id" gorm:"primaryKey"`
	RegistrationNumber  string     `json:"registration_number" gorm:"size:20;not null;uniqueIndex"`
	Brand               string     `json:"brand" gorm:"size:100"`
	ServiceIntervalKM   int        `json:"service_interval_km" gorm:"not null"`
	LeasingStartKM      int        `json:"leasing_start_km" gorm:"default:0"`
	LeasingLimitKM      int        `json:"leasing_limit_km" gorm:"not null"`
	LeasingStartDate    time.Time  `json:"leasing_start_date"`
	LeasingEndDate      time.Time  `json:"leasing_end_date"`
	CurrentOdometerKM   int        `json:"current_odometer_km" gorm:"default:0"`
	CurrentLocationID   *int       `json:"current_location_id"`
	CurrentLocation     *Location  `json:"-" gorm:"foreignKey:CurrentLocationID"`
}

// Route is the persistence mirror of domain.Route. Status tracks whether a
// route still needs an assignment (`pending` routes are what a run consumes).
type Route struct {
	ID            int       `json:"id" gorm:"primaryKey"`
	StartDatetime time.Time `json:"start_datetime" gorm:"not null;index"`
	EndDatetime   time.Time `json:"end_datetime" gorm:"not null"`
	DistanceKM    float64   `json:"distance_km" gorm:"type:decimal(10,2)"`
	Status        string    `json:"status" gorm:"size:20;default:'pending';index"`

	Segments []Segment `json:"segments" gorm:"foreignKey:RouteID"`
}

// RouteStatus constants.
const (
	RouteStatusPending   = "pending"
	RouteStatusAssigned  = "assigned"
	RouteStatusCompleted = "completed"
)

// Segment is one leg of a Route.
type Segment struct {
	ID              int       `json:"id" gorm:"primaryKey"`
	RouteID         int       `json:"route_id" gorm:"not null;index"`
	Seq             int       `json:"seq" gorm:"not null"`
	StartLocationID int       `json:"start_location_id" gorm:"not null"`
	EndLocationID   int       `json:"end_location_id" gorm:"not null"`
	StartDatetime   time.Time `json:"start_datetime" gorm:"not null"`
	EndDatetime     time.Time `json:"end_datetime" gorm:"not null"`
	DistanceKM      float64   `json:"distance_km" gorm:"type:decimal(10,2)"`
	RelationID      int       `json:"relation_id"`
}

// Run records one execution of the optimizer end to end: what it was asked
// to do, how far it got, and the totals it produced.
type Run struct {
	ID                 string          `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	Status             string          `json:"status" gorm:"size:20;not null;default:'running';index"`
	Config             json.RawMessage `json:"config" gorm:"type:jsonb"`
	RoutesProcessed    int             `json:"routes_processed" gorm:"default:0"`
	AssignmentsCreated int             `json:"assignments_created" gorm:"default:0"`
	RoutesUnassigned   int             `json:"routes_unassigned" gorm:"default:0"`
	TotalCostPLN       float64         `json:"total_cost_pln" gorm:"type:decimal(14,2);default:0"`
	Incomplete         bool            `json:"incomplete" gorm:"default:false"`
	ErrorMessage       string          `json:"error_message" gorm:"type:text"`
	StartedAt          time.Time       `json:"started_at" gorm:"autoCreateTime"`
	CompletedAt        *time.Time      `json:"completed_at"`
}

// RunStatus constants.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

func (r *Run) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}

// Assignment records one accepted (vehicle, route) pairing produced by a Run.
type Assignment struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RunID              string    `json:"run_id" gorm:"type:uuid;not null;index"`
	RouteID            int       `json:"route_id" gorm:"not null;index"`
	VehicleID          int       `json:"vehicle_id" gorm:"not null;index"`
	RequiresRelocation bool      `json:"requires_relocation" gorm:"default:false"`
	RequiresService    bool      `json:"requires_service" gorm:"default:false"`
	RelocationFromID   *int      `json:"relocation_from_id"`
	RelocationToID     *int      `json:"relocation_to_id"`
	RelocationDistKM   float64   `json:"relocation_distance_km" gorm:"type:decimal(10,2);default:0"`
	RelocationMinutes  float64   `json:"relocation_minutes" gorm:"type:decimal(10,2);default:0"`
	OverageKM          int       `json:"overage_km" gorm:"default:0"`
	ImmediateCostPLN   float64   `json:"immediate_cost_pln" gorm:"type:decimal(12,2);default:0"`
	ChainScore         float64   `json:"chain_score" gorm:"type:decimal(12,4);default:0"`
	EffectiveCostPLN   float64   `json:"effective_cost_pln" gorm:"type:decimal(12,2);default:0"`
	AssignedAt         time.Time `json:"assigned_at" gorm:"autoCreateTime"`

	Run Run `json:"-" gorm:"foreignKey:RunID"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

// VehicleStateSnapshot records a vehicle's mutable state. Persist writes one
// row per assignment, each carrying the vehicle's state at the end of the
// run; intermediate states are not recorded.
type VehicleStateSnapshot struct {
	ID                     string    `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	RunID                  string    `json:"run_id" gorm:"type:uuid;not null;index"`
	VehicleID              int       `json:"vehicle_id" gorm:"not null;index"`
	AssignmentID           *string   `json:"assignment_id" gorm:"type:uuid"`
	LocationID             int       `json:"location_id" gorm:"not null"`
	OdometerKM             int       `json:"odometer_km" gorm:"not null"`
	KmSinceLastServiceKM   int       `json:"km_since_last_service_km" gorm:"default:0"`
	KmDrivenThisLeaseYear  int       `json:"km_driven_this_lease_year" gorm:"default:0"`
	EventType              string    `json:"event_type" gorm:"size:20;default:'assignment'"`
	CreatedAt              time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (s *VehicleStateSnapshot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// AllModels lists every model for AutoMigrate, in dependency order.
func AllModels() []interface{} {
	return []interface{}{
		&Location{},
		&LocationRelation{},
		&Vehicle{},
		&Route{},
		&Segment{},
		&Run{},
		&Assignment{},
		&VehicleStateSnapshot{},
	}
}
