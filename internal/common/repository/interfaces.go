package repository

import (
	"context"
	"time"

	"github.com/fleetsim/optimizer/pkg/models"
)

// Repository defines the base repository interface for CRUD operations.
type Repository[T any] interface {
	Create(ctx context.Context, entity *T) error
	GetByID(ctx context.Context, id interface{}) (*T, error)
	Update(ctx context.Context, entity *T) error
	Delete(ctx context.Context, id interface{}) error

	List(ctx context.Context, filters FilterOptions, pagination Pagination) ([]*T, error)
	Count(ctx context.Context, filters FilterOptions) (int64, error)

	WithTransaction(ctx context.Context, fn func(Repository[T]) error) error
}

// FilterOptions represents filtering options for queries.
type FilterOptions struct {
	Where     map[string]interface{}   `json:"where"`
	WhereIn   map[string][]interface{} `json:"where_in"`
	WhereNot  map[string]interface{}   `json:"where_not"`
	WhereLike map[string]string        `json:"where_like"`

	DateRange map[string]DateRange `json:"date_range"`

	Search   string   `json:"search"`
	SearchIn []string `json:"search_in"`

	Conditions []Condition `json:"conditions"`
}

// Condition represents a custom query condition.
type Condition struct {
	Field    string      `json:"field"`
	Operator string      `json:"operator"` // =, !=, >, <, >=, <=, IN, NOT IN, LIKE, ILIKE
	Value    interface{} `json:"value"`
}

// DateRange represents a date range filter.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Pagination represents pagination options.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Offset   int `json:"offset"`
	Limit    int `json:"limit"`
}

// SortOptions represents sorting options.
type SortOptions struct {
	Field     string `json:"field"`
	Direction string `json:"direction"` // ASC, DESC
}

// QueryOptions combines all query options.
type QueryOptions struct {
	Filters    FilterOptions `json:"filters"`
	Pagination Pagination    `json:"pagination"`
	Sort       []SortOptions `json:"sort"`
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit() error
	Rollback() error
}

// RouteRepository adds the read patterns the assignment driver needs beyond
// plain CRUD: only-pending lookups in canonical timeline order.
type RouteRepository interface {
	Repository[models.Route]
	ListPending(ctx context.Context, before time.Time) ([]*models.Route, error)
	MarkStatus(ctx context.Context, routeID int, status string) error
}

// VehicleRepository adds the placement lookup the placement engine needs.
type VehicleRepository interface {
	Repository[models.Vehicle]
	ListUnplaced(ctx context.Context) ([]*models.Vehicle, error)
	UpdateLocation(ctx context.Context, vehicleID int, locationID int) error
}

// RunRepository tracks the lifecycle of one optimizer execution.
type RunRepository interface {
	Repository[models.Run]
	GetLatest(ctx context.Context) (*models.Run, error)
	MarkCompleted(ctx context.Context, runID string, routesProcessed, assignmentsCreated, routesUnassigned int, totalCost float64, incomplete bool) error
	MarkFailed(ctx context.Context, runID string, errMsg string) error
}

// AssignmentRepository reads back the record of what a run decided.
type AssignmentRepository interface {
	Repository[models.Assignment]
	ListByRun(ctx context.Context, runID string) ([]*models.Assignment, error)
}
