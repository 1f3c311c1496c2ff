package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fleetsim/optimizer/pkg/models"
)

type routeRepository struct {
	*BaseRepository[models.Route]
	db *gorm.DB
}

// NewRouteRepository creates a route repository backed by db.
func NewRouteRepository(db *gorm.DB) RouteRepository {
	return &routeRepository{
		BaseRepository: NewBaseRepository[models.Route](db),
		db:             db,
	}
}

// ListPending returns routes still awaiting assignment, starting at or
// before the given cutoff, ordered by start_datetime then id.
func (r *routeRepository) ListPending(ctx context.Context, before time.Time) ([]*models.Route, error) {
	var routes []*models.Route
	query := r.db.WithContext(ctx).
		Where("status = ?", models.RouteStatusPending).
		Preload("Segments", func(tx *gorm.DB) *gorm.DB { return tx.Order("segments.seq") }).
		Order("start_datetime, id")

	if !before.IsZero() {
		query = query.Where("start_datetime <= ?", before)
	}

	if err := query.Find(&routes).Error; err != nil {
		return nil, fmt.Errorf("failed to list pending routes: %w", err)
	}
	return routes, nil
}

// MarkStatus transitions a route's status, used once a run decides its fate.
func (r *routeRepository) MarkStatus(ctx context.Context, routeID int, status string) error {
	if err := r.db.WithContext(ctx).Model(&models.Route{}).Where("id = ?", routeID).
		Update("status", status).Error; err != nil {
		return fmt.Errorf("failed to mark route status: %w", err)
	}
	return nil
}
