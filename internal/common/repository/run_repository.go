package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fleetsim/optimizer/pkg/models"
)

type runRepository struct {
	*BaseRepository[models.Run]
	db *gorm.DB
}

// NewRunRepository creates a run repository backed by db.
func NewRunRepository(db *gorm.DB) RunRepository {
	return &runRepository{
		BaseRepository: NewBaseRepository[models.Run](db),
		db:             db,
	}
}

// GetLatest returns the most recently started run, if any.
func (r *runRepository) GetLatest(ctx context.Context) (*models.Run, error) {
	var run models.Run
	err := r.db.WithContext(ctx).Order("started_at DESC").First(&run).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return &run, nil
}

// MarkCompleted records a run's final totals and flips it to completed.
func (r *runRepository) MarkCompleted(ctx context.Context, runID string, routesProcessed, assignmentsCreated, routesUnassigned int, totalCost float64, incomplete bool) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":              models.RunStatusCompleted,
		"routes_processed":    routesProcessed,
		"assignments_created": assignmentsCreated,
		"routes_unassigned":   routesUnassigned,
		"total_cost_pln":      totalCost,
		"incomplete":          incomplete,
		"completed_at":        &now,
	}
	if err := r.db.WithContext(ctx).Model(&models.Run{}).Where("id = ?", runID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark run completed: %w", err)
	}
	return nil
}

// MarkFailed flips a run to failed and records the error that ended it.
func (r *runRepository) MarkFailed(ctx context.Context, runID string, errMsg string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":        models.RunStatusFailed,
		"error_message": errMsg,
		"completed_at":  &now,
	}
	if err := r.db.WithContext(ctx).Model(&models.Run{}).Where("id = ?", runID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return nil
}
