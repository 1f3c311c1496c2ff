package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fleetsim/optimizer/pkg/models"
)

type assignmentRepository struct {
	*BaseRepository[models.Assignment]
	db *gorm.DB
}

// NewAssignmentRepository creates an assignment repository backed by db.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{
		BaseRepository: NewBaseRepository[models.Assignment](db),
		db:             db,
	}
}

// ListByRun returns every assignment a given run produced, in the order they
// were created.
func (r *assignmentRepository) ListByRun(ctx context.Context, runID string) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).
		Order("assigned_at").Find(&assignments).Error; err != nil {
		return nil, fmt.Errorf("failed to list assignments by run: %w", err)
	}
	return assignments, nil
}
