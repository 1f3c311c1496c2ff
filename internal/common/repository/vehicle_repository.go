package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fleetsim/optimizer/pkg/models"
)

type vehicleRepository struct {
	*BaseRepository[models.Vehicle]
	db *gorm.DB
}

// NewVehicleRepository creates a vehicle repository backed by db.
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{
		BaseRepository: NewBaseRepository[models.Vehicle](db),
		db:             db,
	}
}

// ListUnplaced returns vehicles with no current location, the set the
// placement engine is responsible for assigning a starting point to.
func (r *vehicleRepository) ListUnplaced(ctx context.Context) ([]*models.Vehicle, error) {
	var vehicles []*models.Vehicle
	if err := r.db.WithContext(ctx).Where("current_location_id IS NULL").
		Order("id").Find(&vehicles).Error; err != nil {
		return nil, fmt.Errorf("failed to list unplaced vehicles: %w", err)
	}
	return vehicles, nil
}

// UpdateLocation sets a vehicle's current location, called after a placement
// or relocation decision is accepted.
func (r *vehicleRepository) UpdateLocation(ctx context.Context, vehicleID int, locationID int) error {
	if err := r.db.WithContext(ctx).Model(&models.Vehicle{}).Where("id = ?", vehicleID).
		Update("current_location_id", locationID).Error; err != nil {
		return fmt.Errorf("failed to update vehicle location: %w", err)
	}
	return nil
}
