package repository

import (
	"context"

	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"gorm.io/gorm"
)

type VehicleRepository interface {
	Create(ctx context.Context, vehicle *model.Vehicle) error
	FindAll(ctx context.Context) ([]model.Vehicle, error)
	FindByID(ctx context.Context, id uint) (*model.Vehicle, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	if err := r.db.WithContext(ctx).Create(vehicle).Error; err != nil {
		logger.Error("Failed to create vehicle in database", err, map[string]interface{}{
			"registration_number": vehicle.RegistrationNumber,
		})
		return err
	}
	return nil
}

func (r *vehicleRepository) FindAll(ctx context.Context) ([]model.Vehicle, error) {
	var vehicles []model.Vehicle
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&vehicles).Error; err != nil {
		logger.Error("Failed to find vehicles in database", err)
		return nil, err
	}
	return vehicles, nil
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uint) (*model.Vehicle, error) {
	var vehicle model.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}
