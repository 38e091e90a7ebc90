package repository

import (
	"context"

	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"gorm.io/gorm"
)

type DriverRepository interface {
	Create(ctx context.Context, driver *model.Driver) error
	FindAll(ctx context.Context) ([]model.Driver, error)
	FindByID(ctx context.Context, id uint) (*model.Driver, error)
}

type driverRepository struct {
	db *gorm.DB
}

func NewDriverRepository(db *gorm.DB) DriverRepository {
	return &driverRepository{db: db}
}

func (r *driverRepository) Create(ctx context.Context, driver *model.Driver) error {
	if err := r.db.WithContext(ctx).Create(driver).Error; err != nil {
		logger.Error("Failed to create driver in database", err, map[string]interface{}{
			"user_id": driver.UserID,
		})
		return err
	}
	return nil
}

// FindAll returns every driver with its user profile, newest first.
func (r *driverRepository) FindAll(ctx context.Context) ([]model.Driver, error) {
	var drivers []model.Driver
	if err := r.db.WithContext(ctx).
		Joins("User").
		Order("drivers.created_at DESC").
		Order("drivers.id DESC").
		Find(&drivers).Error; err != nil {
		logger.Error("Failed to find drivers in database", err)
		return nil, err
	}
	return drivers, nil
}

func (r *driverRepository) FindByID(ctx context.Context, id uint) (*model.Driver, error) {
	var driver model.Driver
	if err := r.db.WithContext(ctx).
		Joins("User").
		Where("drivers.id = ?", id).
		First(&driver).Error; err != nil {
		return nil, err
	}
	return &driver, nil
}
