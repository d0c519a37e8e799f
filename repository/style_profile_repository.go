package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gallerypix/pipelinebackend/models"
)

// GormStyleProfileRepository implements StyleProfileRepositoryInterface
// using GORM
type GormStyleProfileRepository struct {
	DB *gorm.DB
}

// NewGormStyleProfileRepository creates a new instance of
// GormStyleProfileRepository
func NewGormStyleProfileRepository(db *gorm.DB) *GormStyleProfileRepository {
	return &GormStyleProfileRepository{DB: db}
}

func (r *GormStyleProfileRepository) GetByID(id string) (*models.StyleProfile, error) {
	var profile models.StyleProfile
	err := r.DB.First(&profile, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get style profile %s: %w", id, err)
	}
	return &profile, nil
}
