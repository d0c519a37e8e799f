package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gallerypix/pipelinebackend/models"
)

// GormJobRepository implements JobRepositoryInterface using GORM
type GormJobRepository struct {
	DB *gorm.DB
}

// NewGormJobRepository creates a new instance of GormJobRepository
func NewGormJobRepository(db *gorm.DB) *GormJobRepository {
	return &GormJobRepository{DB: db}
}

func (r *GormJobRepository) UpdateStatusByID(id string, status string) error {
	err := r.DB.Model(&models.Job{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update job %s status: %w", id, err)
	}
	return nil
}
