package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gallerypix/pipelinebackend/models"
)

// GormGalleryRepository implements GalleryRepositoryInterface using GORM
type GormGalleryRepository struct {
	DB *gorm.DB
}

// NewGormGalleryRepository creates a new instance of GormGalleryRepository
func NewGormGalleryRepository(db *gorm.DB) *GormGalleryRepository {
	return &GormGalleryRepository{DB: db}
}

func (r *GormGalleryRepository) GetByID(id string) (*models.Gallery, error) {
	var gallery models.Gallery
	err := r.DB.First(&gallery, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get gallery %s: %w", id, err)
	}
	return &gallery, nil
}

func (r *GormGalleryRepository) UpdateStatusByID(id string, status string) error {
	err := r.DB.Model(&models.Gallery{}).Where("id = ?", id).Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to update gallery %s status: %w", id, err)
	}
	return nil
}
