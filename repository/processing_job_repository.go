package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gallerypix/pipelinebackend/models"
)

// GormProcessingJobRepository implements ProcessingJobRepositoryInterface
// using GORM
type GormProcessingJobRepository struct {
	DB *gorm.DB
}

// NewGormProcessingJobRepository creates a new instance of
// GormProcessingJobRepository
func NewGormProcessingJobRepository(db *gorm.DB) *GormProcessingJobRepository {
	return &GormProcessingJobRepository{DB: db}
}

func (r *GormProcessingJobRepository) Create(job *models.ProcessingJob) error {
	if err := r.DB.Create(job).Error; err != nil {
		return fmt.Errorf("failed to create processing job: %w", err)
	}
	return nil
}

func (r *GormProcessingJobRepository) GetByID(id string) (*models.ProcessingJob, error) {
	var job models.ProcessingJob
	err := r.DB.First(&job, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get processing job %s: %w", id, err)
	}
	return &job, nil
}

func (r *GormProcessingJobRepository) SetPhase(id string, phase string, processed int) error {
	updates := map[string]interface{}{
		"current_phase":    phase,
		"processed_images": processed,
		"status":           models.ProcessingStatusProcessing,
	}
	err := r.DB.Model(&models.ProcessingJob{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to set phase for processing job %s: %w", id, err)
	}
	return nil
}

func (r *GormProcessingJobRepository) MarkCompleted(id string) error {
	now := time.Now().Unix()
	updates := map[string]interface{}{
		"status":       models.ProcessingStatusCompleted,
		"completed_at": now,
	}
	err := r.DB.Model(&models.ProcessingJob{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to mark processing job %s completed: %w", id, err)
	}
	return nil
}

func (r *GormProcessingJobRepository) MarkFailed(id string, errLog string) error {
	now := time.Now().Unix()
	updates := map[string]interface{}{
		"status":       models.ProcessingStatusFailed,
		"error_log":    errLog,
		"completed_at": now,
	}
	err := r.DB.Model(&models.ProcessingJob{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to mark processing job %s failed: %w", id, err)
	}
	return nil
}
