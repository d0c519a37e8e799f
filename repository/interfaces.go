package repository

import (
	"github.com/gallerypix/pipelinebackend/models"
)

// GalleryRepositoryInterface defines the methods for gallery data operations
type GalleryRepositoryInterface interface {
	GetByID(id string) (*models.Gallery, error)
	UpdateStatusByID(id string, status string) error
}

// PhotoRepositoryInterface defines the methods for photo data operations.
// Updates are split by intent rather than taking an id-or-filter argument;
// ListByFilter covers the operator-prefixed filter convention.
type PhotoRepositoryInterface interface {
	GetByID(id string) (*models.Photo, error)
	ListByGalleryID(galleryID string, includeCulled bool) ([]models.Photo, error)
	ListByFilter(filters map[string]string) ([]models.Photo, error)
	UpdateAnalysisByID(id string, sceneType string, score float64, details *models.QualityDetails, faces models.FaceList, exif models.ExifMap, width, height int) error
	UpdateEditedKeyByID(id string, editedKey string, edits models.AIEdits) error
	UpdateAIEditsByID(id string, edits models.AIEdits) error
	FinalizeOutputByID(id string, editedKey, webKey, thumbKey string, width, height int, confidence float64, edits models.AIEdits) error
}

// JobRepositoryInterface defines the methods for shooting-job data operations
type JobRepositoryInterface interface {
	UpdateStatusByID(id string, status string) error
}

// ProcessingJobRepositoryInterface defines the methods for processing-job
// data operations. SetPhase also forces status to processing; the two
// terminal operations stamp completed_at.
type ProcessingJobRepositoryInterface interface {
	Create(job *models.ProcessingJob) error
	GetByID(id string) (*models.ProcessingJob, error)
	SetPhase(id string, phase string, processed int) error
	MarkCompleted(id string) error
	MarkFailed(id string, errLog string) error
}

// StyleProfileRepositoryInterface defines read access to style profiles;
// the pipeline never mutates them.
type StyleProfileRepositoryInterface interface {
	GetByID(id string) (*models.StyleProfile, error)
}
