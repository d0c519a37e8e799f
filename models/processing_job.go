package models

// Processing job statuses
const (
	ProcessingStatusQueued     = "queued"
	ProcessingStatusProcessing = "processing"
	ProcessingStatusCompleted  = "completed"
	ProcessingStatusFailed     = "failed"
)

// Pipeline phases, in execution order. PhaseQueued and PhaseComplete are the
// pre-run and post-run markers.
const (
	PhaseQueued      = "queued"
	PhaseAnalysis    = "analysis"
	PhaseStyle       = "style"
	PhaseRetouch     = "retouch"
	PhaseCleanup     = "cleanup"
	PhaseComposition = "composition"
	PhaseOutput      = "output"
	PhaseComplete    = "complete"
)

// ProcessingJob tracks one pipeline run over a gallery. It is the only
// externally observable progress signal; pollers read current_phase,
// processed_images and total_images.
type ProcessingJob struct {
	ID             string  `gorm:"primaryKey" json:"id"`
	GalleryID      string  `gorm:"index;not null" json:"gallery_id"`
	PhotographerID string  `json:"photographer_id"`
	StyleProfileID *string `json:"style_profile_id,omitempty"`

	TotalImages     int    `gorm:"not null;default:0" json:"total_images"`
	ProcessedImages int    `gorm:"not null;default:0" json:"processed_images"`
	CurrentPhase    string `gorm:"not null;default:queued" json:"current_phase"`
	Status          string `gorm:"not null;default:queued" json:"status"`

	ErrorLog    *string `json:"error_log,omitempty"`
	StartedAt   *int64  `json:"started_at,omitempty"`
	CompletedAt *int64  `json:"completed_at,omitempty"`
}

func (ProcessingJob) TableName() string {
	return "processing_jobs"
}
