package models

// Shooting job statuses touched by the pipeline.
const (
	JobStatusEditing        = "editing"
	JobStatusReadyForReview = "ready_for_review"
)

// Job is the shooting job a gallery belongs to (distinct from ProcessingJob,
// which tracks a single pipeline run).
type Job struct {
	ID             string `gorm:"primaryKey" json:"id"`
	PhotographerID string `gorm:"index" json:"photographer_id"`
	Status         string `gorm:"not null" json:"status"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Job) TableName() string {
	return "jobs"
}
