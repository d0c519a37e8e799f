package models

// Gallery statuses
const (
	GalleryStatusProcessing = "processing"
	GalleryStatusReady      = "ready"
)

// Gallery is a named collection of photos from one shoot, the unit of
// pipeline execution. It corresponds to the 'galleries' table.
type Gallery struct {
	ID             string  `gorm:"primaryKey" json:"id"`
	Name           string  `json:"name"`
	PhotographerID string  `gorm:"index" json:"photographer_id"`
	JobID          *string `gorm:"index" json:"job_id,omitempty"`
	Status         string  `gorm:"not null;default:processing" json:"status"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Gallery) TableName() string {
	return "galleries"
}
