package models

// StyleProfile is a photographer's trained editing style. ModelKey is only
// present once a neural model has been trained; without it the style phase
// is skipped. Read-only input to the pipeline.
type StyleProfile struct {
	ID             string  `gorm:"primaryKey" json:"id"`
	PhotographerID string  `gorm:"index" json:"photographer_id"`
	ModelKey       *string `json:"model_key,omitempty"`
	Status         string  `gorm:"not null;default:untrained" json:"status"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StyleProfile) TableName() string {
	return "style_profiles"
}
