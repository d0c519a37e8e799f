package models

// Photo statuses
const (
	PhotoStatusUploaded = "uploaded"
	PhotoStatusEdited   = "edited"
)

// Photo represents a single photograph in a gallery.
// It corresponds to the 'photos' table.
type Photo struct {
	ID        string `gorm:"primaryKey" json:"id"`
	GalleryID string `gorm:"index;not null" json:"gallery_id"`
	Filename  string `gorm:"not null" json:"filename"`

	OriginalKey string  `gorm:"not null" json:"original_key"`
	EditedKey   *string `json:"edited_key,omitempty"`
	WebKey      *string `json:"web_key,omitempty"`
	ThumbKey    *string `json:"thumb_key,omitempty"`

	Width  *int `json:"width,omitempty"`
	Height *int `json:"height,omitempty"`

	SceneType      *string         `json:"scene_type,omitempty"`
	QualityScore   *float64        `json:"quality_score,omitempty"`
	QualityDetails *QualityDetails `gorm:"type:text" json:"quality_details,omitempty"`
	FaceData       FaceList        `gorm:"type:text" json:"face_data,omitempty"`
	ExifData       ExifMap         `gorm:"type:text" json:"exif_data,omitempty"`
	AIEdits        AIEdits         `gorm:"column:ai_edits;type:text" json:"ai_edits"`
	EditConfidence *float64        `json:"edit_confidence,omitempty"`

	IsCulled  bool   `gorm:"not null;default:false" json:"is_culled"`
	SortOrder int    `gorm:"not null;default:0" json:"sort_order"`
	Status    string `gorm:"not null;default:uploaded" json:"status"`

	CreatedAt int64 `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64 `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName explicitly sets the table name for GORM.
func (Photo) TableName() string {
	return "photos"
}
