package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/gallerypix/pipelinebackend/database"
	"github.com/gallerypix/pipelinebackend/models"
)

// GormPhotoRepository implements PhotoRepositoryInterface using GORM
type GormPhotoRepository struct {
	DB *gorm.DB
}

// NewGormPhotoRepository creates a new instance of GormPhotoRepository
func NewGormPhotoRepository(db *gorm.DB) *GormPhotoRepository {
	return &GormPhotoRepository{DB: db}
}

func (r *GormPhotoRepository) GetByID(id string) (*models.Photo, error) {
	var photo models.Photo
	err := r.DB.First(&photo, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get photo %s: %w", id, err)
	}
	return &photo, nil
}

func (r *GormPhotoRepository) ListByGalleryID(galleryID string, includeCulled bool) ([]models.Photo, error) {
	var photos []models.Photo
	q := r.DB.Where("gallery_id = ?", galleryID)
	if !includeCulled {
		q = q.Where("is_culled = ?", false)
	}
	err := q.Order("sort_order ASC").Find(&photos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photos for gallery %s: %w", galleryID, err)
	}
	return photos, nil
}

// ListByFilter queries photos using the operator-prefixed filter convention
// (see database.BuildFilterSQL).
func (r *GormPhotoRepository) ListByFilter(filters map[string]string) ([]models.Photo, error) {
	whereSQL, args, err := database.BuildFilterSQL(filters)
	if err != nil {
		return nil, err
	}

	var photos []models.Photo
	q := r.DB.Order("sort_order ASC")
	if whereSQL != "" {
		q = q.Where(whereSQL, args...)
	}
	if err := q.Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos by filter: %w", err)
	}
	return photos, nil
}

func (r *GormPhotoRepository) UpdateAnalysisByID(id string, sceneType string, score float64, details *models.QualityDetails, faces models.FaceList, exif models.ExifMap, width, height int) error {
	updates := map[string]interface{}{
		"scene_type":      sceneType,
		"quality_score":   score,
		"quality_details": details,
		"face_data":       faces,
		"exif_data":       exif,
		"width":           width,
		"height":          height,
	}
	err := r.DB.Model(&models.Photo{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update analysis for photo %s: %w", id, err)
	}
	return nil
}

func (r *GormPhotoRepository) UpdateEditedKeyByID(id string, editedKey string, edits models.AIEdits) error {
	updates := map[string]interface{}{
		"edited_key": editedKey,
		"ai_edits":   edits,
	}
	err := r.DB.Model(&models.Photo{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to update edited key for photo %s: %w", id, err)
	}
	return nil
}

func (r *GormPhotoRepository) UpdateAIEditsByID(id string, edits models.AIEdits) error {
	err := r.DB.Model(&models.Photo{}).Where("id = ?", id).Update("ai_edits", edits).Error
	if err != nil {
		return fmt.Errorf("failed to update ai_edits for photo %s: %w", id, err)
	}
	return nil
}

func (r *GormPhotoRepository) FinalizeOutputByID(id string, editedKey, webKey, thumbKey string, width, height int, confidence float64, edits models.AIEdits) error {
	updates := map[string]interface{}{
		"edited_key":      editedKey,
		"web_key":         webKey,
		"thumb_key":       thumbKey,
		"width":           width,
		"height":          height,
		"status":          models.PhotoStatusEdited,
		"edit_confidence": confidence,
		"ai_edits":        edits,
	}
	err := r.DB.Model(&models.Photo{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		return fmt.Errorf("failed to finalize output for photo %s: %w", id, err)
	}
	return nil
}
