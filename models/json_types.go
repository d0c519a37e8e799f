package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dest)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dest)
	default:
		return fmt.Errorf("unsupported type %T for JSON column", value)
	}
}

// FaceBox is a detected face bounding box in original-image coordinates.
// BBox is [x, y, w, h].
type FaceBox struct {
	BBox     [4]int `json:"bbox"`
	EyesOpen bool   `json:"eyes_open"`
}

// FaceList is stored as a JSON text column.
type FaceList []FaceBox

func (f FaceList) Value() (driver.Value, error) {
	if f == nil {
		return nil, nil
	}
	b, err := json.Marshal(f)
	return string(b), err
}

func (f *FaceList) Scan(value interface{}) error {
	return scanJSON(value, f)
}

// ExifMap holds the serialisable EXIF fields kept for a photo.
type ExifMap map[string]interface{}

func (e ExifMap) Value() (driver.Value, error) {
	if e == nil {
		return nil, nil
	}
	b, err := json.Marshal(e)
	return string(b), err
}

func (e *ExifMap) Scan(value interface{}) error {
	return scanJSON(value, e)
}

// QualityDetails carries the per-dimension quality sub-scores (0-100 each).
type QualityDetails struct {
	Overall     float64 `json:"overall"`
	Exposure    float64 `json:"exposure"`
	Sharpness   float64 `json:"sharpness"`
	Noise       float64 `json:"noise"`
	Composition float64 `json:"composition"`
}

func (q QualityDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(q)
	return string(b), err
}

func (q *QualityDetails) Scan(value interface{}) error {
	return scanJSON(value, q)
}

// FaceRetouchEdit records the face-retouch phase's contribution.
type FaceRetouchEdit struct {
	Faces    int     `json:"faces"`
	Fidelity float64 `json:"fidelity"`
}

// SceneCleanupEdit records the scene-cleanup phase's contribution.
type SceneCleanupEdit struct {
	Detections  int     `json:"detections"`
	CoveragePct float64 `json:"coverage_pct"`
}

// CompositionEdit records whether composition was evaluated and what, if
// anything, it changed. Evaluated=true with Changes=false is a meaningful
// audit state distinct from the phase never having run.
type CompositionEdit struct {
	Evaluated        bool    `json:"evaluated"`
	Changes          bool    `json:"changes"`
	HorizonCorrected bool    `json:"horizon_corrected,omitempty"`
	HorizonAngle     float64 `json:"horizon_angle,omitempty"`
	CropApplied      bool    `json:"crop_applied,omitempty"`
	CropRect         []int   `json:"crop_rect,omitempty"`
}

// AIEdits is the structured per-photo edit record accumulated across phases.
// Each phase owns exactly one field and merges by field-level update; the
// record as a whole is written back after every contribution.
type AIEdits struct {
	StyleApplied    string            `json:"style_applied,omitempty"`
	HasPreset       bool              `json:"has_preset,omitempty"`
	FaceRetouch     *FaceRetouchEdit  `json:"face_retouch,omitempty"`
	SceneCleanup    *SceneCleanupEdit `json:"scene_cleanup,omitempty"`
	Composition     *CompositionEdit  `json:"composition,omitempty"`
	PipelineVersion string            `json:"pipeline_version,omitempty"`
}

func (a AIEdits) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	return string(b), err
}

func (a *AIEdits) Scan(value interface{}) error {
	return scanJSON(value, a)
}
