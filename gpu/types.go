package gpu

import "github.com/gallerypix/pipelinebackend/models"

// HealthStatus is the compute service's health probe response.
type HealthStatus struct {
	Status      string `json:"status"`
	GPUName     string `json:"gpu_name,omitempty"`
	QueueDepth  int    `json:"queue_depth,omitempty"`
	ModelLoaded bool   `json:"model_loaded,omitempty"`
}

// Nominal reports whether the service is healthy enough to accept work.
func (h HealthStatus) Nominal() bool {
	return h.Status == "ok"
}

// StyleBatchItem names one input image and where its styled output goes.
type StyleBatchItem struct {
	ImageKey  string `json:"image_key"`
	OutputKey string `json:"output_key"`
}

type StyleBatchRequest struct {
	ProfileKey  string           `json:"profile_key,omitempty"`
	Items       []StyleBatchItem `json:"items"`
	JpegQuality int              `json:"jpeg_quality"`
}

type StyleBatchResponse struct {
	Processed int      `json:"processed"`
	Failed    []string `json:"failed,omitempty"`
}

type FaceRetouchRequest struct {
	ImageKey  string          `json:"image_key"`
	OutputKey string          `json:"output_key"`
	Fidelity  float64         `json:"fidelity"`
	FaceData  models.FaceList `json:"face_data"`
}

type FaceRetouchResponse struct {
	FacesFound int `json:"faces_found"`
}

type SceneCleanupRequest struct {
	ImageKey   string   `json:"image_key"`
	OutputKey  string   `json:"output_key"`
	Detections []string `json:"detections"`
}

type SceneCleanupResponse struct {
	DetectionsFound int     `json:"detections_found"`
	MaskCoveragePct float64 `json:"mask_coverage_pct"`
}

// ComputeClient is the GPU service surface the pipeline depends on.
// Implementations must be safe for sequential reuse across a whole run.
type ComputeClient interface {
	Health() (HealthStatus, error)
	StyleBatch(req StyleBatchRequest) (*StyleBatchResponse, error)
	FaceRetouch(req FaceRetouchRequest) (*FaceRetouchResponse, error)
	SceneCleanup(req SceneCleanupRequest) (*SceneCleanupResponse, error)
	IsConfigured() bool
	Close()
}
