package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gallerypix/pipelinebackend/models"
	"github.com/gallerypix/pipelinebackend/pipeline"
	"github.com/gallerypix/pipelinebackend/repository"
)

// ProcessHandler exposes the processing pipeline over HTTP: one endpoint to
// queue a gallery and one to poll job progress.
type ProcessHandler struct {
	Galleries      repository.GalleryRepositoryInterface
	Photos         repository.PhotoRepositoryInterface
	ProcessingJobs repository.ProcessingJobRepositoryInterface
	Runner         *pipeline.Runner
}

type startProcessingRequest struct {
	GalleryID      string  `json:"gallery_id"`
	StyleProfileID *string `json:"style_profile_id,omitempty"`
}

// StartProcessing creates a queued processing job for a gallery and hands it
// to the runner. Preflight validation beyond existence checks happens inside
// the pipeline itself so failures are recorded on the job.
func (h *ProcessHandler) StartProcessing(w http.ResponseWriter, r *http.Request) {
	var req startProcessingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_body", "Invalid request body: "+err.Error())
		return
	}
	if req.GalleryID == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_gallery_id", "gallery_id is required")
		return
	}

	gallery, err := h.Galleries.GetByID(req.GalleryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "gallery_not_found", "Gallery not found")
			return
		}
		log.Printf("handlers: failed to load gallery %s: %v", req.GalleryID, err)
		WriteAPIError(w, http.StatusInternalServerError, "gallery_load_failed", "Failed to load gallery")
		return
	}

	photos, err := h.Photos.ListByGalleryID(gallery.ID, false)
	if err != nil {
		log.Printf("handlers: failed to count photos for gallery %s: %v", gallery.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "photo_count_failed", "Failed to count gallery photos")
		return
	}

	now := time.Now().Unix()
	job := &models.ProcessingJob{
		ID:             uuid.NewString(),
		GalleryID:      gallery.ID,
		PhotographerID: gallery.PhotographerID,
		StyleProfileID: req.StyleProfileID,
		TotalImages:    len(photos),
		CurrentPhase:   models.PhaseQueued,
		Status:         models.ProcessingStatusQueued,
		StartedAt:      &now,
	}

	if err := h.ProcessingJobs.Create(job); err != nil {
		log.Printf("handlers: failed to create processing job for gallery %s: %v", gallery.ID, err)
		WriteAPIError(w, http.StatusInternalServerError, "job_create_failed", "Failed to create processing job")
		return
	}

	if !h.Runner.Enqueue(pipeline.RunRequest{JobID: job.ID, GalleryID: gallery.ID}) {
		WriteAPIError(w, http.StatusConflict, "already_queued", "Gallery already has a pending processing run")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"job_id":       job.ID,
		"gallery_id":   gallery.ID,
		"status":       job.Status,
		"total_images": job.TotalImages,
	})
}

// GetStatus reports the current phase and progress of a processing job.
func (h *ProcessHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_job_id", "job_id is required")
		return
	}

	job, err := h.ProcessingJobs.GetByID(jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "job_not_found", "Processing job not found")
			return
		}
		log.Printf("handlers: failed to load processing job %s: %v", jobID, err)
		WriteAPIError(w, http.StatusInternalServerError, "job_load_failed", "Failed to load processing job")
		return
	}

	progress := 0.0
	if job.TotalImages > 0 {
		progress = math.Round(float64(job.ProcessedImages)/float64(job.TotalImages)*1000) / 10
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":           job.ID,
		"gallery_id":       job.GalleryID,
		"status":           job.Status,
		"current_phase":    job.CurrentPhase,
		"processed_images": job.ProcessedImages,
		"total_images":     job.TotalImages,
		"progress_pct":     progress,
		"error_log":        job.ErrorLog,
		"started_at":       job.StartedAt,
		"completed_at":     job.CompletedAt,
	})
}
