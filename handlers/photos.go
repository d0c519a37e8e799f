package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gallerypix/pipelinebackend/repository"
)

// PhotoHandler exposes read access to gallery photos.
type PhotoHandler struct {
	Photos repository.PhotoRepositoryInterface
}

// ListGalleryPhotos lists a gallery's photos. Query parameters are passed
// through as operator-prefixed filters (eq. / neq. / in. / is.null /
// is.notnull), e.g. ?status=eq.edited&scene_type=in.portrait,group.
func (h *PhotoHandler) ListGalleryPhotos(w http.ResponseWriter, r *http.Request) {
	galleryID := chi.URLParam(r, "gallery_id")
	if galleryID == "" {
		WriteAPIError(w, http.StatusBadRequest, "missing_gallery_id", "gallery_id is required")
		return
	}

	filters := map[string]string{}
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			filters[key] = values[0]
		}
	}
	filters["gallery_id"] = "eq." + galleryID

	photos, err := h.Photos.ListByFilter(filters)
	if err != nil {
		log.Printf("handlers: failed to list photos for gallery %s: %v", galleryID, err)
		WriteAPIError(w, http.StatusBadRequest, "invalid_filter", "Failed to list photos: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, photos)
}
