package controllers

import (
	"errors"
	"net/http"

	"blognest/app/media"

	"github.com/rs/zerolog"
)

// uploadOverhead bounds the request body beyond the image itself, covering
// multipart framing and other form fields.
const uploadOverhead = 1 << 20

// UploadController stores images sent as multipart form field "image".
type UploadController struct {
	store media.Store
	log   zerolog.Logger
}

// NewUploadController creates a new UploadController. A nil store makes
// every upload fail with 503.
func NewUploadController(store media.Store, log zerolog.Logger) *UploadController {
	return &UploadController{store: store, log: log}
}

// Upload handles a single image upload
func (uc *UploadController) Upload(w http.ResponseWriter, r *http.Request) {
	if uc.store == nil {
		sendError(w, "Uploads are not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, media.MaxUploadSize+uploadOverhead)
	file, header, err := r.FormFile("image")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			sendError(w, media.ErrTooLarge.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "No image provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	obj, err := uc.store.Upload(r.Context(), header.Filename, file)
	switch {
	case errors.Is(err, media.ErrTooLarge):
		sendError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, media.ErrUnsupportedType), errors.Is(err, media.ErrEmpty):
		sendError(w, err.Error(), http.StatusBadRequest)
	case err != nil:
		uc.log.Error().Err(err).Msg("upload failed")
		sendError(w, "Failed to store upload", http.StatusBadGateway)
	default:
		sendJSON(w, http.StatusCreated, obj)
	}
}
