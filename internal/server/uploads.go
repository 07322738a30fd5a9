package server

import (
	"errors"
	"net/http"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/metrics"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/uploads"
	"github.com/gin-gonic/gin"
)

const (
	singleUploadField = "image"
	multiUploadField  = "images"
)

type uploadPayload struct {
	URL          string `json:"url"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalName"`
	Size         int64  `json:"size"`
}

type multiUploadPayload struct {
	Files []uploadPayload `json:"files"`
}

func newUploadPayload(file uploads.StoredFile) uploadPayload {
	return uploadPayload{
		URL:          file.URL,
		Filename:     file.Filename,
		OriginalName: file.OriginalName,
		Size:         file.Size,
	}
}

func (h *httpHandler) uploadImage(c *gin.Context) {
	header, err := c.FormFile(singleUploadField)
	if err != nil {
		h.respondError(c, apperr.Validation("uploads.save", "missing_file", "an image file is required in field \"image\"", err))
		return
	}
	stored, err := h.uploads.Save(c.Request.Context(), header)
	if err != nil {
		countUploads(err, 1)
		h.respondError(c, err)
		return
	}
	countUploads(nil, 1)
	c.JSON(http.StatusOK, newUploadPayload(stored))
}

func (h *httpHandler) uploadImages(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.respondError(c, apperr.Validation("uploads.save_all", "invalid_form", "request must be multipart/form-data", err))
		return
	}
	headers := form.File[multiUploadField]
	stored, err := h.uploads.SaveAll(c.Request.Context(), headers)
	if err != nil {
		countUploads(err, len(headers))
		h.respondError(c, err)
		return
	}
	countUploads(nil, len(stored))

	payload := multiUploadPayload{Files: make([]uploadPayload, len(stored))}
	for i, file := range stored {
		payload.Files[i] = newUploadPayload(file)
	}
	c.JSON(http.StatusOK, payload)
}

func countUploads(err error, files int) {
	result := "stored"
	switch {
	case err == nil:
	case errors.Is(err, apperr.StorageKind):
		result = "failed"
	default:
		result = "rejected"
	}
	metrics.Uploads.WithLabelValues(result).Add(float64(files))
}
