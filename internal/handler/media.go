package handler

import (
	"net/http"

	"github.com/aman-churiwal/media-quota/internal/apperr"
	"github.com/aman-churiwal/media-quota/internal/middleware"
	"github.com/aman-churiwal/media-quota/internal/service"
	"github.com/gin-gonic/gin"
)

type MediaHandler struct {
	service *service.MediaService
}

func NewMediaHandler(service *service.MediaService) *MediaHandler {
	return &MediaHandler{service: service}
}

// Handles GET /api/media
func (h *MediaHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	offset := queryInt(c, "offset", 0)

	assets, err := h.service.List(c.Request.Context(), middleware.SubjectID(c), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, assets)
}

// Handles POST /api/media
func (h *MediaHandler) Upload(c *gin.Context) {
	var req service.UploadInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.InvalidInput("media.upload", "Invalid request body"))
		return
	}

	asset, err := h.service.Upload(c.Request.Context(), middleware.SubjectID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, asset)
}

// Handles DELETE /api/media/:id
func (h *MediaHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), middleware.SubjectID(c), id); err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

// Handles POST /api/media/:id/transformations
func (h *MediaHandler) Transform(c *gin.Context) {
	id := c.Param("id")

	transformations, err := h.service.Transform(c.Request.Context(), middleware.SubjectID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id, "transformations": transformations})
}
