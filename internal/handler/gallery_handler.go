package handler

import (
	"artgen-go/internal/repository"
	"artgen-go/internal/service"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// GalleryHandler lists stored artifacts.
type GalleryHandler struct {
	galleryService *service.GalleryService
}

// NewGalleryHandler creates a GalleryHandler.
func NewGalleryHandler(galleryService *service.GalleryService) *GalleryHandler {
	return &GalleryHandler{galleryService: galleryService}
}

// ListImages returns artifacts newest first
// @Summary List images
// @Tags images
// @Produce json
// @Param userId query int false "owner filter"
// @Param limit query int false "page size"
// @Param offset query int false "offset"
// @Success 200 {object} utils.PaginationResponse{data=[]models.Artifact}
// @Router /api/images [get]
func (h *GalleryHandler) ListImages(c *gin.Context) {
	userID, err := queryUint(c, "userId")
	if err != nil {
		utils.AppError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", repository.DefaultListLimit)
	if err != nil {
		utils.AppError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		utils.AppError(c, err)
		return
	}

	artifacts, total, err := h.galleryService.ListArtifacts(c.Request.Context(), userID, limit, offset)
	if err != nil {
		utils.AppError(c, err)
		return
	}

	utils.PaginatedResponse(c, artifacts, total, limit, offset)
}

// GetImage returns one artifact
// @Summary Get image
// @Tags images
// @Produce json
// @Param id path int true "artifact id"
// @Success 200 {object} utils.Response{data=models.Artifact}
// @Router /api/images/{id} [get]
func (h *GalleryHandler) GetImage(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		utils.AppError(c, err)
		return
	}

	artifact, err := h.galleryService.GetArtifact(c.Request.Context(), id)
	if err != nil {
		utils.AppError(c, err)
		return
	}

	utils.SuccessResponse(c, artifact)
}
