package handler

import (
	"strconv"

	"artgen-go/internal/service"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves style presets and the model catalog.
type CatalogHandler struct {
	catalogService *service.CatalogService
}

// NewCatalogHandler creates a CatalogHandler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListStylePresets returns every style preset
// @Summary List style presets
// @Tags catalog
// @Produce json
// @Success 200 {object} utils.Response{data=[]models.StylePreset}
// @Router /api/style-presets [get]
func (h *CatalogHandler) ListStylePresets(c *gin.Context) {
	presets, err := h.catalogService.ListStylePresets(c.Request.Context())
	if err != nil {
		utils.AppError(c, err)
		return
	}
	utils.SuccessResponse(c, presets)
}

// ListAiModels returns the model catalog
// @Summary List models
// @Tags catalog
// @Produce json
// @Param active query bool false "only active models"
// @Success 200 {object} utils.Response{data=[]models.AiModel}
// @Router /api/ai-models [get]
func (h *CatalogHandler) ListAiModels(c *gin.Context) {
	activeOnly, _ := strconv.ParseBool(c.Query("active"))

	aiModels, err := h.catalogService.ListAiModels(c.Request.Context(), activeOnly)
	if err != nil {
		utils.AppError(c, err)
		return
	}
	utils.SuccessResponse(c, aiModels)
}
