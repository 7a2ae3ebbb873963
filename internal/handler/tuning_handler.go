package handler

import (
	"artgen-go/internal/dto"
	"artgen-go/internal/middleware"
	"artgen-go/internal/service"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// TuningHandler manages model tuning profiles.
type TuningHandler struct {
	tuningService *service.TuningService
}

// NewTuningHandler creates a TuningHandler.
func NewTuningHandler(tuningService *service.TuningService) *TuningHandler {
	return &TuningHandler{tuningService: tuningService}
}

// List returns tuning profiles, optionally for one owner
// @Summary List tunings
// @Tags model-tunings
// @Produce json
// @Param userId query int false "owner filter"
// @Success 200 {object} utils.Response{data=[]dto.TuningResponse}
// @Router /api/model-tunings [get]
func (h *TuningHandler) List(c *gin.Context) {
	userID, err := queryUint(c, "userId")
	if err != nil {
		utils.AppError(c, err)
		return
	}

	tunings, err := h.tuningService.List(c.Request.Context(), userID)
	if err != nil {
		utils.AppError(c, err)
		return
	}
	utils.SuccessResponse(c, tunings)
}

// Create stores a tuning profile owned by the caller
// @Summary Create tuning
// @Tags model-tunings
// @Accept json
// @Produce json
// @Param request body dto.CreateTuningRequest true "tuning"
// @Success 201 {object} utils.Response{data=dto.TuningResponse}
// @Router /api/model-tunings [post]
func (h *TuningHandler) Create(c *gin.Context) {
	var req dto.CreateTuningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	req.UserID = middleware.CallerID(c)

	tuning, err := h.tuningService.Create(c.Request.Context(), &req)
	if err != nil {
		utils.AppError(c, err)
		return
	}
	utils.CreatedResponse(c, tuning)
}

// Get returns one tuning profile
// @Summary Get tuning
// @Tags model-tunings
// @Produce json
// @Param id path int true "tuning id"
// @Success 200 {object} utils.Response{data=dto.TuningResponse}
// @Router /api/model-tunings/{id} [get]
func (h *TuningHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		utils.AppError(c, err)
		return
	}

	tuning, err := h.tuningService.Get(c.Request.Context(), id)
	if err != nil {
		utils.AppError(c, err)
		return
	}
	utils.SuccessResponse(c, tuning)
}

// Update patches a tuning profile
// @Summary Update tuning
// @Tags model-tunings
// @Accept json
// @Produce json
// @Param id path int true "tuning id"
// @Param request body dto.UpdateTuningRequest true "fields to change"
// @Success 200 {object} utils.Response{data=dto.TuningResponse}
// @Router /api/model-tunings/{id} [patch]
func (h *TuningHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		utils.AppError(c, err)
		return
	}

	var req dto.UpdateTuningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}
	// Ownership is not transferable through the API.
	req.UserID = nil

	tuning, err := h.tuningService.Update(c.Request.Context(), id, &req)
	if err != nil {
		utils.AppError(c, err)
		return
	}
	utils.SuccessResponse(c, tuning)
}

// Delete removes a tuning profile
// @Summary Delete tuning
// @Tags model-tunings
// @Produce json
// @Param id path int true "tuning id"
// @Success 200 {object} utils.Response{data=dto.DeleteResponse}
// @Router /api/model-tunings/{id} [delete]
func (h *TuningHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		utils.AppError(c, err)
		return
	}

	deleted, err := h.tuningService.Delete(c.Request.Context(), id)
	if err != nil {
		utils.AppError(c, err)
		return
	}
	if !deleted {
		utils.NotFound(c, "model tuning not found")
		return
	}
	utils.SuccessResponse(c, dto.DeleteResponse{Deleted: true})
}
