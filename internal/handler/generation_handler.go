package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"artgen-go/internal/apperr"
	"artgen-go/internal/dto"
	"artgen-go/internal/middleware"
	"artgen-go/internal/provider"
	"artgen-go/internal/service"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
)

// GenerationHandler exposes the five generation operations.
type GenerationHandler struct {
	generationService *service.GenerationService
	maxUploadBytes    int64
}

// NewGenerationHandler creates a GenerationHandler. maxUploadBytes <= 0 disables the size check.
func NewGenerationHandler(generationService *service.GenerationService, maxUploadBytes int64) *GenerationHandler {
	return &GenerationHandler{
		generationService: generationService,
		maxUploadBytes:    maxUploadBytes,
	}
}

// TextToImage generates an image from a prompt
// @Summary Text to image
// @Tags images
// @Accept json
// @Produce json
// @Param request body dto.TextToImageRequest true "prompt and model"
// @Success 200 {object} dto.GenerationResult
// @Router /api/images/text-to-image [post]
func (h *GenerationHandler) TextToImage(c *gin.Context) {
	var req dto.TextToImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, nil, apperr.Validation("invalid request body: %v", err))
		return
	}

	h.generate(c, service.GenerationRequest{
		Kind:     provider.KindTextToImage,
		Prompt:   req.Prompt,
		ModelKey: req.Model,
		Width:    req.Width,
		Height:   req.Height,
	})
}

// ImageToImage transforms an uploaded image
// @Summary Image to image
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "source image"
// @Param prompt formData string true "prompt"
// @Param model formData string true "model key"
// @Param strength formData number false "strength in (0, 1]"
// @Success 200 {object} dto.GenerationResult
// @Router /api/images/image-to-image [post]
func (h *GenerationHandler) ImageToImage(c *gin.Context) {
	image, err := h.formImage(c, "image")
	if err != nil {
		h.respond(c, nil, err)
		return
	}

	strength, err := formFloat(c, "strength")
	if err != nil {
		h.respond(c, nil, err)
		return
	}

	h.generate(c, service.GenerationRequest{
		Kind:     provider.KindImageToImage,
		Prompt:   c.PostForm("prompt"),
		ModelKey: c.PostForm("model"),
		Image:    image,
		Strength: strength,
	})
}

// FaceCloning renders the uploaded face in a new scene
// @Summary Face cloning
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param face formData file true "portrait"
// @Param prompt formData string true "prompt"
// @Param model formData string true "model key"
// @Success 200 {object} dto.GenerationResult
// @Router /api/images/face-cloning [post]
func (h *GenerationHandler) FaceCloning(c *gin.Context) {
	face, err := h.formImage(c, "face")
	if err != nil {
		h.respond(c, nil, err)
		return
	}

	h.generate(c, service.GenerationRequest{
		Kind:     provider.KindFaceCloning,
		Prompt:   c.PostForm("prompt"),
		ModelKey: c.PostForm("model"),
		Image:    face,
	})
}

// EditFace applies facial adjustments
// @Summary Edit face
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "portrait"
// @Param adjustments formData string true "JSON object of feature to intensity"
// @Success 200 {object} dto.GenerationResult
// @Router /api/images/edit-face [post]
func (h *GenerationHandler) EditFace(c *gin.Context) {
	image, err := h.formImage(c, "image")
	if err != nil {
		h.respond(c, nil, err)
		return
	}

	adjustments, err := utils.ParseAdjustments(c.PostForm("adjustments"))
	if err != nil {
		h.respond(c, nil, err)
		return
	}

	h.generate(c, service.GenerationRequest{
		Kind:        provider.KindEditFace,
		ModelKey:    c.PostForm("model"),
		Image:       image,
		Adjustments: adjustments,
	})
}

// EditObjects edits objects in an uploaded image
// @Summary Edit objects
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "source image"
// @Param prompt formData string true "requested change"
// @Success 200 {object} dto.GenerationResult
// @Router /api/images/edit-objects [post]
func (h *GenerationHandler) EditObjects(c *gin.Context) {
	image, err := h.formImage(c, "image")
	if err != nil {
		h.respond(c, nil, err)
		return
	}

	h.generate(c, service.GenerationRequest{
		Kind:     provider.KindEditObjects,
		Prompt:   c.PostForm("prompt"),
		ModelKey: c.PostForm("model"),
		Image:    image,
	})
}

func (h *GenerationHandler) generate(c *gin.Context, req service.GenerationRequest) {
	result, err := h.generationService.Generate(c.Request.Context(), req, middleware.CallerID(c))
	h.respond(c, result, err)
}

func (h *GenerationHandler) respond(c *gin.Context, result *service.GenerationResult, err error) {
	if err != nil {
		if !apperr.IsTyped(err) {
			_ = c.Error(err)
		}
		failed := dto.GenerationFailed(err)
		c.JSON(utils.StatusForKind(apperr.Kind(failed.Error.Kind)), failed)
		return
	}
	c.JSON(http.StatusOK, dto.GenerationSucceeded(result.ImageURL, result.Artifact))
}

func (h *GenerationHandler) formImage(c *gin.Context, field string) (*provider.Image, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, apperr.Validation("%s file is required", field)
		}
		return nil, apperr.Validation("invalid %s upload: %v", field, err)
	}

	data, mimeType, err := utils.ReadImageFile(fh, h.maxUploadBytes)
	if err != nil {
		return nil, err
	}
	return &provider.Image{Data: data, MimeType: mimeType}, nil
}

func formFloat(c *gin.Context, field string) (float64, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperr.Validation("%s must be a number", field)
	}
	return v, nil
}
