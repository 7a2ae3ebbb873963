package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"artgen-go/internal/apperr"
	"artgen-go/internal/models"
	"artgen-go/internal/provider"
	"artgen-go/internal/repository"

	"github.com/sirupsen/logrus"
)

// ImageGateway is the provider surface the orchestrator depends on.
type ImageGateway interface {
	TextToImage(ctx context.Context, prompt, modelKey string, width, height int) (string, error)
	ImageToImage(ctx context.Context, image provider.Image, prompt, modelKey string, strength float64) (string, error)
	FaceCloning(ctx context.Context, face provider.Image, prompt, modelKey string) (string, error)
	EditFace(ctx context.Context, image provider.Image, adjustments map[string]float64, modelKey string) (string, error)
	EditObjects(ctx context.Context, image provider.Image, prompt, modelKey string) (string, error)
}

var _ ImageGateway = (*provider.Gateway)(nil)

// GenerationRequest describes one generation call of any kind.
type GenerationRequest struct {
	Kind        provider.Kind
	Prompt      string
	ModelKey    string
	Width       int
	Height      int
	Image       *provider.Image
	Strength    float64
	Adjustments map[string]float64
}

// GenerationResult is the outcome of a successful generation. Artifact is nil
// when nothing was persisted.
type GenerationResult struct {
	ImageURL string
	Artifact *models.Artifact
}

// GenerationService resolves the model, calls the gateway and records artifacts.
type GenerationService struct {
	store   repository.Store
	gateway ImageGateway
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(store repository.Store, gateway ImageGateway) *GenerationService {
	return &GenerationService{
		store:   store,
		gateway: gateway,
	}
}

// Generate runs one request. The artifact is stored only for a known caller;
// provider failures are returned unchanged and leave the store untouched.
func (s *GenerationService) Generate(ctx context.Context, req GenerationRequest, callerUserID *uint) (*GenerationResult, error) {
	if !req.Kind.Valid() {
		return nil, apperr.Validation("unsupported operation %q", req.Kind)
	}

	model, err := s.resolveModel(ctx, req)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.call(ctx, req, model.Key)
	if err != nil {
		return nil, err
	}

	result := &GenerationResult{ImageURL: imageURL}
	if callerUserID == nil {
		return result, nil
	}

	artifact := buildArtifact(req, model.Key, imageURL)
	artifact.UserID = callerUserID
	if err := s.store.CreateArtifact(ctx, artifact); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"artifact_id": artifact.ID,
		"user_id":     *callerUserID,
		"operation":   req.Kind,
	}).Info("artifact stored")

	result.Artifact = artifact
	return result, nil
}

func (s *GenerationService) resolveModel(ctx context.Context, req GenerationRequest) (*models.AiModel, error) {
	key := strings.TrimSpace(req.ModelKey)
	if key == "" {
		if req.Kind != provider.KindEditFace && req.Kind != provider.KindEditObjects {
			return nil, apperr.Validation("model is required")
		}
		key = DefaultModelKey
	}

	model, err := s.store.GetAiModelByKey(ctx, key)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, apperr.Validation("unknown model %q", key)
		}
		return nil, err
	}
	if !model.IsActive {
		return nil, apperr.Validation("model %q is not active", key)
	}
	return model, nil
}

func (s *GenerationService) call(ctx context.Context, req GenerationRequest, modelKey string) (string, error) {
	var image provider.Image
	if req.Image != nil {
		image = *req.Image
	}

	switch req.Kind {
	case provider.KindTextToImage:
		return s.gateway.TextToImage(ctx, req.Prompt, modelKey, req.Width, req.Height)
	case provider.KindImageToImage:
		return s.gateway.ImageToImage(ctx, image, req.Prompt, modelKey, req.Strength)
	case provider.KindFaceCloning:
		return s.gateway.FaceCloning(ctx, image, req.Prompt, modelKey)
	case provider.KindEditFace:
		return s.gateway.EditFace(ctx, image, req.Adjustments, modelKey)
	case provider.KindEditObjects:
		return s.gateway.EditObjects(ctx, image, req.Prompt, modelKey)
	default:
		return "", apperr.Validation("unsupported operation %q", req.Kind)
	}
}

func buildArtifact(req GenerationRequest, modelKey, imageURL string) *models.Artifact {
	prompt := strings.TrimSpace(req.Prompt)
	artifact := &models.Artifact{
		Title:    provider.Truncate(prompt, 50),
		Prompt:   prompt,
		ImageURL: imageURL,
		Width:    provider.DefaultDimension,
		Height:   provider.DefaultDimension,
		Model:    modelKey,
		Metadata: models.JSONMap{"operation": string(req.Kind)},
	}

	switch req.Kind {
	case provider.KindTextToImage:
		if req.Width > 0 {
			artifact.Width = req.Width
		}
		if req.Height > 0 {
			artifact.Height = req.Height
		}
		artifact.Metadata["fullPrompt"] = prompt
	case provider.KindImageToImage:
		strength := req.Strength
		if strength == 0 {
			strength = provider.DefaultStrength
		}
		artifact.Metadata["originalImage"] = true
		artifact.Metadata["strength"] = strength
	case provider.KindFaceCloning:
		artifact.Title = "Face Clone: " + provider.Truncate(prompt, 40)
		artifact.Metadata["faceCloning"] = true
	case provider.KindEditFace:
		encoded := adjustmentsJSON(req.Adjustments)
		artifact.Title = "Face Edit"
		artifact.Prompt = "Face editing with adjustments: " + encoded
		artifact.Metadata["faceEditing"] = true
		artifact.Metadata["adjustments"] = adjustmentsMap(req.Adjustments)
	case provider.KindEditObjects:
		artifact.Metadata["objectEditing"] = true
	}

	return artifact
}

func adjustmentsJSON(adjustments map[string]float64) string {
	if adjustments == nil {
		return "{}"
	}
	encoded, err := json.Marshal(adjustments)
	if err != nil {
		return fmt.Sprint(adjustments)
	}
	return string(encoded)
}

func adjustmentsMap(adjustments map[string]float64) map[string]interface{} {
	out := make(map[string]interface{}, len(adjustments))
	for k, v := range adjustments {
		out[k] = v
	}
	return out
}
