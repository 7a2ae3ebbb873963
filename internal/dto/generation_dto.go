package dto

import (
	"artgen-go/internal/apperr"
	"artgen-go/internal/models"
)

// TextToImageRequest is the JSON body of POST /api/images/text-to-image.
type TextToImageRequest struct {
	Prompt string `json:"prompt"`
	Model  string `json:"model"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ErrorInfo names the error kind of a failed generation.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// GenerationResult is the response of every generation endpoint.
type GenerationResult struct {
	Success  bool             `json:"success"`
	ImageURL string           `json:"imageUrl,omitempty"`
	Artifact *models.Artifact `json:"artifact,omitempty"`
	Error    *ErrorInfo       `json:"error,omitempty"`
}

// GenerationSucceeded builds a successful result. artifact is nil for anonymous callers.
func GenerationSucceeded(imageURL string, artifact *models.Artifact) GenerationResult {
	return GenerationResult{Success: true, ImageURL: imageURL, Artifact: artifact}
}

// GenerationFailed builds a failed result from a typed error.
func GenerationFailed(err error) GenerationResult {
	kind := apperr.KindOf(err)
	message := err.Error()
	if kind == "" {
		kind = apperr.KindProvider
		message = "generation failed"
	}
	return GenerationResult{
		Success: false,
		Error:   &ErrorInfo{Kind: string(kind), Message: message},
	}
}
