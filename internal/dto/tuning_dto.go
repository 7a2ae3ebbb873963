package dto

import (
	"artgen-go/internal/models"
)

// CreateTuningRequest is the body of POST /api/model-tunings.
type CreateTuningRequest struct {
	Name        string                 `json:"name" validate:"required,max=100"`
	Description *string                `json:"description" validate:"omitempty,max=1000"`
	ModelID     *uint                  `json:"modelId" validate:"required"`
	UserID      *uint                  `json:"userId"`
	Parameters  map[string]interface{} `json:"parameters" validate:"required"`
}

// UpdateTuningRequest is the body of PATCH /api/model-tunings/:id. Absent fields are kept.
type UpdateTuningRequest struct {
	Name        *string                `json:"name" validate:"omitempty,min=1,max=100"`
	Description *string                `json:"description" validate:"omitempty,max=1000"`
	ModelID     *uint                  `json:"modelId"`
	UserID      *uint                  `json:"userId"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// TuningResponse is a tuning profile enriched with its model's display name.
type TuningResponse struct {
	models.ModelTuning
	ModelName string `json:"modelName"`
}

// DeleteResponse reports whether a record existed before deletion.
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}
