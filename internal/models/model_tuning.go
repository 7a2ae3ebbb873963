package models

import (
	"time"
)

// ModelTuning is a named parameter profile bound to one AiModel.
type ModelTuning struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	ModelID     uint      `gorm:"not null;index" json:"modelId"`
	UserID      *uint     `gorm:"index" json:"userId"`
	Parameters  JSONMap   `gorm:"type:text" json:"parameters"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName overrides the gorm table name.
func (ModelTuning) TableName() string {
	return "model_tunings"
}

// ModelTuningPatch carries the fields of a partial update; nil fields are left unchanged.
type ModelTuningPatch struct {
	Name        *string
	Description *string
	ModelID     *uint
	UserID      *uint
	Parameters  JSONMap
}

// Apply merges the patch into t. ID and CreatedAt are never touched.
func (p ModelTuningPatch) Apply(t *ModelTuning) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = p.Description
	}
	if p.ModelID != nil {
		t.ModelID = *p.ModelID
	}
	if p.UserID != nil {
		t.UserID = p.UserID
	}
	if p.Parameters != nil {
		t.Parameters = p.Parameters
	}
}
