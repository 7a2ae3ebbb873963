package repository

import (
	"context"

	"artgen-go/internal/models"

	"gorm.io/gorm"
)

// StylePresetRepository is the gorm data access for style presets.
type StylePresetRepository struct {
	db *gorm.DB
}

// NewStylePresetRepository creates a StylePresetRepository.
func NewStylePresetRepository(db *gorm.DB) *StylePresetRepository {
	return &StylePresetRepository{db: db}
}

// Create inserts a preset.
func (r *StylePresetRepository) Create(ctx context.Context, preset *models.StylePreset) error {
	return r.db.WithContext(ctx).Create(preset).Error
}

// GetByID loads a preset by primary key.
func (r *StylePresetRepository) GetByID(ctx context.Context, id uint) (*models.StylePreset, error) {
	var preset models.StylePreset
	err := r.db.WithContext(ctx).First(&preset, id).Error
	if err != nil {
		return nil, err
	}
	return &preset, nil
}

// ExistsByName reports whether a preset with this name exists.
func (r *StylePresetRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.StylePreset{}).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error
	return count > 0, err
}

// List returns every preset in id order.
func (r *StylePresetRepository) List(ctx context.Context) ([]models.StylePreset, error) {
	var presets []models.StylePreset
	err := r.db.WithContext(ctx).Order("id ASC").Find(&presets).Error
	return presets, err
}

// AiModelRepository is the gorm data access for model descriptors.
type AiModelRepository struct {
	db *gorm.DB
}

// NewAiModelRepository creates an AiModelRepository.
func NewAiModelRepository(db *gorm.DB) *AiModelRepository {
	return &AiModelRepository{db: db}
}

// Create inserts a model descriptor.
func (r *AiModelRepository) Create(ctx context.Context, model *models.AiModel) error {
	return r.db.WithContext(ctx).Create(model).Error
}

// GetByID loads a model by primary key.
func (r *AiModelRepository) GetByID(ctx context.Context, id uint) (*models.AiModel, error) {
	var model models.AiModel
	err := r.db.WithContext(ctx).First(&model, id).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// GetByKey loads a model by routing key, ignoring case.
func (r *AiModelRepository) GetByKey(ctx context.Context, key string) (*models.AiModel, error) {
	var model models.AiModel
	err := r.db.WithContext(ctx).Where("LOWER(model_key) = LOWER(?)", key).First(&model).Error
	if err != nil {
		return nil, err
	}
	return &model, nil
}

// ExistsByKeyOrName reports whether the key or name is taken.
func (r *AiModelRepository) ExistsByKeyOrName(ctx context.Context, key, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AiModel{}).
		Where("LOWER(model_key) = LOWER(?) OR LOWER(name) = LOWER(?)", key, name).
		Count(&count).Error
	return count > 0, err
}

// List returns every model in id order.
func (r *AiModelRepository) List(ctx context.Context) ([]models.AiModel, error) {
	var list []models.AiModel
	err := r.db.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}
