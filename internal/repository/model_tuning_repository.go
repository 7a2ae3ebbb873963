package repository

import (
	"context"

	"artgen-go/internal/models"

	"gorm.io/gorm"
)

// ModelTuningRepository is the gorm data access for tuning profiles.
type ModelTuningRepository struct {
	db *gorm.DB
}

// NewModelTuningRepository creates a ModelTuningRepository.
func NewModelTuningRepository(db *gorm.DB) *ModelTuningRepository {
	return &ModelTuningRepository{db: db}
}

// Create inserts a tuning profile.
func (r *ModelTuningRepository) Create(ctx context.Context, tuning *models.ModelTuning) error {
	return r.db.WithContext(ctx).Create(tuning).Error
}

// GetByID loads a tuning profile by primary key.
func (r *ModelTuningRepository) GetByID(ctx context.Context, id uint) (*models.ModelTuning, error) {
	var tuning models.ModelTuning
	err := r.db.WithContext(ctx).First(&tuning, id).Error
	if err != nil {
		return nil, err
	}
	return &tuning, nil
}

// List returns tunings newest first, optionally for a single owner.
func (r *ModelTuningRepository) List(ctx context.Context, userID *uint) ([]models.ModelTuning, error) {
	var tunings []models.ModelTuning

	query := r.db.WithContext(ctx).Model(&models.ModelTuning{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	err := query.Order("created_at DESC").Order("id DESC").Find(&tunings).Error
	return tunings, err
}

// Update saves every column of the tuning profile.
func (r *ModelTuningRepository) Update(ctx context.Context, tuning *models.ModelTuning) error {
	return r.db.WithContext(ctx).Save(tuning).Error
}

// Delete removes a tuning profile and returns the number of deleted rows.
func (r *ModelTuningRepository) Delete(ctx context.Context, id uint) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&models.ModelTuning{}, id)
	return res.RowsAffected, res.Error
}
