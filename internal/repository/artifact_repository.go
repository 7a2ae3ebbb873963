package repository

import (
	"context"

	"artgen-go/internal/models"

	"gorm.io/gorm"
)

// ArtifactRepository is the gorm data access for generated artifacts.
type ArtifactRepository struct {
	db *gorm.DB
}

// NewArtifactRepository creates an ArtifactRepository.
func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create inserts an artifact.
func (r *ArtifactRepository) Create(ctx context.Context, artifact *models.Artifact) error {
	return r.db.WithContext(ctx).Create(artifact).Error
}

// GetByID loads an artifact by primary key.
func (r *ArtifactRepository) GetByID(ctx context.Context, id uint) (*models.Artifact, error) {
	var artifact models.Artifact
	err := r.db.WithContext(ctx).First(&artifact, id).Error
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

// List returns artifacts newest first, optionally for a single owner.
func (r *ArtifactRepository) List(ctx context.Context, userID *uint, offset, limit int) ([]models.Artifact, error) {
	var artifacts []models.Artifact

	query := r.db.WithContext(ctx).Model(&models.Artifact{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	err := query.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&artifacts).Error
	return artifacts, err
}

// Count returns the total number of artifacts.
func (r *ArtifactRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Artifact{}).Count(&total).Error
	return total, err
}
