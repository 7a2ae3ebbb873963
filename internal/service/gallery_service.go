package service

import (
	"context"

	"artgen-go/internal/models"
	"artgen-go/internal/repository"
)

// GalleryService reads persisted artifacts.
type GalleryService struct {
	store repository.Store
}

// NewGalleryService creates a GalleryService.
func NewGalleryService(store repository.Store) *GalleryService {
	return &GalleryService{store: store}
}

// ListArtifacts returns artifacts newest first along with the total number stored.
func (s *GalleryService) ListArtifacts(ctx context.Context, userID *uint, limit, offset int) ([]models.Artifact, int64, error) {
	if limit <= 0 {
		limit = repository.DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	artifacts, err := s.store.ListArtifacts(ctx, repository.ArtifactFilter{
		UserID: userID,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, 0, err
	}

	total, err := s.store.CountArtifacts(ctx)
	if err != nil {
		return nil, 0, err
	}

	return artifacts, total, nil
}

// GetArtifact returns one artifact.
func (s *GalleryService) GetArtifact(ctx context.Context, id uint) (*models.Artifact, error) {
	return s.store.GetArtifact(ctx, id)
}
