package service

import (
	"context"

	"artgen-go/internal/models"
	"artgen-go/internal/repository"

	"github.com/sirupsen/logrus"
)

// DefaultModelKey is used by edit operations when the caller names no model.
const DefaultModelKey = "dalle"

// CatalogService serves style presets and model descriptors.
type CatalogService struct {
	store repository.Store
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{store: store}
}

// ListStylePresets returns every preset.
func (s *CatalogService) ListStylePresets(ctx context.Context) ([]models.StylePreset, error) {
	return s.store.ListStylePresets(ctx)
}

// ListAiModels returns the model catalog, optionally only the active entries.
func (s *CatalogService) ListAiModels(ctx context.Context, activeOnly bool) ([]models.AiModel, error) {
	all, err := s.store.ListAiModels(ctx)
	if err != nil || !activeOnly {
		return all, err
	}

	active := make([]models.AiModel, 0, len(all))
	for _, m := range all {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return active, nil
}

// SeedDefaults fills an empty catalog with the built-in presets and models.
// Collections that already hold entries are left alone.
func (s *CatalogService) SeedDefaults(ctx context.Context) error {
	presets, err := s.store.ListStylePresets(ctx)
	if err != nil {
		return err
	}
	if len(presets) == 0 {
		for _, preset := range defaultStylePresets() {
			p := preset
			if err := s.store.CreateStylePreset(ctx, &p); err != nil {
				return err
			}
		}
		logrus.WithField("count", len(defaultStylePresets())).Info("seeded style presets")
	}

	existing, err := s.store.ListAiModels(ctx)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		for _, model := range defaultAiModels() {
			m := model
			if err := s.store.CreateAiModel(ctx, &m); err != nil {
				return err
			}
		}
		logrus.WithField("count", len(defaultAiModels())).Info("seeded model catalog")
	}

	return nil
}

func defaultStylePresets() []models.StylePreset {
	return []models.StylePreset{
		{
			Name:         "Cyberpunk",
			Description:  "Neon-lit urban dystopia with high tech and low life aesthetics",
			ThumbnailURL: "https://images.unsplash.com/photo-1508695666381-69deeaa78ccb?q=80&w=424",
			Prompt:       "cyberpunk style, neon lights, dystopian future, high technology, urban night scene",
			Category:     "Sci-Fi",
			IsPublic:     true,
		},
		{
			Name:         "Oil Painting",
			Description:  "Classic oil painting style with rich textures and colors",
			ThumbnailURL: "https://images.unsplash.com/photo-1619946794135-5bc917a27793?q=80&w=424",
			Prompt:       "oil painting style, textured canvas, rich colors, painterly strokes, artistic",
			Category:     "Art",
			IsPublic:     true,
		},
		{
			Name:         "Anime",
			Description:  "Japanese anime style illustration with vibrant colors",
			ThumbnailURL: "https://images.unsplash.com/photo-1598550476439-6847785fcea6?q=80&w=424",
			Prompt:       "anime style, vibrant colors, clean lines, Japanese animation, stylized characters",
			Category:     "Illustration",
			IsPublic:     true,
		},
		{
			Name:         "Fantasy",
			Description:  "Epic fantasy worlds with magical elements and landscapes",
			ThumbnailURL: "https://images.unsplash.com/photo-1535263531122-04b6c6f3a7ca?q=80&w=424",
			Prompt:       "fantasy style, magical world, epic landscape, mythical creatures, fairy tale atmosphere",
			Category:     "Fantasy",
			IsPublic:     true,
		},
		{
			Name:         "Photorealistic",
			Description:  "Ultra-realistic images that look like real photographs",
			ThumbnailURL: "https://images.unsplash.com/photo-1482501157762-56897a411e05?q=80&w=424",
			Prompt:       "photorealistic, ultra detailed, high resolution, professional photography, hyper realistic",
			Category:     "Photography",
			IsPublic:     true,
		},
		{
			Name:         "Neon",
			Description:  "Vibrant neon aesthetic with glowing elements and dark backgrounds",
			ThumbnailURL: "https://images.unsplash.com/photo-1545569341-9eb8b30979d9?q=80&w=424",
			Prompt:       "neon style, vibrant glowing lights, dark background, high contrast, synthwave aesthetic",
			Category:     "Modern",
			IsPublic:     true,
		},
	}
}

func defaultAiModels() []models.AiModel {
	return []models.AiModel{
		{
			Key:         "dalle",
			Name:        "DALL-E 3",
			Description: "OpenAI's most advanced text-to-image model with exceptional photorealism and prompt following.",
			Provider:    "OpenAI",
			IsActive:    true,
			Capabilities: models.JSONMap{
				"tags":          []interface{}{"Photorealistic", "Artistic", "High Detail"},
				"maxResolution": "1024x1024",
			},
		},
		{
			Key:         "stable-diffusion",
			Name:        "Stable Diffusion",
			Description: "Versatile open-source model with excellent style transfer and artistic capabilities.",
			Provider:    "Stability AI",
			IsActive:    true,
			Capabilities: models.JSONMap{
				"tags": []interface{}{"Stylized", "Open Source", "Fast"},
			},
		},
		{
			Key:         "gemini-vision",
			Name:        "Gemini Vision",
			Description: "Google's multimodal AI with excellent image understanding and generation capabilities.",
			Provider:    "Google",
			IsActive:    false,
			Capabilities: models.JSONMap{
				"tags": []interface{}{"Multimodal", "Versatile", "Advanced"},
			},
		},
	}
}
