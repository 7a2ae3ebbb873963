package repository

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/internal/models"
)

// DefaultListLimit applies when a list call does not specify a limit.
const DefaultListLimit = 20

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// ArtifactFilter selects and paginates artifacts.
type ArtifactFilter struct {
	UserID *uint
	Limit  int
	Offset int
}

// TuningFilter selects tuning profiles.
type TuningFilter struct {
	UserID *uint
}

// Store is the persistence contract shared by every backend.
// Missing records are reported as apperr.KindNotFound, transport failures as
// apperr.KindStorageUnavailable and uniqueness violations as apperr.KindValidation.
// Usernames, emails, preset names, model keys and model names compare case-insensitively.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	CreateArtifact(ctx context.Context, artifact *models.Artifact) error
	GetArtifact(ctx context.Context, id uint) (*models.Artifact, error)
	ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]models.Artifact, error)
	CountArtifacts(ctx context.Context) (int64, error)

	CreateStylePreset(ctx context.Context, preset *models.StylePreset) error
	GetStylePreset(ctx context.Context, id uint) (*models.StylePreset, error)
	ListStylePresets(ctx context.Context) ([]models.StylePreset, error)

	CreateAiModel(ctx context.Context, model *models.AiModel) error
	GetAiModel(ctx context.Context, id uint) (*models.AiModel, error)
	GetAiModelByKey(ctx context.Context, key string) (*models.AiModel, error)
	ListAiModels(ctx context.Context) ([]models.AiModel, error)

	CreateModelTuning(ctx context.Context, tuning *models.ModelTuning) error
	GetModelTuning(ctx context.Context, id uint) (*models.ModelTuning, error)
	ListModelTunings(ctx context.Context, filter TuningFilter) ([]models.ModelTuning, error)
	UpdateModelTuning(ctx context.Context, id uint, patch models.ModelTuningPatch) (*models.ModelTuning, error)
	DeleteModelTuning(ctx context.Context, id uint) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}

// normalizePage applies the default limit and clamps a negative offset.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// paginate slices an already filtered and ordered result.
func paginate[T any](items []T, limit, offset int) []T {
	limit, offset = normalizePage(limit, offset)
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

// newestFirst orders records by creation time descending, ties broken by id descending.
func newestFirst[T any](items []T, key func(T) (time.Time, uint)) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, idi := key(items[i])
		tj, idj := key(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}

func artifactOrder(a models.Artifact) (time.Time, uint) { return a.CreatedAt, a.ID }

func tuningOrder(t models.ModelTuning) (time.Time, uint) { return t.CreatedAt, t.ID }

func sameOwner(owner *uint, filter *uint) bool {
	if filter == nil {
		return true
	}
	return owner != nil && *owner == *filter
}

// touch returns the next UpdatedAt so that it never moves backwards.
func touch(now, previous time.Time) time.Time {
	if now.Before(previous) {
		return previous
	}
	return now
}

// checkEncodable rejects JSON fields that no backend can serialize, such as NaN values.
func checkEncodable(field string, m models.JSONMap) error {
	if len(m) == 0 {
		return nil
	}
	if _, err := json.Marshal(m); err != nil {
		return apperr.Validation("%s is not valid JSON: %v", field, err)
	}
	return nil
}
