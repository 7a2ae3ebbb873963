package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/internal/models"

	"gorm.io/gorm"
)

// GormStore is the relational backend built from the per-entity repositories.
type GormStore struct {
	db *gorm.DB

	users    *UserRepository
	images   *ArtifactRepository
	presets  *StylePresetRepository
	aiModels *AiModelRepository
	tunings  *ModelTuningRepository

	now func() time.Time
}

// NewGormStore wraps an opened and migrated database.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:       db,
		users:    NewUserRepository(db),
		images:   NewArtifactRepository(db),
		presets:  NewStylePresetRepository(db),
		aiModels: NewAiModelRepository(db),
		tunings:  NewModelTuningRepository(db),
		now:      time.Now,
	}
}

var _ Store = (*GormStore)(nil)

// wrapGormError maps gorm failures onto the service taxonomy.
func wrapGormError(err error, operation, details string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found (%s)", operation, details)
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation("%s conflicts with an existing record (%s)", operation, details)
	}

	return apperr.StorageUnavailable(fmt.Errorf("%s: %w", operation, err), operation)
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	exists, err := s.users.ExistsByUsernameOrEmail(ctx, user.Username, user.Email)
	if err != nil {
		return wrapGormError(err, "create user", user.Username)
	}
	if exists {
		return apperr.Validation("username %q or email %q already exists", user.Username, user.Email)
	}

	user.CreatedAt = s.now()
	return wrapGormError(s.users.Create(ctx, user), "create user", user.Username)
}

func (s *GormStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, wrapGormError(err, "user", fmt.Sprintf("id=%d", id))
	}
	return user, nil
}

func (s *GormStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, wrapGormError(err, "user", "username="+username)
	}
	return user, nil
}

func (s *GormStore) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	if err := checkEncodable("metadata", artifact.Metadata); err != nil {
		return err
	}
	artifact.CreatedAt = s.now()
	return wrapGormError(s.images.Create(ctx, artifact), "create artifact", artifact.Title)
}

func (s *GormStore) GetArtifact(ctx context.Context, id uint) (*models.Artifact, error) {
	artifact, err := s.images.GetByID(ctx, id)
	if err != nil {
		return nil, wrapGormError(err, "artifact", fmt.Sprintf("id=%d", id))
	}
	return artifact, nil
}

func (s *GormStore) ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]models.Artifact, error) {
	limit, offset := normalizePage(filter.Limit, filter.Offset)
	artifacts, err := s.images.List(ctx, filter.UserID, offset, limit)
	if err != nil {
		return nil, wrapGormError(err, "list artifacts", "")
	}
	return artifacts, nil
}

func (s *GormStore) CountArtifacts(ctx context.Context) (int64, error) {
	total, err := s.images.Count(ctx)
	if err != nil {
		return 0, wrapGormError(err, "count artifacts", "")
	}
	return total, nil
}

func (s *GormStore) CreateStylePreset(ctx context.Context, preset *models.StylePreset) error {
	exists, err := s.presets.ExistsByName(ctx, preset.Name)
	if err != nil {
		return wrapGormError(err, "create style preset", preset.Name)
	}
	if exists {
		return apperr.Validation("style preset %q already exists", preset.Name)
	}
	return wrapGormError(s.presets.Create(ctx, preset), "create style preset", preset.Name)
}

func (s *GormStore) GetStylePreset(ctx context.Context, id uint) (*models.StylePreset, error) {
	preset, err := s.presets.GetByID(ctx, id)
	if err != nil {
		return nil, wrapGormError(err, "style preset", fmt.Sprintf("id=%d", id))
	}
	return preset, nil
}

func (s *GormStore) ListStylePresets(ctx context.Context) ([]models.StylePreset, error) {
	presets, err := s.presets.List(ctx)
	if err != nil {
		return nil, wrapGormError(err, "list style presets", "")
	}
	return presets, nil
}

func (s *GormStore) CreateAiModel(ctx context.Context, model *models.AiModel) error {
	if err := checkEncodable("capabilities", model.Capabilities); err != nil {
		return err
	}
	exists, err := s.aiModels.ExistsByKeyOrName(ctx, model.Key, model.Name)
	if err != nil {
		return wrapGormError(err, "create ai model", model.Key)
	}
	if exists {
		return apperr.Validation("ai model %q already exists", model.Key)
	}
	return wrapGormError(s.aiModels.Create(ctx, model), "create ai model", model.Key)
}

func (s *GormStore) GetAiModel(ctx context.Context, id uint) (*models.AiModel, error) {
	model, err := s.aiModels.GetByID(ctx, id)
	if err != nil {
		return nil, wrapGormError(err, "ai model", fmt.Sprintf("id=%d", id))
	}
	return model, nil
}

func (s *GormStore) GetAiModelByKey(ctx context.Context, key string) (*models.AiModel, error) {
	model, err := s.aiModels.GetByKey(ctx, key)
	if err != nil {
		return nil, wrapGormError(err, "ai model", "key="+key)
	}
	return model, nil
}

func (s *GormStore) ListAiModels(ctx context.Context) ([]models.AiModel, error) {
	list, err := s.aiModels.List(ctx)
	if err != nil {
		return nil, wrapGormError(err, "list ai models", "")
	}
	return list, nil
}

func (s *GormStore) CreateModelTuning(ctx context.Context, tuning *models.ModelTuning) error {
	if err := checkEncodable("parameters", tuning.Parameters); err != nil {
		return err
	}
	now := s.now()
	tuning.CreatedAt = now
	tuning.UpdatedAt = now
	return wrapGormError(s.tunings.Create(ctx, tuning), "create model tuning", tuning.Name)
}

func (s *GormStore) GetModelTuning(ctx context.Context, id uint) (*models.ModelTuning, error) {
	tuning, err := s.tunings.GetByID(ctx, id)
	if err != nil {
		return nil, wrapGormError(err, "model tuning", fmt.Sprintf("id=%d", id))
	}
	return tuning, nil
}

func (s *GormStore) ListModelTunings(ctx context.Context, filter TuningFilter) ([]models.ModelTuning, error) {
	tunings, err := s.tunings.List(ctx, filter.UserID)
	if err != nil {
		return nil, wrapGormError(err, "list model tunings", "")
	}
	return tunings, nil
}

func (s *GormStore) UpdateModelTuning(ctx context.Context, id uint, patch models.ModelTuningPatch) (*models.ModelTuning, error) {
	if err := checkEncodable("parameters", patch.Parameters); err != nil {
		return nil, err
	}

	var updated *models.ModelTuning
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewModelTuningRepository(tx)
		existing, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		createdAt := existing.CreatedAt
		previous := existing.UpdatedAt
		patch.Apply(existing)
		existing.ID = id
		existing.CreatedAt = createdAt
		existing.UpdatedAt = touch(s.now(), previous)

		if err := repo.Update(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, wrapGormError(err, "model tuning", fmt.Sprintf("id=%d", id))
	}
	return updated, nil
}

func (s *GormStore) DeleteModelTuning(ctx context.Context, id uint) (bool, error) {
	rows, err := s.tunings.Delete(ctx, id)
	if err != nil {
		return false, wrapGormError(err, "delete model tuning", fmt.Sprintf("id=%d", id))
	}
	return rows > 0, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return apperr.StorageUnavailable(err, "ping")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperr.StorageUnavailable(err, "ping")
	}
	return nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
