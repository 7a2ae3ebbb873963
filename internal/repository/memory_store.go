package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/internal/models"

	"go.uber.org/atomic"
)

// MemoryStore keeps every entity in process memory.
type MemoryStore struct {
	mu sync.RWMutex

	users        map[uint]*models.User
	artifacts    map[uint]*models.Artifact
	stylePresets map[uint]*models.StylePreset
	aiModels     map[uint]*models.AiModel
	modelTunings map[uint]*models.ModelTuning

	userSeq   atomic.Uint64
	imageSeq  atomic.Uint64
	presetSeq atomic.Uint64
	modelSeq  atomic.Uint64
	tuningSeq atomic.Uint64

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uint]*models.User),
		artifacts:    make(map[uint]*models.Artifact),
		stylePresets: make(map[uint]*models.StylePreset),
		aiModels:     make(map[uint]*models.AiModel),
		modelTunings: make(map[uint]*models.ModelTuning),
		now:          time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

// CreateUser stores a user, rejecting duplicate usernames and emails.
func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return apperr.Validation("username %q already exists", user.Username)
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return apperr.Validation("email %q already exists", user.Email)
		}
	}

	user.ID = uint(s.userSeq.Inc())
	user.CreatedAt = s.now()
	stored := *user
	s.users[user.ID] = &stored
	return nil
}

// GetUser returns the user with the given id.
func (s *MemoryStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user %d not found", id)
	}
	out := *user
	return &out, nil
}

// GetUserByUsername looks a user up by username.
func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			out := *user
			return &out, nil
		}
	}
	return nil, apperr.NotFound("user %q not found", username)
}

// CreateArtifact stores a generated artifact.
func (s *MemoryStore) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	if err := checkEncodable("metadata", artifact.Metadata); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	artifact.ID = uint(s.imageSeq.Inc())
	artifact.CreatedAt = s.now()
	stored := *artifact
	stored.Metadata = artifact.Metadata.Clone()
	s.artifacts[artifact.ID] = &stored
	return nil
}

// GetArtifact returns the artifact with the given id.
func (s *MemoryStore) GetArtifact(ctx context.Context, id uint) (*models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	artifact, ok := s.artifacts[id]
	if !ok {
		return nil, apperr.NotFound("artifact %d not found", id)
	}
	out := *artifact
	out.Metadata = artifact.Metadata.Clone()
	return &out, nil
}

// ListArtifacts returns artifacts newest first, filtered by owner and paginated.
func (s *MemoryStore) ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]models.Artifact, error) {
	s.mu.RLock()
	result := make([]models.Artifact, 0, len(s.artifacts))
	for _, artifact := range s.artifacts {
		if !sameOwner(artifact.UserID, filter.UserID) {
			continue
		}
		out := *artifact
		out.Metadata = artifact.Metadata.Clone()
		result = append(result, out)
	}
	s.mu.RUnlock()

	newestFirst(result, artifactOrder)
	return paginate(result, filter.Limit, filter.Offset), nil
}

// CountArtifacts returns the number of stored artifacts.
func (s *MemoryStore) CountArtifacts(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.artifacts)), nil
}

// CreateStylePreset stores a preset, rejecting duplicate names.
func (s *MemoryStore) CreateStylePreset(ctx context.Context, preset *models.StylePreset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.stylePresets {
		if strings.EqualFold(existing.Name, preset.Name) {
			return apperr.Validation("style preset %q already exists", preset.Name)
		}
	}

	preset.ID = uint(s.presetSeq.Inc())
	stored := *preset
	s.stylePresets[preset.ID] = &stored
	return nil
}

// GetStylePreset returns the preset with the given id.
func (s *MemoryStore) GetStylePreset(ctx context.Context, id uint) (*models.StylePreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	preset, ok := s.stylePresets[id]
	if !ok {
		return nil, apperr.NotFound("style preset %d not found", id)
	}
	out := *preset
	return &out, nil
}

// ListStylePresets returns every preset in id order.
func (s *MemoryStore) ListStylePresets(ctx context.Context) ([]models.StylePreset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.StylePreset, 0, len(s.stylePresets))
	for id := uint(1); id <= uint(s.presetSeq.Load()); id++ {
		if preset, ok := s.stylePresets[id]; ok {
			result = append(result, *preset)
		}
	}
	return result, nil
}

// CreateAiModel stores a model descriptor, rejecting duplicate keys and names.
func (s *MemoryStore) CreateAiModel(ctx context.Context, model *models.AiModel) error {
	if err := checkEncodable("capabilities", model.Capabilities); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.aiModels {
		if strings.EqualFold(existing.Key, model.Key) {
			return apperr.Validation("ai model key %q already exists", model.Key)
		}
		if strings.EqualFold(existing.Name, model.Name) {
			return apperr.Validation("ai model %q already exists", model.Name)
		}
	}

	model.ID = uint(s.modelSeq.Inc())
	stored := *model
	stored.Capabilities = model.Capabilities.Clone()
	s.aiModels[model.ID] = &stored
	return nil
}

// GetAiModel returns the model with the given id.
func (s *MemoryStore) GetAiModel(ctx context.Context, id uint) (*models.AiModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	model, ok := s.aiModels[id]
	if !ok {
		return nil, apperr.NotFound("ai model %d not found", id)
	}
	out := *model
	out.Capabilities = model.Capabilities.Clone()
	return &out, nil
}

// GetAiModelByKey returns the model with the given routing key.
func (s *MemoryStore) GetAiModelByKey(ctx context.Context, key string) (*models.AiModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, model := range s.aiModels {
		if strings.EqualFold(model.Key, key) {
			out := *model
			out.Capabilities = model.Capabilities.Clone()
			return &out, nil
		}
	}
	return nil, apperr.NotFound("ai model %q not found", key)
}

// ListAiModels returns every model in id order.
func (s *MemoryStore) ListAiModels(ctx context.Context) ([]models.AiModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.AiModel, 0, len(s.aiModels))
	for id := uint(1); id <= uint(s.modelSeq.Load()); id++ {
		if model, ok := s.aiModels[id]; ok {
			out := *model
			out.Capabilities = model.Capabilities.Clone()
			result = append(result, out)
		}
	}
	return result, nil
}

// CreateModelTuning stores a tuning profile with fresh timestamps.
func (s *MemoryStore) CreateModelTuning(ctx context.Context, tuning *models.ModelTuning) error {
	if err := checkEncodable("parameters", tuning.Parameters); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	tuning.ID = uint(s.tuningSeq.Inc())
	tuning.CreatedAt = now
	tuning.UpdatedAt = now
	stored := *tuning
	stored.Parameters = tuning.Parameters.Clone()
	s.modelTunings[tuning.ID] = &stored
	return nil
}

// GetModelTuning returns the tuning with the given id.
func (s *MemoryStore) GetModelTuning(ctx context.Context, id uint) (*models.ModelTuning, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tuning, ok := s.modelTunings[id]
	if !ok {
		return nil, apperr.NotFound("model tuning %d not found", id)
	}
	out := *tuning
	out.Parameters = tuning.Parameters.Clone()
	return &out, nil
}

// ListModelTunings returns tunings newest first, optionally filtered by owner.
func (s *MemoryStore) ListModelTunings(ctx context.Context, filter TuningFilter) ([]models.ModelTuning, error) {
	s.mu.RLock()
	result := make([]models.ModelTuning, 0, len(s.modelTunings))
	for _, tuning := range s.modelTunings {
		if !sameOwner(tuning.UserID, filter.UserID) {
			continue
		}
		out := *tuning
		out.Parameters = tuning.Parameters.Clone()
		result = append(result, out)
	}
	s.mu.RUnlock()

	newestFirst(result, tuningOrder)
	return result, nil
}

// UpdateModelTuning merges patch into the stored tuning and refreshes UpdatedAt.
func (s *MemoryStore) UpdateModelTuning(ctx context.Context, id uint, patch models.ModelTuningPatch) (*models.ModelTuning, error) {
	if err := checkEncodable("parameters", patch.Parameters); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.modelTunings[id]
	if !ok {
		return nil, apperr.NotFound("model tuning %d not found", id)
	}

	updated := *existing
	patch.Apply(&updated)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = touch(s.now(), existing.UpdatedAt)
	updated.Parameters = updated.Parameters.Clone()
	s.modelTunings[id] = &updated

	out := updated
	out.Parameters = updated.Parameters.Clone()
	return &out, nil
}

// DeleteModelTuning removes the tuning and reports whether it existed.
func (s *MemoryStore) DeleteModelTuning(ctx context.Context, id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.modelTunings[id]; !ok {
		return false, nil
	}
	delete(s.modelTunings, id)
	return true, nil
}

// Ping always succeeds for the in-memory backend.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
