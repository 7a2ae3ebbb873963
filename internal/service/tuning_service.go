package service

import (
	"context"
	"encoding/json"
	"strings"

	"artgen-go/internal/apperr"
	"artgen-go/internal/dto"
	"artgen-go/internal/models"
	"artgen-go/internal/repository"
	"artgen-go/internal/utils"

	"github.com/sirupsen/logrus"
)

// UnknownModelName is reported for tunings whose model no longer exists.
const UnknownModelName = "Unknown model"

// TuningService manages named parameter sets bound to a model.
type TuningService struct {
	store repository.Store
}

// NewTuningService creates a TuningService.
func NewTuningService(store repository.Store) *TuningService {
	return &TuningService{store: store}
}

// Create stores a new tuning profile.
func (s *TuningService) Create(ctx context.Context, req *dto.CreateTuningRequest) (*dto.TuningResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := validateParameters(req.Parameters); err != nil {
		return nil, err
	}

	tuning := &models.ModelTuning{
		Name:        req.Name,
		Description: req.Description,
		ModelID:     *req.ModelID,
		UserID:      req.UserID,
		Parameters:  models.JSONMap(req.Parameters),
	}
	if err := s.store.CreateModelTuning(ctx, tuning); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"tuning_id": tuning.ID,
		"model_id":  tuning.ModelID,
	}).Info("model tuning created")

	return s.enrich(ctx, tuning, nil)
}

// Get returns one tuning profile.
func (s *TuningService) Get(ctx context.Context, id uint) (*dto.TuningResponse, error) {
	tuning, err := s.store.GetModelTuning(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, tuning, nil)
}

// List returns tuning profiles newest first, optionally for one owner.
func (s *TuningService) List(ctx context.Context, userID *uint) ([]dto.TuningResponse, error) {
	tunings, err := s.store.ListModelTunings(ctx, repository.TuningFilter{UserID: userID})
	if err != nil {
		return nil, err
	}

	names := make(map[uint]string)
	out := make([]dto.TuningResponse, 0, len(tunings))
	for i := range tunings {
		enriched, err := s.enrich(ctx, &tunings[i], names)
		if err != nil {
			return nil, err
		}
		out = append(out, *enriched)
	}
	return out, nil
}

// Update applies a partial update. Absent fields keep their value.
func (s *TuningService) Update(ctx context.Context, id uint, req *dto.UpdateTuningRequest) (*dto.TuningResponse, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Parameters != nil {
		if err := validateParameters(req.Parameters); err != nil {
			return nil, err
		}
	}

	tuning, err := s.store.UpdateModelTuning(ctx, id, models.ModelTuningPatch{
		Name:        req.Name,
		Description: req.Description,
		ModelID:     req.ModelID,
		UserID:      req.UserID,
		Parameters:  models.JSONMap(req.Parameters),
	})
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, tuning, nil)
}

// Delete removes a tuning profile and reports whether it existed.
func (s *TuningService) Delete(ctx context.Context, id uint) (bool, error) {
	deleted, err := s.store.DeleteModelTuning(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		logrus.WithField("tuning_id", id).Info("model tuning deleted")
	}
	return deleted, nil
}

// enrich attaches the model display name. names caches lookups across a list.
func (s *TuningService) enrich(ctx context.Context, tuning *models.ModelTuning, names map[uint]string) (*dto.TuningResponse, error) {
	name, ok := names[tuning.ModelID]
	if !ok {
		model, err := s.store.GetAiModel(ctx, tuning.ModelID)
		switch {
		case err == nil:
			name = model.Name
		case apperr.Is(err, apperr.KindNotFound):
			name = UnknownModelName
		default:
			return nil, err
		}
		if names != nil {
			names[tuning.ModelID] = name
		}
	}

	return &dto.TuningResponse{
		ModelTuning: *tuning,
		ModelName:   name,
	}, nil
}

// validateParameters accepts numeric and boolean values only.
func validateParameters(params map[string]interface{}) error {
	for key, value := range params {
		if strings.TrimSpace(key) == "" {
			return apperr.Validation("parameter names must not be empty")
		}
		switch value.(type) {
		case bool, float64, float32, int, int32, int64, uint, json.Number:
		default:
			return apperr.Validation("parameter %q must be a number or boolean", key)
		}
	}
	return nil
}
