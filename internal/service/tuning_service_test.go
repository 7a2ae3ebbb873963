package service

import (
	"context"
	"testing"

	"artgen-go/internal/apperr"
	"artgen-go/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTuningResolvesModelName(t *testing.T) {
	ctx := context.Background()
	store := newSeededStore(t)
	svc := NewTuningService(store)

	dalle, err := store.GetAiModelByKey(ctx, "dalle")
	require.NoError(t, err)

	created, err := svc.Create(ctx, &dto.CreateTuningRequest{
		Name:       "Portrait",
		ModelID:    uintPtr(dalle.ID),
		Parameters: map[string]interface{}{"temperature": 0.7},
	})
	require.NoError(t, err)
	assert.Equal(t, "DALL-E 3", created.ModelName)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Portrait", got.Name)
	assert.Equal(t, "DALL-E 3", got.ModelName)
	assert.Equal(t, 0.7, got.Parameters["temperature"])
}

func TestTuningWithMissingModelDegrades(t *testing.T) {
	ctx := context.Background()
	svc := NewTuningService(newSeededStore(t))

	created, err := svc.Create(ctx, &dto.CreateTuningRequest{
		Name:       "Portrait",
		ModelID:    uintPtr(999),
		Parameters: map[string]interface{}{"temperature": 0.7},
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, UnknownModelName, got.ModelName)
}

func TestTuningCreateValidation(t *testing.T) {
	svc := NewTuningService(newSeededStore(t))

	cases := []struct {
		name string
		req  dto.CreateTuningRequest
	}{
		{"missing name", dto.CreateTuningRequest{ModelID: uintPtr(1), Parameters: map[string]interface{}{}}},
		{"blank name", dto.CreateTuningRequest{Name: "   ", ModelID: uintPtr(1), Parameters: map[string]interface{}{}}},
		{"missing model", dto.CreateTuningRequest{Name: "Portrait", Parameters: map[string]interface{}{}}},
		{"missing parameters", dto.CreateTuningRequest{Name: "Portrait", ModelID: uintPtr(1)}},
		{"string parameter", dto.CreateTuningRequest{Name: "Portrait", ModelID: uintPtr(1), Parameters: map[string]interface{}{"style": "warm"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			_, err := svc.Create(context.Background(), &req)
			requireKind(t, err, apperr.KindValidation)
		})
	}
}

func TestTuningUpdateListDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewTuningService(newSeededStore(t))

	mine, err := svc.Create(ctx, &dto.CreateTuningRequest{
		Name:       "Mine",
		ModelID:    uintPtr(1),
		UserID:     uintPtr(7),
		Parameters: map[string]interface{}{"steps": 30.0, "hires": true},
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &dto.CreateTuningRequest{
		Name:       "Theirs",
		ModelID:    uintPtr(1),
		UserID:     uintPtr(8),
		Parameters: map[string]interface{}{"steps": 20.0},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, mine.ID, &dto.UpdateTuningRequest{Description: strPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, mine.ID, updated.ID)
	assert.Equal(t, mine.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(mine.UpdatedAt))
	require.NotNil(t, updated.Description)
	assert.Equal(t, "x", *updated.Description)
	assert.Equal(t, "Mine", updated.Name)
	assert.Equal(t, true, updated.Parameters["hires"])

	_, err = svc.Update(ctx, mine.ID, &dto.UpdateTuningRequest{Parameters: map[string]interface{}{"nested": map[string]interface{}{}}})
	requireKind(t, err, apperr.KindValidation)

	_, err = svc.Update(ctx, 404, &dto.UpdateTuningRequest{Description: strPtr("x")})
	requireKind(t, err, apperr.KindNotFound)

	owned, err := svc.List(ctx, uintPtr(7))
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "Mine", owned[0].Name)
	assert.Equal(t, "DALL-E 3", owned[0].ModelName)

	all, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	deleted, err := svc.Delete(ctx, mine.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.Delete(ctx, mine.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = svc.Get(ctx, mine.ID)
	requireKind(t, err, apperr.KindNotFound)
}
