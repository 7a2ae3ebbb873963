package dto

import (
	"errors"
	"fmt"
	"testing"

	"artgen-go/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationFailedKeepsTypedKind(t *testing.T) {
	storeErr := apperr.Wrap(apperr.KindStorageUnavailable, errors.New("bad json"), "decode images document: bad json")
	result := GenerationFailed(fmt.Errorf("persist artifact: %w", storeErr))

	assert.False(t, result.Success)
	require.NotNil(t, result.Error)
	assert.Equal(t, "StorageUnavailableError", result.Error.Kind)
	assert.Contains(t, result.Error.Message, "decode images document")
}

func TestGenerationFailedUntypedFallsBackToProvider(t *testing.T) {
	result := GenerationFailed(errors.New("boom"))

	require.NotNil(t, result.Error)
	assert.Equal(t, "ProviderError", result.Error.Kind)
	assert.Equal(t, "generation failed", result.Error.Message)
}
