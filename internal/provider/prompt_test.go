package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnhancePrompt(t *testing.T) {
	assert.Equal(t, "a red fox, highly detailed, high quality", EnhancePrompt("a red fox"))

	long := "a red fox in the snowy forest at dawn"
	assert.Equal(t, long, EnhancePrompt(long))

	// rune count, not byte count
	assert.Equal(t, "雪の中の赤い狐, highly detailed, high quality", EnhancePrompt("雪の中の赤い狐"))
}

func TestSelectSize(t *testing.T) {
	tests := []struct {
		width, height int
		want          string
	}{
		{1024, 1024, SizeSquare},
		{1600, 1000, SizeWide},
		{1500, 1000, SizeSquare},
		{700, 1000, SizeTall},
		{750, 1000, SizeSquare},
		{0, 0, SizeSquare},
		{2048, 0, SizeWide},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectSize(tt.width, tt.height), "%dx%d", tt.width, tt.height)
	}
}

func TestAdjustmentClauses(t *testing.T) {
	clauses := AdjustmentClauses(map[string]float64{
		"smile":     0.5,
		"age":       -2,
		"eye_size":  0,
		"jaw_width": 1,
	})
	assert.Equal(t, "less age (intensity: 2), more jaw width (intensity: 1), more smile (intensity: 0.5)", clauses)

	assert.Empty(t, AdjustmentClauses(map[string]float64{"smile": 0, "age": 0}))
	assert.Empty(t, AdjustmentClauses(nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 50))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "日本", Truncate("日本語", 2))
}
