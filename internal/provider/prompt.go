package provider

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	minPromptRunes   = 15
	qualityQualifier = ", highly detailed, high quality"

	DefaultDimension = 1024
	DefaultStrength  = 0.8

	SizeSquare = "1024x1024"
	SizeWide   = "1792x1024"
	SizeTall   = "1024x1792"
)

// EnhancePrompt appends a generic quality qualifier to short prompts.
func EnhancePrompt(prompt string) string {
	if utf8.RuneCountInString(prompt) < minPromptRunes {
		return prompt + qualityQualifier
	}
	return prompt
}

// SelectSize picks the supported size closest to the requested aspect ratio.
func SelectSize(width, height int) string {
	if width <= 0 {
		width = DefaultDimension
	}
	if height <= 0 {
		height = DefaultDimension
	}

	ratio := float64(width) / float64(height)
	switch {
	case ratio > 1.5:
		return SizeWide
	case ratio < 0.75:
		return SizeTall
	default:
		return SizeSquare
	}
}

// AdjustmentClauses renders non-zero facial adjustments as
// "more|less <feature> (intensity: n)" clauses in key order.
func AdjustmentClauses(adjustments map[string]float64) string {
	keys := make([]string, 0, len(adjustments))
	for key, value := range adjustments {
		if value != 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	for _, key := range keys {
		value := adjustments[key]
		direction := "more"
		if value < 0 {
			direction = "less"
		}
		feature := strings.ReplaceAll(key, "_", " ")
		intensity := strconv.FormatFloat(math.Abs(value), 'f', -1, 64)
		clauses = append(clauses, fmt.Sprintf("%s %s (intensity: %s)", direction, feature, intensity))
	}
	return strings.Join(clauses, ", ")
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
