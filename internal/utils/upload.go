package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"artgen-go/internal/apperr"
)

// ReadImageFile reads an uploaded image, rejecting empty, oversized and
// non-image payloads.
func ReadImageFile(fh *multipart.FileHeader, maxBytes int64) ([]byte, string, error) {
	if fh == nil {
		return nil, "", apperr.Validation("image file is required")
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, "", apperr.Validation("image exceeds %d bytes", maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", apperr.Validation("image file %q is empty", fh.Filename)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", apperr.Validation("file %q is not an image (%s)", fh.Filename, contentType)
	}
	return data, contentType, nil
}

// ParseAdjustments decodes a JSON object of feature -> signed intensity.
func ParseAdjustments(raw string) (map[string]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, apperr.Validation("adjustments are required")
	}

	var adjustments map[string]float64
	if err := json.Unmarshal([]byte(raw), &adjustments); err != nil {
		return nil, apperr.Validation("adjustments must be a JSON object of numbers: %v", err)
	}
	if adjustments == nil {
		return nil, apperr.Validation("adjustments must be a JSON object of numbers")
	}
	return adjustments, nil
}
