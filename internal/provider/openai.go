package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"artgen-go/internal/apperr"

	openai "github.com/sashabaranov/go-openai"
)

const contentPolicyCode = "content_policy_violation"

// OpenAIAdapter generates images with DALL-E 3. DALL-E 3 has no edit endpoint,
// so image based operations are expressed as descriptive prompts.
type OpenAIAdapter struct {
	client *openai.Client
	apiKey string
}

// NewOpenAIAdapter creates an adapter. baseURL overrides the public API endpoint.
func NewOpenAIAdapter(apiKey, baseURL string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		apiKey: apiKey,
	}
}

var _ Adapter = (*OpenAIAdapter)(nil)

func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Submit sends a single images/generations request.
func (a *OpenAIAdapter) Submit(ctx context.Context, op Operation) (string, error) {
	if strings.TrimSpace(a.apiKey) == "" {
		return "", apperr.Configuration("OPENAI_API_KEY is not configured")
	}

	size := op.Size
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	resp, err := a.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         dallePrompt(op),
		Model:          openai.CreateImageModelDallE3,
		N:              1,
		Size:           size,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return "", mapOpenAIError(err)
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", apperr.New(apperr.KindProvider, "openai returned no image")
	}
	return resp.Data[0].URL, nil
}

// dallePrompt turns an operation into the text prompt DALL-E receives.
func dallePrompt(op Operation) string {
	switch op.Kind {
	case KindImageToImage:
		return fmt.Sprintf("%s. Reinterpret the reference image with a transformation strength of %s, keeping its overall composition.",
			op.Prompt, formatStrength(op.Strength))
	case KindFaceCloning:
		return fmt.Sprintf("%s. Depict the person from the reference portrait, preserving their facial identity and likeness.", op.Prompt)
	case KindEditFace:
		return fmt.Sprintf("Edit this person's face with the following adjustments: %s. "+
			"Make the changes look natural and realistic. Maintain the overall identity and likeness. "+
			"Do not change the background or other elements in the image.", op.Prompt)
	case KindEditObjects:
		return fmt.Sprintf("%s. Make the changes look natural and well-integrated. "+
			"Maintain the same lighting, style, and quality as the reference image.", op.Prompt)
	default:
		return op.Prompt
	}
}

func formatStrength(strength float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", strength), "0"), ".")
}

// mapOpenAIError classifies go-openai failures. Context errors are returned
// untouched so the gateway can tell timeouts apart.
func mapOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if code, ok := apiErr.Code.(string); ok && code == contentPolicyCode {
			return apperr.Wrap(apperr.KindContentPolicy, err, "content rejected by provider: %s", apiErr.Message)
		}
		return classifyStatus(apiErr.HTTPStatusCode, err, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(reqErr.HTTPStatusCode, err, reqErr.Error())
	}

	return apperr.Wrap(apperr.KindProvider, err, "openai request failed: %v", err)
}

// classifyStatus maps an HTTP status from any provider onto the taxonomy.
func classifyStatus(status int, err error, message string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.Wrap(apperr.KindConfiguration, err, "provider rejected credentials: %s", message)
	case status == http.StatusTooManyRequests:
		return apperr.Wrap(apperr.KindRateLimit, err, "provider rate limit exceeded: %s", message)
	case status == http.StatusUnavailableForLegalReasons || strings.Contains(strings.ToLower(message), "content policy"):
		return apperr.Wrap(apperr.KindContentPolicy, err, "content rejected by provider: %s", message)
	default:
		return apperr.Wrap(apperr.KindProvider, err, "provider error (status %d): %s", status, message)
	}
}
