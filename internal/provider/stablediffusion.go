package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"artgen-go/internal/apperr"
)

const defaultSteps = 30

// StableDiffusionAdapter talks to an AUTOMATIC1111 compatible HTTP API and
// publishes the returned base64 images through an ImageSink.
type StableDiffusionAdapter struct {
	client  *http.Client
	baseURL string
	apiKey  string
	sink    ImageSink
}

// NewStableDiffusionAdapter creates an adapter. A nil sink inlines results as data: URIs.
func NewStableDiffusionAdapter(baseURL, apiKey string, sink ImageSink) *StableDiffusionAdapter {
	if sink == nil {
		sink = DataURISink{}
	}
	return &StableDiffusionAdapter{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		sink:    sink,
	}
}

var _ Adapter = (*StableDiffusionAdapter)(nil)

func (a *StableDiffusionAdapter) Name() string {
	return "stable-diffusion"
}

type sdRequest struct {
	Prompt            string   `json:"prompt"`
	NegativePrompt    string   `json:"negative_prompt,omitempty"`
	Width             int      `json:"width"`
	Height            int      `json:"height"`
	Steps             int      `json:"steps"`
	InitImages        []string `json:"init_images,omitempty"`
	DenoisingStrength float64  `json:"denoising_strength,omitempty"`
}

type sdResponse struct {
	Images []string `json:"images"`
	Error  string   `json:"error,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

// Submit runs txt2img for text prompts and img2img for every image based operation.
func (a *StableDiffusionAdapter) Submit(ctx context.Context, op Operation) (string, error) {
	if a.baseURL == "" {
		return "", apperr.Configuration("STABLE_DIFFUSION_URL is not configured")
	}

	width, height := sizeDimensions(op.Size)
	req := sdRequest{
		Prompt: op.Prompt,
		Width:  width,
		Height: height,
		Steps:  defaultSteps,
	}

	endpoint := "/sdapi/v1/txt2img"
	if op.Image != nil && !op.Image.Empty() {
		endpoint = "/sdapi/v1/img2img"
		req.InitImages = []string{base64.StdEncoding.EncodeToString(op.Image.Data)}
		req.DenoisingStrength = denoisingStrength(op)
		if op.Kind == KindEditFace {
			req.Prompt = "portrait photo, " + op.Prompt
		}
	}

	var result sdResponse
	if err := a.post(ctx, endpoint, req, &result); err != nil {
		return "", err
	}
	if len(result.Images) == 0 {
		return "", apperr.New(apperr.KindProvider, "stable diffusion returned no image")
	}

	data, err := base64.StdEncoding.DecodeString(result.Images[0])
	if err != nil {
		return "", apperr.Wrap(apperr.KindProvider, err, "decode stable diffusion image: %v", err)
	}

	url, err := a.sink.Publish(ctx, data, http.DetectContentType(data))
	if err != nil {
		return "", apperr.Wrap(apperr.KindProvider, err, "publish generated image: %v", err)
	}
	return url, nil
}

func (a *StableDiffusionAdapter) post(ctx context.Context, endpoint string, body interface{}, out *sdResponse) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ctx.Err()
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure sdResponse
		message := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &failure) == nil {
			if failure.Detail != "" {
				message = failure.Detail
			} else if failure.Error != "" {
				message = failure.Error
			}
		}
		return classifyStatus(resp.StatusCode, fmt.Errorf("status %d", resp.StatusCode), message)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func denoisingStrength(op Operation) float64 {
	if op.Kind == KindImageToImage && op.Strength > 0 {
		return op.Strength
	}
	return DefaultStrength
}

func sizeDimensions(size string) (int, int) {
	switch size {
	case SizeWide:
		return 1792, 1024
	case SizeTall:
		return 1024, 1792
	default:
		return DefaultDimension, DefaultDimension
	}
}
