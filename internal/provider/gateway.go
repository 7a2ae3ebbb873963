package provider

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/pkg/limiter"

	"github.com/sirupsen/logrus"
)

// DefaultTimeout bounds every provider call when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Gateway validates generation requests, routes them to the adapter registered
// for the model key and normalizes every failure into the apperr taxonomy.
type Gateway struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	limiter  limiter.Limiter
	timeout  time.Duration
}

// NewGateway creates a gateway. lim may be nil to disable concurrency limiting.
func NewGateway(timeout time.Duration, lim limiter.Limiter) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		adapters: make(map[string]Adapter),
		limiter:  lim,
		timeout:  timeout,
	}
}

// Register routes requests for modelKey to adapter.
func (g *Gateway) Register(modelKey string, adapter Adapter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.adapters[modelKey] = adapter
}

// Supports reports whether an adapter is registered for modelKey.
func (g *Gateway) Supports(modelKey string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adapters[modelKey]
	return ok
}

func (g *Gateway) adapter(modelKey string) (Adapter, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	adapter, ok := g.adapters[modelKey]
	if !ok {
		return nil, apperr.Validation("no provider available for model %q", modelKey)
	}
	return adapter, nil
}

// TextToImage generates an image from a prompt. Short prompts are enhanced
// before submission only.
func (g *Gateway) TextToImage(ctx context.Context, prompt, modelKey string, width, height int) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperr.Validation("prompt is required")
	}

	return g.invoke(ctx, Operation{
		Kind:   KindTextToImage,
		Model:  modelKey,
		Prompt: EnhancePrompt(prompt),
		Size:   SelectSize(width, height),
		Width:  orDefault(width),
		Height: orDefault(height),
	})
}

// ImageToImage transforms a source image guided by a prompt. A zero strength
// means DefaultStrength.
func (g *Gateway) ImageToImage(ctx context.Context, image Image, prompt, modelKey string, strength float64) (string, error) {
	if image.Empty() {
		return "", apperr.Validation("source image is required")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperr.Validation("prompt is required")
	}
	if strength == 0 {
		strength = DefaultStrength
	}
	if math.IsNaN(strength) || strength < 0 || strength > 1 {
		return "", apperr.Validation("strength must be in (0, 1], got %v", strength)
	}

	return g.invoke(ctx, Operation{
		Kind:     KindImageToImage,
		Model:    modelKey,
		Prompt:   prompt,
		Size:     SizeSquare,
		Width:    DefaultDimension,
		Height:   DefaultDimension,
		Image:    &image,
		Strength: strength,
	})
}

// FaceCloning renders the person in face according to prompt.
func (g *Gateway) FaceCloning(ctx context.Context, face Image, prompt, modelKey string) (string, error) {
	if face.Empty() {
		return "", apperr.Validation("face image is required")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperr.Validation("prompt is required")
	}

	return g.invoke(ctx, Operation{
		Kind:   KindFaceCloning,
		Model:  modelKey,
		Prompt: prompt,
		Size:   SizeSquare,
		Width:  DefaultDimension,
		Height: DefaultDimension,
		Image:  &face,
	})
}

// EditFace applies facial adjustments. When every adjustment is zero the
// original image is returned as a data: URI and no provider is called.
func (g *Gateway) EditFace(ctx context.Context, image Image, adjustments map[string]float64, modelKey string) (string, error) {
	if image.Empty() {
		return "", apperr.Validation("image is required")
	}

	clauses := AdjustmentClauses(adjustments)
	if clauses == "" {
		logrus.Debug("no face adjustments requested, returning original image")
		return image.DataURI(), nil
	}

	return g.invoke(ctx, Operation{
		Kind:   KindEditFace,
		Model:  modelKey,
		Prompt: clauses,
		Size:   SizeSquare,
		Width:  DefaultDimension,
		Height: DefaultDimension,
		Image:  &image,
	})
}

// EditObjects changes objects in image as described by prompt.
func (g *Gateway) EditObjects(ctx context.Context, image Image, prompt, modelKey string) (string, error) {
	if image.Empty() {
		return "", apperr.Validation("image is required")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", apperr.Validation("prompt is required")
	}

	return g.invoke(ctx, Operation{
		Kind:   KindEditObjects,
		Model:  modelKey,
		Prompt: prompt,
		Size:   SizeSquare,
		Width:  DefaultDimension,
		Height: DefaultDimension,
		Image:  &image,
	})
}

type submitResult struct {
	url string
	err error
}

// invoke runs one adapter call under the bounded wait and the concurrency limiter.
func (g *Gateway) invoke(ctx context.Context, op Operation) (string, error) {
	if op.Model == "" {
		return "", apperr.Validation("model is required")
	}

	adapter, err := g.adapter(op.Model)
	if err != nil {
		return "", err
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Acquire(callCtx, op.Model); err != nil {
			return "", g.normalize(ctx, op, err)
		}
		defer g.limiter.Release(callCtx, op.Model)
	}

	started := time.Now()
	done := make(chan submitResult, 1)
	go func() {
		url, err := adapter.Submit(callCtx, op)
		done <- submitResult{url: url, err: err}
	}()

	var res submitResult
	select {
	case res = <-done:
	case <-callCtx.Done():
		res = submitResult{err: callCtx.Err()}
	}

	entry := logrus.WithFields(logrus.Fields{
		"operation": op.Kind,
		"model":     op.Model,
		"provider":  adapter.Name(),
		"elapsed":   time.Since(started).String(),
	})

	if res.err != nil {
		err := g.normalize(ctx, op, res.err)
		entry.WithField("kind", apperr.KindOf(err)).Warnf("generation failed: %v", err)
		return "", err
	}
	if res.url == "" {
		entry.Warn("provider returned no image")
		return "", apperr.New(apperr.KindProvider, "provider %s returned no image", adapter.Name())
	}

	entry.Info("generation succeeded")
	return res.url, nil
}

// normalize maps an arbitrary adapter or limiter failure onto the taxonomy.
func (g *Gateway) normalize(parent context.Context, op Operation, err error) error {
	if apperr.IsTyped(err) {
		return err
	}

	switch {
	case errors.Is(err, limiter.ErrLimitReached):
		return apperr.Wrap(apperr.KindRateLimit, err, "too many concurrent requests for model %q", op.Model)
	case errors.Is(parent.Err(), context.Canceled):
		return apperr.Wrap(apperr.KindProvider, parent.Err(), "%s request cancelled", op.Kind)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(parent.Err(), context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindTimeout, err, "%s timed out after %s", op.Kind, g.timeout)
	default:
		return apperr.Wrap(apperr.KindProvider, err, "%s failed: %v", op.Kind, err)
	}
}

func orDefault(dimension int) int {
	if dimension <= 0 {
		return DefaultDimension
	}
	return dimension
}
