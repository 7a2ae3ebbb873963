package provider

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/pkg/limiter"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

type stubAdapter struct {
	calls atomic.Int64
	url   string
	err   error
	delay time.Duration
	last  Operation
}

func (s *stubAdapter) Name() string { return "stub" }

func (s *stubAdapter) Submit(ctx context.Context, op Operation) (string, error) {
	s.calls.Inc()
	s.last = op
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.url, s.err
}

func newTestGateway(adapter Adapter, timeout time.Duration) *Gateway {
	g := NewGateway(timeout, nil)
	g.Register("dalle", adapter)
	return g
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n0000")

func TestTextToImageSubmitsEnhancedPrompt(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/img1.png"}
	g := newTestGateway(stub, time.Second)

	url, err := g.TextToImage(context.Background(), "  a red fox ", "dalle", 1600, 900)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/img1.png", url)
	assert.Equal(t, "a red fox, highly detailed, high quality", stub.last.Prompt)
	assert.Equal(t, SizeWide, stub.last.Size)
	assert.Equal(t, KindTextToImage, stub.last.Kind)
}

func TestGatewayValidation(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/x.png"}
	g := newTestGateway(stub, time.Second)
	ctx := context.Background()
	img := Image{Data: pngBytes}

	cases := map[string]func() error{
		"empty prompt": func() error {
			_, err := g.TextToImage(ctx, "   ", "dalle", 0, 0)
			return err
		},
		"missing model": func() error {
			_, err := g.TextToImage(ctx, "a fox", "", 0, 0)
			return err
		},
		"unknown model": func() error {
			_, err := g.TextToImage(ctx, "a fox", "midjourney", 0, 0)
			return err
		},
		"image-to-image without image": func() error {
			_, err := g.ImageToImage(ctx, Image{}, "a fox", "dalle", 0.5)
			return err
		},
		"strength above one": func() error {
			_, err := g.ImageToImage(ctx, img, "a fox", "dalle", 1.5)
			return err
		},
		"negative strength": func() error {
			_, err := g.ImageToImage(ctx, img, "a fox", "dalle", -0.1)
			return err
		},
		"NaN strength": func() error {
			_, err := g.ImageToImage(ctx, img, "a fox", "dalle", math.NaN())
			return err
		},
		"infinite strength": func() error {
			_, err := g.ImageToImage(ctx, img, "a fox", "dalle", math.Inf(1))
			return err
		},
		"face cloning without face": func() error {
			_, err := g.FaceCloning(ctx, Image{}, "astronaut", "dalle")
			return err
		},
		"face cloning without prompt": func() error {
			_, err := g.FaceCloning(ctx, img, "", "dalle")
			return err
		},
		"edit face without image": func() error {
			_, err := g.EditFace(ctx, Image{}, map[string]float64{"smile": 1}, "dalle")
			return err
		},
		"edit objects without prompt": func() error {
			_, err := g.EditObjects(ctx, img, " ", "dalle")
			return err
		},
	}

	for name, call := range cases {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.True(t, apperr.Is(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Zero(t, stub.calls.Load())
}

func TestImageToImageDefaultsStrength(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/x.png"}
	g := newTestGateway(stub, time.Second)

	_, err := g.ImageToImage(context.Background(), Image{Data: pngBytes}, "watercolor", "dalle", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultStrength, stub.last.Strength)
	assert.NotNil(t, stub.last.Image)
}

func TestEditFaceZeroAdjustmentsShortCircuits(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/should-not-be-used.png"}
	g := newTestGateway(stub, time.Second)
	img := Image{Data: pngBytes, MimeType: "image/png"}

	url, err := g.EditFace(context.Background(), img, map[string]float64{"smile": 0, "age": 0}, "dalle")
	require.NoError(t, err)
	assert.Equal(t, img.DataURI(), url)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Zero(t, stub.calls.Load())
}

func TestEditFaceSubmitsClauses(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/face.png"}
	g := newTestGateway(stub, time.Second)

	url, err := g.EditFace(context.Background(), Image{Data: pngBytes}, map[string]float64{"smile": 2, "age": 0}, "dalle")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/face.png", url)
	assert.Equal(t, "more smile (intensity: 2)", stub.last.Prompt)
	assert.EqualValues(t, 1, stub.calls.Load())
}

func TestGatewayTimeout(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/late.png", delay: 300 * time.Millisecond}
	g := newTestGateway(stub, 20*time.Millisecond)

	_, err := g.TextToImage(context.Background(), "a slow fox", "dalle", 1024, 1024)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindTimeout), "got %v", err)
	assert.False(t, apperr.Is(err, apperr.KindProvider))
}

func TestGatewayAppliesTimeoutToEveryOperation(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/late.png", delay: 300 * time.Millisecond}
	g := newTestGateway(stub, 20*time.Millisecond)
	ctx := context.Background()
	img := Image{Data: pngBytes}

	_, err := g.EditObjects(ctx, img, "remove the car", "dalle")
	assert.True(t, apperr.Is(err, apperr.KindTimeout))

	_, err = g.FaceCloning(ctx, img, "as an astronaut", "dalle")
	assert.True(t, apperr.Is(err, apperr.KindTimeout))
}

func TestGatewayErrorNormalization(t *testing.T) {
	ctx := context.Background()

	untyped := newTestGateway(&stubAdapter{err: errors.New("boom")}, time.Second)
	_, err := untyped.TextToImage(ctx, "a red fox", "dalle", 0, 0)
	assert.True(t, apperr.Is(err, apperr.KindProvider))
	assert.Contains(t, err.Error(), "boom")

	typed := newTestGateway(&stubAdapter{err: apperr.New(apperr.KindRateLimit, "slow down")}, time.Second)
	_, err = typed.TextToImage(ctx, "a red fox", "dalle", 0, 0)
	assert.True(t, apperr.Is(err, apperr.KindRateLimit))

	empty := newTestGateway(&stubAdapter{}, time.Second)
	_, err = empty.TextToImage(ctx, "a red fox", "dalle", 0, 0)
	assert.True(t, apperr.Is(err, apperr.KindProvider))
}

func TestGatewayCallerCancellation(t *testing.T) {
	stub := &stubAdapter{url: "https://example.test/x.png", delay: 200 * time.Millisecond}
	g := newTestGateway(stub, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.TextToImage(ctx, "a red fox", "dalle", 0, 0)
	require.Error(t, err)
	assert.False(t, apperr.Is(err, apperr.KindTimeout))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGatewayLimiterFullIsRateLimit(t *testing.T) {
	lim := limiter.NewLocalLimiter(1, 10*time.Millisecond)
	require.NoError(t, lim.Acquire(context.Background(), "dalle"))

	stub := &stubAdapter{url: "https://example.test/x.png"}
	g := NewGateway(time.Second, lim)
	g.Register("dalle", stub)

	_, err := g.TextToImage(context.Background(), "a red fox", "dalle", 0, 0)
	assert.True(t, apperr.Is(err, apperr.KindRateLimit), "got %v", err)
	assert.Zero(t, stub.calls.Load())

	lim.Release(context.Background(), "dalle")
	_, err = g.TextToImage(context.Background(), "a red fox", "dalle", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, lim.InUse("dalle"))
}
