package provider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"artgen-go/internal/apperr"
	"artgen-go/internal/config"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSDServer(t *testing.T, handler func(path string, req sdRequest) (int, interface{})) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sdRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		status, body := handler(r.URL.Path, req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestStableDiffusionTextToImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngBytes)
	srv := newSDServer(t, func(path string, req sdRequest) (int, interface{}) {
		assert.Equal(t, "/sdapi/v1/txt2img", path)
		assert.Equal(t, 1792, req.Width)
		assert.Equal(t, 1024, req.Height)
		assert.Empty(t, req.InitImages)
		return http.StatusOK, sdResponse{Images: []string{encoded}}
	})

	adapter := NewStableDiffusionAdapter(srv.URL+"/", "", nil)
	url, err := adapter.Submit(context.Background(), Operation{Kind: KindTextToImage, Prompt: "a red fox", Size: SizeWide})
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+encoded, url)
}

func TestStableDiffusionImageToImage(t *testing.T) {
	srv := newSDServer(t, func(path string, req sdRequest) (int, interface{}) {
		assert.Equal(t, "/sdapi/v1/img2img", path)
		require.Len(t, req.InitImages, 1)
		decoded, err := base64.StdEncoding.DecodeString(req.InitImages[0])
		require.NoError(t, err)
		assert.Equal(t, pngBytes, decoded)
		assert.Equal(t, 0.4, req.DenoisingStrength)
		return http.StatusOK, sdResponse{Images: []string{base64.StdEncoding.EncodeToString(pngBytes)}}
	})

	sink := &recordingSink{url: "https://cdn.example.test/out.png"}
	adapter := NewStableDiffusionAdapter(srv.URL, "", sink)
	url, err := adapter.Submit(context.Background(), Operation{
		Kind:     KindImageToImage,
		Prompt:   "watercolor",
		Size:     SizeSquare,
		Image:    &Image{Data: pngBytes},
		Strength: 0.4,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.test/out.png", url)
	assert.Equal(t, pngBytes, sink.data)
}

func TestStableDiffusionErrors(t *testing.T) {
	_, err := NewStableDiffusionAdapter("", "", nil).Submit(context.Background(), Operation{Prompt: "x"})
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))

	srv := newSDServer(t, func(path string, req sdRequest) (int, interface{}) {
		if strings.Contains(req.Prompt, "busy") {
			return http.StatusTooManyRequests, sdResponse{Detail: "queue full"}
		}
		return http.StatusInternalServerError, sdResponse{Error: "CUDA out of memory"}
	})
	adapter := NewStableDiffusionAdapter(srv.URL, "", nil)

	_, err = adapter.Submit(context.Background(), Operation{Prompt: "busy fox", Size: SizeSquare})
	assert.True(t, apperr.Is(err, apperr.KindRateLimit), "got %v", err)

	_, err = adapter.Submit(context.Background(), Operation{Prompt: "fox", Size: SizeSquare})
	assert.True(t, apperr.Is(err, apperr.KindProvider), "got %v", err)
	assert.Contains(t, err.Error(), "CUDA out of memory")
}

type recordingSink struct {
	url  string
	data []byte
}

func (s *recordingSink) Publish(_ context.Context, data []byte, _ string) (string, error) {
	s.data = data
	return s.url, nil
}

type fakeUploader struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/" + *input.Key}, nil
}

func TestS3SinkPublish(t *testing.T) {
	up := &fakeUploader{}
	sink := &S3Sink{uploader: up, bucket: "art", publicBaseURL: "https://cdn.example.test", keyPrefix: "generated"}

	url, err := sink.Publish(context.Background(), pngBytes, "image/png")
	require.NoError(t, err)
	require.NotNil(t, up.input)
	assert.Equal(t, "art", *up.input.Bucket)
	assert.True(t, strings.HasPrefix(*up.input.Key, "generated/"))
	assert.True(t, strings.HasSuffix(*up.input.Key, ".png"))
	assert.Equal(t, "https://cdn.example.test/"+*up.input.Key, url)

	sink.publicBaseURL = ""
	url, err = sink.Publish(context.Background(), pngBytes, "image/jpeg")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".jpg"))
	assert.True(t, strings.HasPrefix(url, "https://bucket.s3.amazonaws.com/generated/"))

	up.err = errors.New("access denied")
	_, err = sink.Publish(context.Background(), pngBytes, "image/png")
	assert.Error(t, err)
}

func TestNewS3SinkRequiresBucket(t *testing.T) {
	_, err := NewS3Sink(config.S3Config{})
	assert.Error(t, err)
}
