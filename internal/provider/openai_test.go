package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"artgen-go/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func newOpenAITestServer(t *testing.T, status int, body string, captured *map[string]interface{}) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Inc()
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if captured != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestOpenAIAdapterSuccess(t *testing.T) {
	var req map[string]interface{}
	srv, hits := newOpenAITestServer(t, http.StatusOK,
		`{"created": 1, "data": [{"url": "https://example.test/img1.png"}]}`, &req)

	adapter := NewOpenAIAdapter("sk-test", srv.URL+"/v1")
	url, err := adapter.Submit(context.Background(), Operation{
		Kind:   KindTextToImage,
		Model:  "dalle",
		Prompt: "a red fox, highly detailed, high quality",
		Size:   SizeTall,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/img1.png", url)
	assert.EqualValues(t, 1, hits.Load())

	assert.Equal(t, "dall-e-3", req["model"])
	assert.Equal(t, "1024x1792", req["size"])
	assert.Equal(t, "a red fox, highly detailed, high quality", req["prompt"])
	assert.EqualValues(t, 1, req["n"])
}

func TestOpenAIAdapterDescribesImageOperations(t *testing.T) {
	var req map[string]interface{}
	srv, _ := newOpenAITestServer(t, http.StatusOK, `{"data": [{"url": "https://example.test/edit.png"}]}`, &req)

	adapter := NewOpenAIAdapter("sk-test", srv.URL+"/v1")
	_, err := adapter.Submit(context.Background(), Operation{
		Kind:   KindEditFace,
		Prompt: "more smile (intensity: 2)",
		Size:   SizeSquare,
		Image:  &Image{Data: pngBytes},
	})
	require.NoError(t, err)
	assert.Contains(t, req["prompt"], "Edit this person's face with the following adjustments: more smile (intensity: 2).")
}

func TestOpenAIAdapterErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperr.Kind
	}{
		{"rate limited", http.StatusTooManyRequests,
			`{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`, apperr.KindRateLimit},
		{"content policy", http.StatusBadRequest,
			`{"error": {"message": "Your request was rejected", "type": "invalid_request_error", "code": "content_policy_violation"}}`, apperr.KindContentPolicy},
		{"bad key", http.StatusUnauthorized,
			`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error", "code": "invalid_api_key"}}`, apperr.KindConfiguration},
		{"server error", http.StatusInternalServerError,
			`{"error": {"message": "The server had an error", "type": "server_error"}}`, apperr.KindProvider},
		{"unparseable body", http.StatusBadGateway, `<html>bad gateway</html>`, apperr.KindProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newOpenAITestServer(t, tt.status, tt.body, nil)
			adapter := NewOpenAIAdapter("sk-test", srv.URL+"/v1")

			_, err := adapter.Submit(context.Background(), Operation{Kind: KindTextToImage, Prompt: "a red fox", Size: SizeSquare})
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err), "got %v", err)
		})
	}
}

func TestOpenAIAdapterMissingKey(t *testing.T) {
	srv, hits := newOpenAITestServer(t, http.StatusOK, `{"data": []}`, nil)
	adapter := NewOpenAIAdapter("", srv.URL+"/v1")

	_, err := adapter.Submit(context.Background(), Operation{Kind: KindTextToImage, Prompt: "a red fox"})
	assert.True(t, apperr.Is(err, apperr.KindConfiguration))
	assert.Zero(t, hits.Load())
}

func TestOpenAIAdapterEmptyData(t *testing.T) {
	srv, _ := newOpenAITestServer(t, http.StatusOK, `{"data": []}`, nil)
	adapter := NewOpenAIAdapter("sk-test", srv.URL+"/v1")

	_, err := adapter.Submit(context.Background(), Operation{Kind: KindTextToImage, Prompt: "a red fox"})
	assert.True(t, apperr.Is(err, apperr.KindProvider))
}
