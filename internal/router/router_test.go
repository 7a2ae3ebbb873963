package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/internal/config"
	"artgen-go/internal/provider"
	"artgen-go/internal/repository"
	"artgen-go/internal/service"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDRfake")

type fakeAdapter struct {
	url   string
	err   error
	calls atomic.Int32
}

func (a *fakeAdapter) Name() string { return "fake" }

func (a *fakeAdapter) Submit(ctx context.Context, op provider.Operation) (string, error) {
	a.calls.Inc()
	if a.err != nil {
		return "", a.err
	}
	return a.url, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Total   int64           `json:"total"`
}

type generationBody struct {
	Success  bool   `json:"success"`
	ImageURL string `json:"imageUrl"`
	Artifact *struct {
		ID     uint   `json:"id"`
		UserID *uint  `json:"userId"`
		Title  string `json:"title"`
		Model  string `json:"model"`
	} `json:"artifact"`
	Error *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

type testServer struct {
	engine  *gin.Engine
	adapter *fakeAdapter
	store   repository.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:  config.ServerConfig{MaxUploadMB: 1},
		Storage: config.StorageConfig{Backend: repository.BackendMemory},
		CORS:    config.CORSConfig{Origins: []string{"*"}, AllowMethods: []string{"GET", "POST"}},
	}

	store := repository.NewMemoryStore()
	catalog := service.NewCatalogService(store)
	require.NoError(t, catalog.SeedDefaults(context.Background()))

	adapter := &fakeAdapter{url: "https://example.test/img1.png"}
	gateway := provider.NewGateway(time.Second, nil)
	gateway.Register("dalle", adapter)
	gateway.Register("stable-diffusion", adapter)

	jwtManager := utils.NewJWTManager("router-secret", "HS256", time.Hour)
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	engine := SetupRouter(cfg, jwtManager, logger, Services{
		Store:      store,
		Auth:       service.NewAuthService(store, jwtManager),
		Catalog:    catalog,
		Gallery:    service.NewGalleryService(store),
		Generation: service.NewGenerationService(store, gateway),
		Tuning:     service.NewTuningService(store),
	})

	return &testServer{engine: engine, adapter: adapter, store: store}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(t *testing.T, path, fileField string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, "photo.png")
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) login(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada",
		"email":    "ada@example.test",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "ada",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.AccessToken)
	return login.AccessToken
}

func decodeGeneration(t *testing.T, w *httptest.ResponseRecorder) generationBody {
	t.Helper()
	var body generationBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"ada"`)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "ada", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada",
		"email":    "other@example.test",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"ada@example.test"`)

	w = s.do(t, http.MethodGet, "/api/users/99", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTextToImageEndpoint(t *testing.T) {
	s := newTestServer(t)
	request := map[string]interface{}{"prompt": "a red fox", "model": "dalle", "width": 1024, "height": 1024}

	w := s.do(t, http.MethodPost, "/api/images/text-to-image", "", request)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	anonymous := decodeGeneration(t, w)
	assert.True(t, anonymous.Success)
	assert.Equal(t, "https://example.test/img1.png", anonymous.ImageURL)
	assert.Nil(t, anonymous.Artifact)

	token := s.login(t)
	w = s.do(t, http.MethodPost, "/api/images/text-to-image", token, request)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	owned := decodeGeneration(t, w)
	require.NotNil(t, owned.Artifact)
	require.NotNil(t, owned.Artifact.UserID)
	assert.Equal(t, uint(1), *owned.Artifact.UserID)
	assert.Equal(t, "a red fox", owned.Artifact.Title)

	w = s.do(t, http.MethodGet, "/api/images?limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, int64(1), env.Total)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/images/%d", owned.Artifact.ID), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/images/abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerationErrorsCarryKind(t *testing.T) {
	s := newTestServer(t)
	s.adapter.err = apperr.New(apperr.KindRateLimit, "slow down")

	w := s.do(t, http.MethodPost, "/api/images/text-to-image", "", map[string]interface{}{"prompt": "a red fox", "model": "dalle"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decodeGeneration(t, w)
	assert.False(t, body.Success)
	require.NotNil(t, body.Error)
	assert.Equal(t, "RateLimitError", body.Error.Kind)

	w = s.do(t, http.MethodPost, "/api/images/text-to-image", "", map[string]interface{}{"prompt": "a red fox", "model": "gemini-vision"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", decodeGeneration(t, w).Error.Kind)

	w = s.upload(t, "/api/images/image-to-image", "", map[string]string{"prompt": "snow", "model": "dalle"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", decodeGeneration(t, w).Error.Kind)
}

func TestMultipartGeneration(t *testing.T) {
	s := newTestServer(t)

	w := s.upload(t, "/api/images/edit-face", "image", map[string]string{"adjustments": `{"smile":0,"age":0}`})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeGeneration(t, w)
	assert.True(t, strings.HasPrefix(body.ImageURL, "data:image/png;base64,"))
	assert.Equal(t, int32(0), s.adapter.calls.Load())

	w = s.upload(t, "/api/images/image-to-image", "image", map[string]string{"prompt": "snow", "model": "stable-diffusion", "strength": "0.5"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.upload(t, "/api/images/face-cloning", "face", map[string]string{"prompt": "as an astronaut", "model": "dalle"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.upload(t, "/api/images/edit-objects", "image", map[string]string{"prompt": "remove the car"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int32(3), s.adapter.calls.Load())

	w = s.upload(t, "/api/images/image-to-image", "image", map[string]string{"prompt": "snow", "model": "dalle", "strength": "strong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.upload(t, "/api/images/image-to-image", "image", map[string]string{"prompt": "snow", "model": "dalle", "strength": "NaN"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ValidationError", decodeGeneration(t, w).Error.Kind)
	assert.Equal(t, int32(3), s.adapter.calls.Load())

	w = s.upload(t, "/api/images/edit-face", "image", map[string]string{"adjustments": "not json"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCatalogAndHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/ai-models?active=true", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var aiModels []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &aiModels))
	assert.Len(t, aiModels, 2)

	w = s.do(t, http.MethodGet, "/api/style-presets", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Cyberpunk")

	w = s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestModelTuningEndpoints(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t)

	w := s.do(t, http.MethodPost, "/api/model-tunings", token, map[string]interface{}{
		"name":       "Portrait",
		"modelId":    1,
		"userId":     42,
		"parameters": map[string]interface{}{"temperature": 0.7},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	var created struct {
		ID        uint   `json:"id"`
		UserID    *uint  `json:"userId"`
		ModelName string `json:"modelName"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "DALL-E 3", created.ModelName)
	require.NotNil(t, created.UserID)
	assert.Equal(t, uint(1), *created.UserID)

	path := fmt.Sprintf("/api/model-tunings/%d", created.ID)

	w = s.do(t, http.MethodPatch, path, token, map[string]interface{}{"description": "x"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"description":"x"`)

	w = s.do(t, http.MethodGet, "/api/model-tunings?userId=1", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Portrait")

	w = s.do(t, http.MethodPost, "/api/model-tunings", "", map[string]interface{}{"name": "Broken"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
