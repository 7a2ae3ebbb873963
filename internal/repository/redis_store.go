package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/internal/models"

	"github.com/go-redis/redis/v8"
)

// Collection names of the document store.
const (
	collectionUsers        = "users"
	collectionImages       = "images"
	collectionStylePresets = "style_presets"
	collectionAiModels     = "ai_models"
	collectionModelTunings = "model_tunings"
)

// RedisStore persists every entity as a JSON document in Redis.
// Ids come from a per-collection INCR sequence and timestamps are ISO-8601 strings.
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore wraps a connected client. prefix namespaces every key.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "artgen"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

var _ Store = (*RedisStore)(nil)

type userDoc struct {
	ID           uint    `json:"id"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	DisplayName  *string `json:"displayName,omitempty"`
	Avatar       *string `json:"avatar,omitempty"`
	PasswordHash string  `json:"passwordHash"`
	CreatedAt    string  `json:"createdAt"`
}

type artifactDoc struct {
	ID        uint           `json:"id"`
	UserID    *uint          `json:"userId"`
	Title     string         `json:"title"`
	Prompt    string         `json:"prompt"`
	ImageURL  string         `json:"imageUrl"`
	Width     int            `json:"width"`
	Height    int            `json:"height"`
	Model     string         `json:"model"`
	Metadata  models.JSONMap `json:"metadata,omitempty"`
	CreatedAt string         `json:"createdAt"`
}

type tuningDoc struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	ModelID     uint           `json:"modelId"`
	UserID      *uint          `json:"userId"`
	Parameters  models.JSONMap `json:"parameters,omitempty"`
	CreatedAt   string         `json:"createdAt"`
	UpdatedAt   string         `json:"updatedAt"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func toUserDoc(u *models.User) userDoc {
	return userDoc{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Avatar:       u.Avatar,
		PasswordHash: u.PasswordHash,
		CreatedAt:    formatTime(u.CreatedAt),
	}
}

func (d userDoc) model() *models.User {
	return &models.User{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		DisplayName:  d.DisplayName,
		Avatar:       d.Avatar,
		PasswordHash: d.PasswordHash,
		CreatedAt:    parseTime(d.CreatedAt),
	}
}

func toArtifactDoc(a *models.Artifact) artifactDoc {
	return artifactDoc{
		ID:        a.ID,
		UserID:    a.UserID,
		Title:     a.Title,
		Prompt:    a.Prompt,
		ImageURL:  a.ImageURL,
		Width:     a.Width,
		Height:    a.Height,
		Model:     a.Model,
		Metadata:  a.Metadata,
		CreatedAt: formatTime(a.CreatedAt),
	}
}

func (d artifactDoc) model() models.Artifact {
	return models.Artifact{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		Prompt:    d.Prompt,
		ImageURL:  d.ImageURL,
		Width:     d.Width,
		Height:    d.Height,
		Model:     d.Model,
		Metadata:  d.Metadata,
		CreatedAt: parseTime(d.CreatedAt),
	}
}

func toTuningDoc(t *models.ModelTuning) tuningDoc {
	return tuningDoc{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		ModelID:     t.ModelID,
		UserID:      t.UserID,
		Parameters:  t.Parameters,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	}
}

func (d tuningDoc) model() models.ModelTuning {
	return models.ModelTuning{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		ModelID:     d.ModelID,
		UserID:      d.UserID,
		Parameters:  d.Parameters,
		CreatedAt:   parseTime(d.CreatedAt),
		UpdatedAt:   parseTime(d.UpdatedAt),
	}
}

func (s *RedisStore) docKey(collection string, id uint) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, collection, id)
}

func (s *RedisStore) seqKey(collection string) string {
	return fmt.Sprintf("%s:%s:seq", s.prefix, collection)
}

func (s *RedisStore) idsKey(collection string) string {
	return fmt.Sprintf("%s:%s:ids", s.prefix, collection)
}

func (s *RedisStore) uniqueKey(collection, field, value string) string {
	return fmt.Sprintf("%s:%s:%s:%s", s.prefix, collection, field, strings.ToLower(value))
}

func (s *RedisStore) nextID(ctx context.Context, collection string) (uint, error) {
	id, err := s.client.Incr(ctx, s.seqKey(collection)).Result()
	if err != nil {
		return 0, apperr.StorageUnavailable(err, "allocate "+collection+" id")
	}
	return uint(id), nil
}

// release drops unique claims after a failed create so the values can be reused.
func (s *RedisStore) release(ctx context.Context, keys ...string) {
	s.client.Del(context.WithoutCancel(ctx), keys...)
}

func decodeError(collection string, err error) error {
	return apperr.Wrap(apperr.KindStorageUnavailable, err, "decode %s document: %v", collection, err)
}

// claim reserves a unique value for id. It reports false when the value is taken.
func (s *RedisStore) claim(ctx context.Context, key string, id uint) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, id, 0).Result()
	if err != nil {
		return false, apperr.StorageUnavailable(err, "claim "+key)
	}
	return ok, nil
}

// putDoc writes the document and registers its id in the collection index.
func (s *RedisStore) putDoc(ctx context.Context, collection string, id uint, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, err, "encode %s document: %v", collection, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.docKey(collection, id), data, 0)
		pipe.SAdd(ctx, s.idsKey(collection), id)
		return nil
	})
	if err != nil {
		return apperr.StorageUnavailable(err, "write "+collection)
	}
	return nil
}

// getDoc loads one document into dest.
func (s *RedisStore) getDoc(ctx context.Context, collection string, id uint, dest interface{}) error {
	data, err := s.client.Get(ctx, s.docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return apperr.NotFound("%s %d not found", strings.TrimSuffix(collection, "s"), id)
	}
	if err != nil {
		return apperr.StorageUnavailable(err, "read "+collection)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return decodeError(collection, err)
	}
	return nil
}

// loadCollection reads every document of a collection in id order.
func loadCollection[T any](ctx context.Context, s *RedisStore, collection string) ([]T, error) {
	members, err := s.client.SMembers(ctx, s.idsKey(collection)).Result()
	if err != nil {
		return nil, apperr.StorageUnavailable(err, "list "+collection)
	}
	if len(members) == 0 {
		return []T{}, nil
	}

	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(collection, uint(id))
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.StorageUnavailable(err, "list "+collection)
	}

	docs := make([]T, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var doc T
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, decodeError(collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *RedisStore) CreateUser(ctx context.Context, user *models.User) error {
	id, err := s.nextID(ctx, collectionUsers)
	if err != nil {
		return err
	}

	usernameKey := s.uniqueKey(collectionUsers, "username", user.Username)
	ok, err := s.claim(ctx, usernameKey, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("username %q already exists", user.Username)
	}

	emailKey := s.uniqueKey(collectionUsers, "email", user.Email)
	ok, err = s.claim(ctx, emailKey, id)
	if err != nil {
		s.release(ctx, usernameKey)
		return err
	}
	if !ok {
		s.release(ctx, usernameKey)
		return apperr.Validation("email %q already exists", user.Email)
	}

	user.ID = id
	user.CreatedAt = s.now()
	if err := s.putDoc(ctx, collectionUsers, id, toUserDoc(user)); err != nil {
		s.release(ctx, usernameKey, emailKey)
		return err
	}
	return nil
}

func (s *RedisStore) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var doc userDoc
	if err := s.getDoc(ctx, collectionUsers, id, &doc); err != nil {
		return nil, err
	}
	return doc.model(), nil
}

func (s *RedisStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	id, err := s.client.Get(ctx, s.uniqueKey(collectionUsers, "username", username)).Uint64()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.NotFound("user %q not found", username)
	}
	if err != nil {
		return nil, apperr.StorageUnavailable(err, "read users")
	}
	return s.GetUser(ctx, uint(id))
}

func (s *RedisStore) CreateArtifact(ctx context.Context, artifact *models.Artifact) error {
	if err := checkEncodable("metadata", artifact.Metadata); err != nil {
		return err
	}

	id, err := s.nextID(ctx, collectionImages)
	if err != nil {
		return err
	}
	artifact.ID = id
	artifact.CreatedAt = s.now()
	return s.putDoc(ctx, collectionImages, id, toArtifactDoc(artifact))
}

func (s *RedisStore) GetArtifact(ctx context.Context, id uint) (*models.Artifact, error) {
	var doc artifactDoc
	if err := s.getDoc(ctx, collectionImages, id, &doc); err != nil {
		return nil, err
	}
	artifact := doc.model()
	return &artifact, nil
}

func (s *RedisStore) ListArtifacts(ctx context.Context, filter ArtifactFilter) ([]models.Artifact, error) {
	docs, err := loadCollection[artifactDoc](ctx, s, collectionImages)
	if err != nil {
		return nil, err
	}

	result := make([]models.Artifact, 0, len(docs))
	for _, doc := range docs {
		if sameOwner(doc.UserID, filter.UserID) {
			result = append(result, doc.model())
		}
	}

	newestFirst(result, artifactOrder)
	return paginate(result, filter.Limit, filter.Offset), nil
}

func (s *RedisStore) CountArtifacts(ctx context.Context) (int64, error) {
	n, err := s.client.SCard(ctx, s.idsKey(collectionImages)).Result()
	if err != nil {
		return 0, apperr.StorageUnavailable(err, "count images")
	}
	return n, nil
}

func (s *RedisStore) CreateStylePreset(ctx context.Context, preset *models.StylePreset) error {
	id, err := s.nextID(ctx, collectionStylePresets)
	if err != nil {
		return err
	}

	nameKey := s.uniqueKey(collectionStylePresets, "name", preset.Name)
	ok, err := s.claim(ctx, nameKey, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("style preset %q already exists", preset.Name)
	}

	preset.ID = id
	if err := s.putDoc(ctx, collectionStylePresets, id, preset); err != nil {
		s.release(ctx, nameKey)
		return err
	}
	return nil
}

func (s *RedisStore) GetStylePreset(ctx context.Context, id uint) (*models.StylePreset, error) {
	var preset models.StylePreset
	if err := s.getDoc(ctx, collectionStylePresets, id, &preset); err != nil {
		return nil, err
	}
	return &preset, nil
}

func (s *RedisStore) ListStylePresets(ctx context.Context) ([]models.StylePreset, error) {
	return loadCollection[models.StylePreset](ctx, s, collectionStylePresets)
}

func (s *RedisStore) CreateAiModel(ctx context.Context, model *models.AiModel) error {
	if err := checkEncodable("capabilities", model.Capabilities); err != nil {
		return err
	}

	id, err := s.nextID(ctx, collectionAiModels)
	if err != nil {
		return err
	}

	keyKey := s.uniqueKey(collectionAiModels, "key", model.Key)
	ok, err := s.claim(ctx, keyKey, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Validation("ai model key %q already exists", model.Key)
	}

	nameKey := s.uniqueKey(collectionAiModels, "name", model.Name)
	ok, err = s.claim(ctx, nameKey, id)
	if err != nil || !ok {
		s.release(ctx, keyKey)
		if err != nil {
			return err
		}
		return apperr.Validation("ai model %q already exists", model.Name)
	}

	model.ID = id
	if err := s.putDoc(ctx, collectionAiModels, id, model); err != nil {
		s.release(ctx, keyKey, nameKey)
		return err
	}
	return nil
}

func (s *RedisStore) GetAiModel(ctx context.Context, id uint) (*models.AiModel, error) {
	var model models.AiModel
	if err := s.getDoc(ctx, collectionAiModels, id, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

func (s *RedisStore) GetAiModelByKey(ctx context.Context, key string) (*models.AiModel, error) {
	id, err := s.client.Get(ctx, s.uniqueKey(collectionAiModels, "key", key)).Uint64()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.NotFound("ai model %q not found", key)
	}
	if err != nil {
		return nil, apperr.StorageUnavailable(err, "read ai_models")
	}
	return s.GetAiModel(ctx, uint(id))
}

func (s *RedisStore) ListAiModels(ctx context.Context) ([]models.AiModel, error) {
	return loadCollection[models.AiModel](ctx, s, collectionAiModels)
}

func (s *RedisStore) CreateModelTuning(ctx context.Context, tuning *models.ModelTuning) error {
	if err := checkEncodable("parameters", tuning.Parameters); err != nil {
		return err
	}

	id, err := s.nextID(ctx, collectionModelTunings)
	if err != nil {
		return err
	}
	now := s.now()
	tuning.ID = id
	tuning.CreatedAt = now
	tuning.UpdatedAt = now
	return s.putDoc(ctx, collectionModelTunings, id, toTuningDoc(tuning))
}

func (s *RedisStore) GetModelTuning(ctx context.Context, id uint) (*models.ModelTuning, error) {
	var doc tuningDoc
	if err := s.getDoc(ctx, collectionModelTunings, id, &doc); err != nil {
		return nil, err
	}
	tuning := doc.model()
	return &tuning, nil
}

func (s *RedisStore) ListModelTunings(ctx context.Context, filter TuningFilter) ([]models.ModelTuning, error) {
	docs, err := loadCollection[tuningDoc](ctx, s, collectionModelTunings)
	if err != nil {
		return nil, err
	}

	result := make([]models.ModelTuning, 0, len(docs))
	for _, doc := range docs {
		if sameOwner(doc.UserID, filter.UserID) {
			result = append(result, doc.model())
		}
	}

	newestFirst(result, tuningOrder)
	return result, nil
}

// UpdateModelTuning applies patch under WATCH so a concurrent delete is not undone.
func (s *RedisStore) UpdateModelTuning(ctx context.Context, id uint, patch models.ModelTuningPatch) (*models.ModelTuning, error) {
	if err := checkEncodable("parameters", patch.Parameters); err != nil {
		return nil, err
	}

	key := s.docKey(collectionModelTunings, id)
	var updated models.ModelTuning

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return apperr.NotFound("model tuning %d not found", id)
		}
		if err != nil {
			return apperr.StorageUnavailable(err, "read model_tunings")
		}

		var doc tuningDoc
		if err := json.Unmarshal(data, &doc); err != nil {
			return decodeError(collectionModelTunings, err)
		}

		existing := doc.model()
		updated = existing
		patch.Apply(&updated)
		updated.ID = existing.ID
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = touch(s.now(), existing.UpdatedAt)

		out, err := json.Marshal(toTuningDoc(&updated))
		if err != nil {
			return apperr.Wrap(apperr.KindValidation, err, "encode model tuning %d: %v", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		return err
	}

	if err := s.client.Watch(ctx, txf, key); err != nil {
		if apperr.IsTyped(err) {
			return nil, err
		}
		return nil, apperr.StorageUnavailable(err, "update model_tunings")
	}

	// Round-trip through the document so callers see the stored precision.
	return s.GetModelTuning(ctx, id)
}

func (s *RedisStore) DeleteModelTuning(ctx context.Context, id uint) (bool, error) {
	var deleted *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, s.docKey(collectionModelTunings, id))
		pipe.SRem(ctx, s.idsKey(collectionModelTunings), id)
		return nil
	})
	if err != nil {
		return false, apperr.StorageUnavailable(err, "delete model_tunings")
	}
	return deleted.Val() > 0, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return apperr.StorageUnavailable(err, "ping")
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
