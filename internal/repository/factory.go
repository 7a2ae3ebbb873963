package repository

import (
	"context"
	"fmt"

	"artgen-go/internal/apperr"
	"artgen-go/internal/config"
	"artgen-go/internal/models"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// NewRedisClient builds a client from the shared Redis settings.
func NewRedisClient(cfg *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddress(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewStore opens the backend named by cfg.Storage.Backend. client is only
// used by the redis backend and may be nil otherwise.
func NewStore(ctx context.Context, cfg *config.Config, client *redis.Client) (Store, error) {
	var store Store

	switch cfg.Storage.Backend {
	case BackendMemory, "":
		store = NewMemoryStore()
	case BackendSQLite:
		db, err := models.OpenDB(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, apperr.StorageUnavailable(err, "open sqlite")
		}
		store = NewGormStore(db)
	case BackendRedis:
		if client == nil {
			return nil, apperr.Configuration("redis backend selected without a redis client")
		}
		store = NewRedisStore(client, cfg.Storage.KeyPrefix)
	default:
		return nil, apperr.Configuration("unknown storage backend %q", cfg.Storage.Backend)
	}

	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("storage backend %s: %w", cfg.Storage.Backend, err)
	}

	logrus.WithField("backend", cfg.Storage.Backend).Info("artifact store ready")
	return store, nil
}
