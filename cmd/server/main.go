package main

import (
	"context"
	"log"
	"os"
	"time"

	"artgen-go/internal/config"
	"artgen-go/internal/provider"
	"artgen-go/internal/repository"
	"artgen-go/internal/router"
	"artgen-go/internal/service"
	"artgen-go/internal/utils"
	"artgen-go/pkg/limiter"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	configFile := os.Getenv("ARTGEN_CONFIG")
	if configFile == "" {
		configFile = "./config/config.yaml"
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			configFile = ""
		}
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := newLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = repository.NewRedisClient(&cfg.Redis)
		defer redisClient.Close()
	}

	store, err := repository.NewStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer store.Close()

	catalogService := service.NewCatalogService(store)
	if cfg.Storage.SeedData {
		if err := catalogService.SeedDefaults(ctx); err != nil {
			logger.Fatalf("seed catalog: %v", err)
		}
	}

	gateway := provider.NewGateway(cfg.Provider.GetTimeout(), newLimiter(cfg, redisClient))
	gateway.Register("dalle", provider.NewOpenAIAdapter(cfg.Provider.OpenAIAPIKey, cfg.Provider.OpenAIBaseURL))
	if cfg.Provider.StableDiffusionURL != "" {
		gateway.Register("stable-diffusion", provider.NewStableDiffusionAdapter(
			cfg.Provider.StableDiffusionURL,
			cfg.Provider.StableDiffusionAPIKey,
			newImageSink(cfg.S3, logger),
		))
	}

	jwtManager := utils.NewJWTManager(
		cfg.JWT.SecretKey,
		cfg.JWT.Algorithm,
		cfg.JWT.GetExpireDuration(),
	)

	r := router.SetupRouter(cfg, jwtManager, logger, router.Services{
		Store:      store,
		Auth:       service.NewAuthService(store, jwtManager),
		Catalog:    catalogService,
		Gallery:    service.NewGalleryService(store),
		Generation: service.NewGenerationService(store, gateway),
		Tuning:     service.NewTuningService(store),
	})

	addr := cfg.Server.GetAddress()
	logger.WithFields(logrus.Fields{
		"addr":    addr,
		"storage": cfg.Storage.Backend,
	}).Info("server starting")

	if err := r.Run(addr); err != nil {
		logger.Fatalf("run server: %v", err)
	}
}

// newLogger configures both the returned logger and the logrus standard logger.
func newLogger(cfg config.LogConfig) *logrus.Logger {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var formatter logrus.Formatter = &logrus.JSONFormatter{}
	if cfg.Format == "text" {
		formatter = &logrus.TextFormatter{FullTimestamp: true}
	}

	logrus.SetFormatter(formatter)
	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(level)

	logger := logrus.New()
	logger.SetFormatter(formatter)
	logger.SetOutput(os.Stdout)
	logger.SetLevel(level)
	return logger
}

// newLimiter shares concurrency slots across instances when Redis is available.
func newLimiter(cfg *config.Config, client *redis.Client) limiter.Limiter {
	maxWait := cfg.Redis.GetMaxWaitDuration()
	if client != nil {
		return limiter.NewRedisLimiter(client, cfg.Provider.MaxConcurrency, cfg.Storage.KeyPrefix+":limiter:", cfg.Provider.GetTimeout()*2, maxWait)
	}
	return limiter.NewLocalLimiter(cfg.Provider.MaxConcurrency, maxWait)
}

func newImageSink(cfg config.S3Config, logger *logrus.Logger) provider.ImageSink {
	if !cfg.Enabled() {
		return provider.DataURISink{}
	}
	sink, err := provider.NewS3Sink(cfg)
	if err != nil {
		logger.WithError(err).Warn("s3 sink unavailable, falling back to data URIs")
		return provider.DataURISink{}
	}
	return sink
}
