package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

var (
	globalConfig *Config
	once         sync.Once
	configPath   string
)

// envBindings maps well-known environment variables onto config keys.
var envBindings = map[string]string{
	"provider.openai_api_key":           "OPENAI_API_KEY",
	"provider.openai_base_url":          "OPENAI_BASE_URL",
	"provider.stable_diffusion_url":     "STABLE_DIFFUSION_URL",
	"provider.stable_diffusion_api_key": "STABLE_DIFFUSION_API_KEY",
	"storage.backend":                   "STORAGE_BACKEND",
	"storage.sqlite_path":               "SQLITE_PATH",
	"jwt.secret_key":                    "JWT_SECRET_KEY",
	"redis_service.host":                "REDIS_HOST",
	"redis_service.password":            "REDIS_PASSWORD",
	"s3.bucket":                         "S3_BUCKET",
	"s3.access_key":                     "AWS_ACCESS_KEY_ID",
	"s3.secret_key":                     "AWS_SECRET_ACCESS_KEY",
}

// LoadConfig loads the process-wide configuration once.
func LoadConfig(configFile string) (*Config, error) {
	var err error
	var cfg *Config

	once.Do(func() {
		cfg, err = Load(configFile)
		if err == nil {
			globalConfig = cfg
		}
		configPath = configFile
	})

	return globalConfig, err
}

// Load reads configuration from configFile (or ./config.yaml, ./config/config.yaml)
// overlaid with environment variables. A missing default file is not an error.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetDefault("storage.seed_data", true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 10
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "memory"
	}
	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = "./database/artgen.db"
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "artgen"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.MaxWaitTime == 0 {
		cfg.Redis.MaxWaitTime = 5
	}
	if cfg.Redis.DefaultMaxConcurrency == 0 {
		cfg.Redis.DefaultMaxConcurrency = 4
	}
	if cfg.JWT.Algorithm == "" {
		cfg.JWT.Algorithm = "HS256"
	}
	if cfg.JWT.ExpireMinutes == 0 {
		cfg.JWT.ExpireMinutes = 43200
	}
	if cfg.CORS.AllowMethods == nil {
		cfg.CORS.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	}
	if cfg.CORS.AllowHeaders == nil {
		cfg.CORS.AllowHeaders = []string{"*"}
	}
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 30
	}
	if cfg.Provider.MaxConcurrency == 0 {
		cfg.Provider.MaxConcurrency = cfg.Redis.DefaultMaxConcurrency
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}

	if cfg.JWT.SecretKey == "" {
		return fmt.Errorf("jwt secret key must not be empty")
	}

	if cfg.Provider.TimeoutSeconds < 0 {
		return fmt.Errorf("invalid provider timeout: %d", cfg.Provider.TimeoutSeconds)
	}

	switch cfg.Storage.Backend {
	case "memory":
	case "redis":
		if !cfg.Redis.Enabled() {
			return fmt.Errorf("storage backend redis requires redis_service.host")
		}
	case "sqlite":
		dbDir := filepath.Dir(cfg.Storage.SQLitePath)
		if _, err := os.Stat(dbDir); os.IsNotExist(err) {
			if err := os.MkdirAll(dbDir, 0755); err != nil {
				return fmt.Errorf("create database directory: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	return nil
}

// GetConfig returns the process-wide configuration.
func GetConfig() *Config {
	return globalConfig
}

// ReloadConfig reads the configuration file again.
func ReloadConfig() (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path not set")
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}
