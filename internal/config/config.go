package config

import (
	"fmt"
	"time"
)

// Config is the application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis_service"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Provider ProviderConfig `mapstructure:"provider"`
	S3       S3Config       `mapstructure:"s3"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ProductionMode bool   `mapstructure:"production_mode"`
	MaxUploadMB    int    `mapstructure:"max_upload_mb"`
}

// GetAddress returns host:port.
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects the persistence backend once at startup.
type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	SeedData   bool   `mapstructure:"seed_data"`
}

// RedisConfig is shared by the document store and the concurrency limiter.
type RedisConfig struct {
	Host                  string `mapstructure:"host"`
	Port                  int    `mapstructure:"port"`
	DB                    int    `mapstructure:"db"`
	Password              string `mapstructure:"password"`
	MaxWaitTime           int    `mapstructure:"max_wait_time"`
	DefaultMaxConcurrency int    `mapstructure:"default_max_concurrency"`
}

// Enabled reports whether a Redis server is configured.
func (r *RedisConfig) Enabled() bool {
	return r.Host != ""
}

// GetAddress returns host:port.
func (r *RedisConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GetMaxWaitDuration returns how long a caller may wait for a limiter slot.
func (r *RedisConfig) GetMaxWaitDuration() time.Duration {
	return time.Duration(r.MaxWaitTime) * time.Second
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	Algorithm     string `mapstructure:"algorithm"`
	ExpireMinutes int    `mapstructure:"expire_minutes"`
}

// GetExpireDuration returns the token lifetime.
func (j *JWTConfig) GetExpireDuration() time.Duration {
	return time.Duration(j.ExpireMinutes) * time.Minute
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	Origins          []string `mapstructure:"origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
}

// ProviderConfig holds credentials and limits for the image generation providers.
type ProviderConfig struct {
	OpenAIAPIKey          string `mapstructure:"openai_api_key"`
	OpenAIBaseURL         string `mapstructure:"openai_base_url"`
	StableDiffusionURL    string `mapstructure:"stable_diffusion_url"`
	StableDiffusionAPIKey string `mapstructure:"stable_diffusion_api_key"`
	TimeoutSeconds        int    `mapstructure:"timeout_seconds"`
	MaxConcurrency        int    `mapstructure:"max_concurrency"`
}

// GetTimeout returns the bounded wait applied to every provider call.
func (p *ProviderConfig) GetTimeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// S3Config configures where Stable Diffusion results are published.
type S3Config struct {
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	UsePathStyle  bool   `mapstructure:"use_path_style"`
}

// Enabled reports whether uploads should go to S3.
func (s *S3Config) Enabled() bool {
	return s.Bucket != ""
}

// LogConfig controls logrus output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
