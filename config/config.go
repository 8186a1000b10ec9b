package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	ListenAddr string
	LogLevel   string
	Storage    StorageConfig
	RateLimit  RateLimitConfig
}

type StorageConfig struct {
	Type             string
	LocalStoragePath string
	DataSourceName   string
	S3               S3Config
	Redis            RedisConfig
	MongoDB          MongoDBConfig
}

type S3Config struct {
	BucketName string
	Prefix     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type MongoDBConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

var storageTypes = []string{"memory", "filesystem", "sqlite", "s3", "redis", "mongo"}

// LoadConfig reads configuration from the environment, an optional .env file
// in the working directory and, when configFile is set, that file.
func LoadConfig(configFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("LISTEN_ADDR", ":3002")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORAGE_TYPE", "memory")
	v.SetDefault("LOCAL_STORAGE_PATH", "./documents")
	v.SetDefault("DATA_SOURCE_NAME", "./documents.db")
	v.SetDefault("S3_PREFIX", "documents/")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PREFIX", "document:")
	v.SetDefault("MONGODB_DATABASE", "document_search")
	v.SetDefault("MONGODB_COLLECTION", "documents")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("RATE_LIMIT_BURST", 40)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr: v.GetString("LISTEN_ADDR"),
		LogLevel:   v.GetString("LOG_LEVEL"),
		Storage: StorageConfig{
			Type:             strings.ToLower(v.GetString("STORAGE_TYPE")),
			LocalStoragePath: v.GetString("LOCAL_STORAGE_PATH"),
			DataSourceName:   v.GetString("DATA_SOURCE_NAME"),
			S3: S3Config{
				BucketName: v.GetString("S3_BUCKET_NAME"),
				Prefix:     v.GetString("S3_PREFIX"),
			},
			Redis: RedisConfig{
				Addr:     v.GetString("REDIS_ADDR"),
				Password: v.GetString("REDIS_PASSWORD"),
				DB:       v.GetInt("REDIS_DB"),
				Prefix:   v.GetString("REDIS_PREFIX"),
			},
			MongoDB: MongoDBConfig{
				URI:        v.GetString("MONGODB_URI"),
				Database:   v.GetString("MONGODB_DATABASE"),
				Collection: v.GetString("MONGODB_COLLECTION"),
				Timeout:    time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
			},
		},
		RateLimit: RateLimitConfig{
			RPS:   v.GetFloat64("RATE_LIMIT_RPS"),
			Burst: v.GetInt("RATE_LIMIT_BURST"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case "memory", "filesystem", "sqlite", "redis":
	case "s3":
		if c.Storage.S3.BucketName == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required for storage type s3")
		}
	case "mongo":
		if c.Storage.MongoDB.URI == "" {
			return fmt.Errorf("MONGODB_URI is required for storage type mongo")
		}
	default:
		return fmt.Errorf("unknown storage type %q, expected one of %s", c.Storage.Type, strings.Join(storageTypes, ", "))
	}
	if c.RateLimit.RPS < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive when RATE_LIMIT_RPS is set")
	}
	return nil
}
