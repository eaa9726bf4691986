// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"

	RetrievalMemory   = "memory"
	RetrievalPostgres = "postgres"
	RetrievalWeaviate = "weaviate"
)

// Config holds every setting the CLI reads from the environment.
type Config struct {
	LogLevel  string `validate:"oneof=debug info warn warning error"`
	LogFormat string `validate:"oneof=text json"`

	// Concurrency caps parallel node invocations per layer; 0 means unbounded.
	Concurrency int  `validate:"min=0"`
	StrictTypes bool `validate:"-"`

	// MaxInputSize caps command-line input values in bytes; 0 uses the CLI default.
	MaxInputSize int `validate:"min=0"`

	RunStore string        `validate:"oneof=memory file redis"`
	RunsDir  string        `validate:"required_if=RunStore file"`
	RunTTL   time.Duration `validate:"min=0"`
	LockTTL  time.Duration `validate:"min=0"`
	Redis    RedisConfig

	// EncryptionKey is a base64 AES-256 key sealing persisted run payloads.
	EncryptionKey string `validate:"omitempty,base64"`
	// PIIPatterns are key regexps whose values are masked before persisting.
	PIIPatterns []string `validate:"dive,required"`

	Retrieval string `validate:"oneof=memory postgres weaviate"`
	Postgres  PostgresConfig
	Weaviate  WeaviateConfig
	OpenAI    OpenAIConfig
}

type RedisConfig struct {
	Addr     string `validate:"required_if=Enabled true"`
	Password string
	DB       int `validate:"min=0"`
	Prefix   string
	Enabled  bool
}

type PostgresConfig struct {
	URL        string `validate:"required_if=Enabled true"`
	MaxConns   int32  `validate:"min=0"`
	MinConns   int32  `validate:"min=0"`
	Dimensions int    `validate:"min=1"`
	Enabled    bool
}

type WeaviateConfig struct {
	Scheme  string `validate:"omitempty,oneof=http https"`
	Host    string `validate:"required_if=Enabled true"`
	Enabled bool
}

type OpenAIConfig struct {
	APIKey         string
	BaseURL        string `validate:"omitempty,url"`
	EmbeddingModel string
	Timeout        time.Duration `validate:"min=0"`
}

var validate = validator.New()

// Load reads an optional .env file and then the environment.
// An explicit envFile must exist; the default ".env" may be absent.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		LogLevel:     getEnv("SPINDLE_LOG_LEVEL", "info"),
		LogFormat:    getEnv("SPINDLE_LOG_FORMAT", "text"),
		Concurrency:  getEnvAsInt("SPINDLE_CONCURRENCY", 0),
		StrictTypes:  getEnvAsBool("SPINDLE_STRICT_TYPES", false),
		MaxInputSize: getEnvAsInt("SPINDLE_MAX_INPUT_SIZE", 4096),
		RunStore:     getEnv("SPINDLE_RUN_STORE", StoreFile),
		RunsDir:      getEnv("SPINDLE_RUNS_DIR", filepath.Join(".spindle", "runs")),
		RunTTL:       getEnvAsDuration("SPINDLE_RUN_TTL", 0),
		LockTTL:      getEnvAsDuration("SPINDLE_LOCK_TTL", 30*time.Second),
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Prefix:   getEnv("REDIS_PREFIX", "spindle:"),
		},
		EncryptionKey: getEnv("SPINDLE_ENCRYPTION_KEY", ""),
		PIIPatterns:   getEnvAsList("SPINDLE_PII_KEYS"),
		Retrieval:     getEnv("SPINDLE_RETRIEVAL", RetrievalMemory),
		Postgres: PostgresConfig{
			URL:        getEnv("DATABASE_URL", ""),
			MaxConns:   int32(getEnvAsInt("DB_MAX_CONNECTIONS", 10)),
			MinConns:   int32(getEnvAsInt("DB_MIN_CONNECTIONS", 1)),
			Dimensions: getEnvAsInt("VECTOR_DIMENSIONS", 1536),
		},
		Weaviate: WeaviateConfig{
			Scheme: getEnv("WEAVIATE_SCHEME", "http"),
			Host:   getEnv("WEAVIATE_HOST", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", ""),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
		},
	}
	cfg.Redis.Enabled = cfg.RunStore == StoreRedis
	cfg.Postgres.Enabled = cfg.Retrieval == RetrievalPostgres
	cfg.Weaviate.Enabled = cfg.Retrieval == RetrievalWeaviate

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
