package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Grounding modes select how answers are tied to the uploaded book.
const (
	GroundingHandle = "handle"
	GroundingInline = "inline"
)

// Storage backends.
const (
	StorageLocal = "local"
	StorageMinIO = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings.
// An empty Host means no database: sessions and the answer ledger stay in memory.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// Enabled reports whether a database host was configured.
func (c DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects where uploads and synthesized speech are persisted.
type StorageConfig struct {
	Backend string
	DataDir string
	MinIO   MinIOConfig
}

// GeminiConfig configures the generative-language collaborator.
type GeminiConfig struct {
	APIKey string
	Model  string
}

// SpeechConfig configures the text-to-speech collaborator.
type SpeechConfig struct {
	CredentialsFile string
	LanguageCode    string
	Encoding        string // "mp3" or "wav"
}

// PipelineConfig tunes the ask pipeline.
type PipelineConfig struct {
	GroundingMode string
	MaxBookChars  int
	StageTimeout  time.Duration
}

// RetentionConfig bounds on-disk growth. Zero values disable the rule.
type RetentionConfig struct {
	MaxAge   time.Duration
	MaxFiles int
	Interval time.Duration
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port        string
	StaticDir   string
	BodyLimitMB int
	Database    DatabaseConfig
	Storage     StorageConfig
	Gemini      GeminiConfig
	Speech      SpeechConfig
	Pipeline    PipelineConfig
	Retention   RetentionConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
func Load() *AppConfig {
	return &AppConfig{
		Port:        getEnv("PORT", "8080"),
		StaticDir:   getEnv("STATIC_DIR", "static"),
		BodyLimitMB: getEnvInt("BODY_LIMIT_MB", 50),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", StorageLocal)),
			DataDir: getEnv("DATA_DIR", "."),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		},
		Speech: SpeechConfig{
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			LanguageCode:    getEnv("TTS_LANGUAGE", "en-US"),
			Encoding:        strings.ToLower(getEnv("TTS_ENCODING", "mp3")),
		},
		Pipeline: PipelineConfig{
			GroundingMode: strings.ToLower(getEnv("GROUNDING_MODE", GroundingHandle)),
			MaxBookChars:  getEnvInt("MAX_BOOK_CHARS", 15000),
			StageTimeout:  getEnvDuration("STAGE_TIMEOUT", 90*time.Second),
		},
		Retention: RetentionConfig{
			MaxAge:   getEnvDuration("RETENTION_MAX_AGE", 0),
			MaxFiles: getEnvInt("RETENTION_MAX_FILES", 0),
			Interval: getEnvDuration("RETENTION_INTERVAL", 10*time.Minute),
		},
	}
}

// Validate rejects enumerated settings with unknown values, so a typo fails startup
// instead of silently selecting a default.
func (c *AppConfig) Validate() error {
	switch c.Pipeline.GroundingMode {
	case GroundingHandle, GroundingInline:
	default:
		return fmt.Errorf("GROUNDING_MODE must be %q or %q, got %q", GroundingHandle, GroundingInline, c.Pipeline.GroundingMode)
	}
	switch c.Storage.Backend {
	case StorageLocal, StorageMinIO:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", StorageLocal, StorageMinIO, c.Storage.Backend)
	}
	switch c.Speech.Encoding {
	case "mp3", "wav", "linear16":
	default:
		return fmt.Errorf("TTS_ENCODING must be \"mp3\" or \"wav\", got %q", c.Speech.Encoding)
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}
