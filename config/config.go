package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Session  SessionConfig
	LLM      LLMConfig
	Database DatabaseConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Addr           string
	Environment    string
	LogFilePath    string
	UploadDir      string // binary uploads
	TextDir        string // extracted pivot texts
	AudioDir       string // generated audio, reserved
	MaxUploadBytes int
}

type SessionConfig struct {
	Backend  string // "memory" or "redis"
	RedisURL string
	TTL      time.Duration
	Key      string // base64, 32 bytes; empty means generated at startup
}

type LLMConfig struct {
	Provider    string // "openai" or "ollama"
	Model       string
	APIKey      string
	BaseURL     string
	OllamaURL   string
	MaxChars    int
	Points      int
	Timeout     time.Duration
	CountTokens bool
}

type DatabaseConfig struct {
	DSN string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

const DefaultMaxUploadBytes = 20 * 1024 * 1024

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	baseDir := getEnv("BASE_DIR", ".")
	uploadDir := getEnv("UPLOAD_DIR", filepath.Join(baseDir, "uploads"))

	return &Config{
		App: AppConfig{
			Addr:           getEnv("SERVER_ADDR", ":3000"),
			Environment:    getEnv("GO_ENV", "development"),
			LogFilePath:    getEnv("LOG_FILE_PATH", filepath.Join(baseDir, "logs", "studydigest.log")),
			UploadDir:      uploadDir,
			TextDir:        getEnv("TEXT_DIR", filepath.Join(uploadDir, "texts")),
			AudioDir:       getEnv("AUDIO_DIR", filepath.Join(baseDir, "static", "audio")),
			MaxUploadBytes: getEnvAsInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		},
		Session: SessionConfig{
			Backend:  strings.ToLower(getEnv("SESSION_BACKEND", "memory")),
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),
			TTL:      getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			Key:      getEnv("SESSION_KEY", ""),
		},
		LLM: LLMConfig{
			Provider:    strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
			Model:       getEnv("LLM_MODEL", "gpt-5"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			OllamaURL:   getEnv("OLLAMA_URL", "http://localhost:11434/api/generate"),
			MaxChars:    getEnvAsInt("SUMMARY_MAX_CHARS", 8000),
			Points:      getEnvAsInt("SUMMARY_POINTS", 5),
			Timeout:     getEnvAsDuration("LLM_TIMEOUT", 0),
			CountTokens: getEnvAsBool("COUNT_PROMPT_TOKENS", false),
		},
		Database: DatabaseConfig{
			DSN: getEnv("PG_DSN", ""),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
