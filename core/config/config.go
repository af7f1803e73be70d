package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env     string
	Port    string
	Version string
	OTel    OTelConfig
	GitHub  GitHubConfig
	LLM     LLMConfig
	CORS    CORSConfig
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

type GitHubConfig struct {
	Token    string
	BaseURL  string // Optional: for GitHub Enterprise or tests
	CacheTTL time.Duration
}

type LLMConfig struct {
	Provider  string // "openai" or "anthropic"
	APIKey    string
	BaseURL   string // Optional: for custom endpoints
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type CORSConfig struct {
	AllowOrigin string
}

// Load loads configuration from environment variables.
// In development, values may also come from a local .env file.
//
// A missing or misconfigured LLM provider does not fail Load: the
// service starts without analysis and reports it through /health.
func Load() (Config, error) {
	if getEnv("ASSISTANT_ENV", "development") == "development" {
		_ = godotenv.Load(".env")
	}

	cfg := Config{
		Env:     getEnv("ASSISTANT_ENV", "development"),
		Port:    getEnv("PORT", "8000"),
		Version: getEnv("SERVICE_VERSION", "1.0.0"),
		OTel: OTelConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:     getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "issue-assistant"),
		},
		GitHub: GitHubConfig{
			Token:    getEnv("GITHUB_TOKEN", ""),
			BaseURL:  getEnv("GITHUB_API_BASE_URL", ""),
			CacheTTL: getEnvSeconds("GITHUB_CACHE_TTL", 300),
		},
		LLM: LLMConfig{
			Provider:  getEnv("LLM_PROVIDER", "openai"),
			BaseURL:   getEnv("LLM_BASE_URL", ""),
			MaxTokens: getEnvInt("LLM_MAX_TOKENS", 1000),
			Timeout:   getEnvSeconds("LLM_TIMEOUT_SECONDS", 45),
		},
		CORS: CORSConfig{
			AllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),
		},
	}
	cfg.OTel.ServiceVersion = cfg.Version

	switch cfg.LLM.Provider {
	case "anthropic":
		cfg.LLM.APIKey = getEnv("ANTHROPIC_API_KEY", "")
		cfg.LLM.Model = getEnv("ANTHROPIC_MODEL", "")
	default:
		cfg.LLM.APIKey = getEnv("OPENAI_API_KEY", "")
		cfg.LLM.Model = getEnv("OPENAI_MODEL", "")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != "" && (c.Provider == "openai" || c.Provider == "anthropic")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvInt(key, fallback)) * time.Second
}
