package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	LLMProvider   string
	LLMModel      string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	ProposalStore string
	ProposalTTL   time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret    string
	JWTPublicKey string
	JWTIssuer    string

	CORSOrigins      []string
	RateLimitRPS     float64
	RateLimitBurst   int
	ChatHistoryLimit int
	MaxUploadMB      int
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	provider := strings.ToLower(envOr("LLM_PROVIDER", ProviderGemini))
	return Config{
		Addr:     envOr("ADDR", ":8080"),
		DBPath:   envOr("DB_PATH", "file:studyflash.db"),
		LogLevel: envOr("LOG_LEVEL", "INFO"),

		LLMProvider:   provider,
		LLMModel:      envOr("LLM_MODEL", defaultModel(provider)),
		GeminiAPIKey:  os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		LLMTimeout:    envDurationOr("LLM_TIMEOUT", 60*time.Second),

		ProposalStore: strings.ToLower(envOr("PROPOSAL_STORE", StoreMemory)),
		ProposalTTL:   envDurationOr("PROPOSAL_TTL", 30*time.Minute),
		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envIntOr("REDIS_DB", 0),

		JWTSecret:    os.Getenv("AUTH_JWT_SECRET"),
		JWTPublicKey: os.Getenv("AUTH_JWT_PUBLIC_KEY"),
		JWTIssuer:    os.Getenv("AUTH_ISSUER"),

		CORSOrigins:      splitList(envOr("CORS_ORIGINS", "*")),
		RateLimitRPS:     envFloatOr("RATE_LIMIT_RPS", 2),
		RateLimitBurst:   envIntOr("RATE_LIMIT_BURST", 5),
		ChatHistoryLimit: envIntOr("CHAT_HISTORY_LIMIT", 10),
		MaxUploadMB:      envIntOr("MAX_UPLOAD_MB", 32),
	}
}

// Validate returns the first configuration problem found, or nil.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("ADDR cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.LLMProvider)
	}
	if c.LLMModel == "" {
		return fmt.Errorf("LLM_MODEL cannot be empty")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	switch c.ProposalStore {
	case StoreMemory:
	case StoreRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when PROPOSAL_STORE=redis")
		}
	default:
		return fmt.Errorf("PROPOSAL_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.ProposalStore)
	}
	if c.ProposalTTL <= 0 {
		return fmt.Errorf("PROPOSAL_TTL must be positive")
	}
	if c.JWTSecret == "" && c.JWTPublicKey == "" {
		return fmt.Errorf("one of AUTH_JWT_SECRET or AUTH_JWT_PUBLIC_KEY is required")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive and RATE_LIMIT_BURST at least 1")
	}
	if c.ChatHistoryLimit < 0 {
		return fmt.Errorf("CHAT_HISTORY_LIMIT cannot be negative")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be at least 1")
	}
	return nil
}

func defaultModel(provider string) string {
	if provider == ProviderOpenAI {
		return "gpt-4.1-nano"
	}
	return "gemini-2.5-flash"
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envFloatOr(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid value for %s=%q, using default %g", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
