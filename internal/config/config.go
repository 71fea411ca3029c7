package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends accepted by BACKEND.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Persistence
	Backend            string // supabase | postgres
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	DatabaseURL        string

	// Fallback conversation cache. Empty RedisURL means in-process.
	RedisURL             string
	ConversationCacheTTL time.Duration // 0 = no eviction

	// Analytics fan-out. Empty NATSURL disables publishing.
	NATSURL     string
	NATSSubject string

	// LLM
	LLMProvider string // openai | anthropic | none
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMRPS      float64
	LLMBurst    int

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Admin
	AdminKey        string
	AdminKeyHash    string // bcrypt; wins over AdminKey when set
	AdminJWTSecret  string
	AdminSessionTTL time.Duration

	// HTTP surface
	AllowedOrigins    []string
	ChatRateLimit     int // per IP per minute; 0 disables
	DefaultRegionSlug string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Backend:            strings.ToLower(getEnv("BACKEND", BackendSupabase)),
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		DatabaseURL:        getEnv("DATABASE_URL", ""),

		RedisURL:             getEnv("REDIS_URL", ""),
		ConversationCacheTTL: getEnvDuration("CONVERSATION_CACHE_TTL", 0),

		NATSURL:     getEnv("NATS_URL", ""),
		NATSSubject: getEnv("NATS_SUBJECT", "bepit.analytics"),

		LLMProvider: strings.ToLower(getEnv("LLM_PROVIDER", "none")),
		LLMAPIKey:   getEnv("LLM_API_KEY", ""),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		LLMModel:    getEnv("LLM_MODEL", ""),
		LLMRPS:      getEnvFloat("LLM_RPS", 2),
		LLMBurst:    getEnvInt("LLM_BURST", 4),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		AdminKey:        getEnv("ADMIN_KEY", ""),
		AdminKeyHash:    getEnv("ADMIN_KEY_HASH", ""),
		AdminJWTSecret:  getEnv("ADMIN_JWT_SECRET", ""),
		AdminSessionTTL: getEnvDuration("ADMIN_SESSION_TTL", 12*time.Hour),

		AllowedOrigins:    getEnvList("CORS_ALLOWED_ORIGINS"),
		ChatRateLimit:     getEnvInt("CHAT_RATE_LIMIT", 30),
		DefaultRegionSlug: getEnv("DEFAULT_REGION_SLUG", "regiao-dos-lagos"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

// LLMEnabled reports whether a text generator should be built.
func (c *Config) LLMEnabled() bool {
	return c.LLMProvider != "" && c.LLMProvider != "none" && c.LLMAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
