package config

import (
	"os"
	"strconv"
	"time"
)

// ProviderMode selects which wire protocol the model provider uses.
type ProviderMode string

const (
	ProviderChatCompletions ProviderMode = "chat_completions"
	ProviderResponses       ProviderMode = "responses"
	ProviderHybrid          ProviderMode = "hybrid"
)

// Config carries every tunable the engine needs. It is built once in main and
// passed into constructors so nothing inside the engine reads the environment.
type Config struct {
	ProviderMode  ProviderMode
	CanaryPercent int

	OpenAIKey   string
	OpenAIModel string
	GeminiKey   string
	GeminiModel string

	RequestTimeout time.Duration
	MaxAttempts    int
	BackoffBase    time.Duration
	BackoffCap     time.Duration

	RateLimitPerMinute int
	DeclineTTL         time.Duration
	HistoryWindow      int

	ReassuranceCooldownTurns int
	NearFullProgressCutoff   int

	PostgresURL string
	RedisAddr   string
	JWTSecret   string
	Port        string
}

func Load() *Config {
	return &Config{
		ProviderMode:  sanitizeProviderMode(os.Getenv("REMY_PROVIDER_MODE")),
		CanaryPercent: clampInt(getEnvInt("REMY_CANARY_PERCENT", 0), 0, 100),

		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: getEnvWithDefault("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		GeminiModel: getEnvWithDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		RequestTimeout: getEnvDuration("REMY_PROVIDER_TIMEOUT_MS", 2800*time.Millisecond),
		MaxAttempts:    clampInt(getEnvInt("REMY_PROVIDER_MAX_ATTEMPTS", 3), 1, 5),
		BackoffBase:    getEnvDuration("REMY_PROVIDER_BACKOFF_BASE_MS", 250*time.Millisecond),
		BackoffCap:     getEnvDuration("REMY_PROVIDER_BACKOFF_CAP_MS", 2500*time.Millisecond),

		RateLimitPerMinute: clampInt(getEnvInt("REMY_RATE_LIMIT_PER_MINUTE", 8), 1, 120),
		DeclineTTL:         getEnvDuration("REMY_DECLINE_TTL_MS", 24*time.Hour),
		HistoryWindow:      clampInt(getEnvInt("REMY_HISTORY_WINDOW", 3), 1, 10),

		ReassuranceCooldownTurns: clampInt(getEnvInt("REMY_REASSURANCE_COOLDOWN_TURNS", 4), 1, 20),
		NearFullProgressCutoff:   clampInt(getEnvInt("REMY_NEAR_FULL_PROGRESS_CUTOFF", 80), 0, 100),

		PostgresURL: os.Getenv("POSTGRES_URL"),
		RedisAddr:   getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Port:        getEnvWithDefault("PORT", "8080"),
	}
}

func sanitizeProviderMode(raw string) ProviderMode {
	switch ProviderMode(raw) {
	case ProviderResponses, ProviderHybrid, ProviderChatCompletions:
		return ProviderMode(raw)
	default:
		return ProviderChatCompletions
	}
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		return defaultValue
	}
	return time.Duration(ms) * time.Millisecond
}

func clampInt(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
