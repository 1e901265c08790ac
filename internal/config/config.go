// Package config centralizes runtime settings for the API and worker.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	AuthToken          string
	CORSAllowedOrigins []string

	DatabaseURL string

	OpenRouterAPIKey         string
	OpenRouterBaseURL        string
	OpenRouterTimeoutMS      int
	OpenRouterMaxRetries     int
	OpenRouterSiteURL        string
	OpenRouterAppName        string
	InterpreterModelPrimary  string
	InterpreterModelFallback string
	InterpreterMaxRetries    int
	InterpreterTemperature   float64
	InterpreterMaxTokens     int
	AcceptDegradedPlans      bool

	ReplicateAPIToken  string
	ReplicateBaseURL   string
	ReplicateModel     string
	ReplicateTimeoutMS int

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string
	StoragePath        string
	StoragePublicBase  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
	RedisDLQ      string
	RedisGroup    string
	RedisConsumer string
	MaxAttempts   int

	RateLimitRPS   float64
	RateLimitBurst int

	WorkerEnabled     bool
	WorkerConcurrency int
	WorkerJobsPerMin  int

	LogLevel string
}

// LoadDotEnv loads the given .env files, ignoring missing ones.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AuthToken:          getEnv("API_AUTH_TOKEN", ""),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		OpenRouterAPIKey:         getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL:        getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterTimeoutMS:      getEnvInt("OPENROUTER_TIMEOUT_MS", 30000),
		OpenRouterMaxRetries:     getEnvInt("OPENROUTER_MAX_RETRIES", 2),
		OpenRouterSiteURL:        getEnv("OPENROUTER_SITE_URL", ""),
		OpenRouterAppName:        getEnv("OPENROUTER_APP_NAME", "DreamCard"),
		InterpreterModelPrimary:  getEnv("INTERPRETER_MODEL_PRIMARY", "meta-llama/llama-3.3-70b-instruct"),
		InterpreterModelFallback: getEnv("INTERPRETER_MODEL_FALLBACK", "meta-llama/llama-3.1-70b-instruct"),
		InterpreterMaxRetries:    getEnvInt("INTERPRETER_MAX_RETRIES", 2),
		InterpreterTemperature:   getEnvFloat("INTERPRETER_TEMPERATURE", 0.9),
		InterpreterMaxTokens:     getEnvInt("INTERPRETER_MAX_TOKENS", 1500),
		AcceptDegradedPlans:      getEnvBool("ACCEPT_DEGRADED_PLANS", true),

		ReplicateAPIToken:  getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateBaseURL:   getEnv("REPLICATE_BASE_URL", "https://api.replicate.com/v1"),
		ReplicateModel:     getEnv("REPLICATE_MODEL", "stability-ai/stable-diffusion-3"),
		ReplicateTimeoutMS: getEnvInt("REPLICATE_TIMEOUT_MS", 120000),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseBucket:     getEnv("SUPABASE_BUCKET", "dreamcard-images"),
		StoragePath:        getEnv("STORAGE_PATH", "data/artifacts"),
		StoragePublicBase:  getEnv("STORAGE_PUBLIC_BASE", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisStream:   getEnv("REDIS_STREAM", "dream_jobs"),
		RedisDLQ:      getEnv("REDIS_DLQ_STREAM", "dream_jobs_dlq"),
		RedisGroup:    getEnv("REDIS_GROUP", "dream_workers"),
		RedisConsumer: getEnv("REDIS_CONSUMER", "worker-1"),
		MaxAttempts:   getEnvInt("QUEUE_MAX_ATTEMPTS", 2),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		WorkerEnabled:     getEnvBool("WORKER_ENABLED", true),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerJobsPerMin:  getEnvInt("WORKER_JOBS_PER_MINUTE", 10),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}
