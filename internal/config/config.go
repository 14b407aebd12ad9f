package config

import (
	"os"
	"strconv"
)

// Config centralizes runtime settings for the API server and pipeline.
type Config struct {
	Port string

	AuthToken          string
	CORSAllowedOrigins string
	AppEnv             string

	SmokeMode bool

	TavilyAPIKey    string
	TavilyBaseURL   string
	TavilyTimeoutMS int
	TavilyRetries   int

	TwitterBearerToken     string
	TwitterBaseURL         string
	TwitterRateLimitWaitMS int

	RekaAPIKey         string
	RekaFallbackAPIKey string
	RekaBaseURL        string
	RekaModel          string
	RekaTimeoutMS      int

	KieAPIKey          string
	KieBaseURL         string
	KieModel           string
	KiePollIntervalSec int
	KiePollMaxWaitSec  int

	JobMaxRuntimeMinutes int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SearchCacheTTLSeconds int
	SearchCacheMaxEntries int

	DatabaseURL string

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		AuthToken:          getEnv("API_AUTH_TOKEN", ""),
		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		AppEnv:             getEnv("APP_ENV", "development"),

		SmokeMode: getEnvBool("SMOKE_MODE", false),

		TavilyAPIKey:    getEnv("TAVILY_API_KEY", ""),
		TavilyBaseURL:   getEnv("TAVILY_BASE_URL", "https://api.tavily.com"),
		TavilyTimeoutMS: getEnvInt("TAVILY_TIMEOUT_MS", 20000),
		TavilyRetries:   getEnvInt("TAVILY_MAX_RETRIES", 2),

		TwitterBearerToken:     getEnv("TWITTER_BEARER_TOKEN", ""),
		TwitterBaseURL:         getEnv("TWITTER_BASE_URL", "https://api.twitter.com"),
		TwitterRateLimitWaitMS: getEnvInt("TWITTER_RATE_LIMIT_WAIT_MS", 15000),

		RekaAPIKey:         getEnv("REKA_API_KEY", ""),
		RekaFallbackAPIKey: getEnv("REKA_FALLBACK_API_KEY", ""),
		RekaBaseURL:        getEnv("REKA_BASE_URL", "https://api.reka.ai/v1"),
		RekaModel:          getEnv("REKA_MODEL", "reka-flash"),
		RekaTimeoutMS:      getEnvInt("REKA_TIMEOUT_MS", 90000),

		KieAPIKey:          getEnv("KIE_API_KEY", ""),
		KieBaseURL:         getEnv("KIE_BASE_URL", "https://api.kie.ai/api/v1"),
		KieModel:           getEnv("KIE_MODEL", "kling-3.0/video"),
		KiePollIntervalSec: getEnvInt("KIE_POLL_INTERVAL_SECONDS", 15),
		KiePollMaxWaitSec:  getEnvInt("KIE_POLL_MAX_WAIT_SECONDS", 600),

		JobMaxRuntimeMinutes: getEnvInt("JOB_MAX_RUNTIME_MINUTES", 12),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SearchCacheTTLSeconds: getEnvInt("SEARCH_CACHE_TTL_SECONDS", 900),
		SearchCacheMaxEntries: getEnvInt("SEARCH_CACHE_MAX_ENTRIES", 2000),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 40),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Debug reports whether operationally dangerous endpoints are allowed.
func (c Config) Debug() bool {
	return c.AppEnv == "development" || c.AppEnv == "debug"
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
