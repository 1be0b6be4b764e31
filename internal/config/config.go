package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env             string
	HTTPPort        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	QueueBackend    string
	AlertQueueKey   string
	JWTIssuer       string
	JWTSigningKey   string
	SessionTTL      time.Duration
	RateLimitPerMin int
	Timezone        string
	LogLevel        string
	LogFormat       string
	AllowOrigins    []string
}

// Load reads .env when present, then returns config populated from environment
// variables with sensible defaults.
func Load() App {
	_ = godotenv.Load()

	return App{
		Env:             getEnv("APP_ENV", "dev"),
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         intEnv("REDIS_DB", 0),
		QueueBackend:    getEnv("QUEUE_BACKEND", "memory"),
		AlertQueueKey:   getEnv("ALERT_QUEUE_KEY", "attendance:alerts"),
		JWTIssuer:       getEnv("JWT_ISSUER", "attendboard"),
		JWTSigningKey:   getEnv("JWT_SIGNING_KEY", "dev-signing-secret-change"),
		SessionTTL:      durationEnv("SESSION_TTL", 8*time.Hour),
		RateLimitPerMin: intEnv("RATE_LIMIT_PER_MIN", 240),
		Timezone:        getEnv("TIMEZONE", "Asia/Jakarta"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		AllowOrigins:    listEnv("CORS_ALLOW_ORIGINS", []string{"http://localhost:5173"}),
	}
}

// Production reports whether the app runs in a production environment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// Location resolves Timezone, falling back to UTC.
func (a App) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		log.Printf("invalid timezone %q: %v, using UTC", a.Timezone, err)
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Printf("invalid duration for %s: %v, using fallback %s", key, err, fallback)
			return fallback
		}
		return d
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var parsed int
		if _, err := fmt.Sscanf(val, "%d", &parsed); err == nil {
			return parsed
		}
		log.Printf("invalid int for %s, using fallback %d", key, fallback)
	}
	return fallback
}

func listEnv(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
