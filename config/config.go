package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Env            string
	RequestTimeout time.Duration
	CORSOrigins    []string
	Mongo          MongoConfig
	Redis          RedisConfig
	RateLimit      RateLimitConfig
	Log            LogConfig

	// RoleReconcileInterval is the period of the role approval repair job.
	// Zero disables the job.
	RoleReconcileInterval time.Duration

	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Only safe behind a proxy that overwrites those headers.
	TrustProxy bool
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	Transactions   bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	MealTTL  time.Duration
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

type LogConfig struct {
	Level  string
	Format string
	File   string
}

var ErrMissingMongoURI = errors.New("config: MONGO_URI is required")

// Load reads the process environment, after merging a .env file when one is
// present. Variables already set in the environment win over .env values.
func Load() (Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	cfg := Config{
		Port:           getEnv("PORT", "5000"),
		Env:            getEnv("ENV", "development"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
		Mongo: MongoConfig{
			URI:            os.Getenv("MONGO_URI"),
			Database:       getEnv("MONGO_DB", "localChefBazaar"),
			ConnectTimeout: getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			Transactions:   getEnvBool("MONGO_TRANSACTIONS", false),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
			MealTTL:  getEnvDuration("MEAL_CACHE_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
			Burst: getEnvInt("RATE_LIMIT_BURST", 10),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
			File:   os.Getenv("LOG_FILE"),
		},
		RoleReconcileInterval: getEnvDuration("ROLE_RECONCILE_INTERVAL", time.Minute),
		TrustProxy:            getEnvBool("TRUST_PROXY", false),
	}

	if cfg.Mongo.URI == "" {
		return Config{}, ErrMissingMongoURI
	}
	if cfg.Port[0] == ':' {
		cfg.Port = cfg.Port[1:]
	}

	return cfg, nil
}

// Addr is the listen address for http.Server.
func (c Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
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

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
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

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
