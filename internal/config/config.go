package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Deadlines groups the response windows that drive the lifecycle sweep.
// All of them are environment-driven; the defaults match product copy.
type Deadlines struct {
	CancelResponse       time.Duration // counterparty must answer a cancellation request
	ExtensionEligibility time.Duration // how close to the due date an extension may be requested
	ExtensionResponse    time.Duration // client must answer an extension request
	Acceptance           time.Duration // client acceptance window after a delivery
	DisputeWindow        time.Duration // how long after delivery a dispute may be opened
}

type Config struct {
	HTTP struct {
		Addr string
	}
	DB struct {
		DSN string
	}
	Redis struct {
		Addr string
	}
	JWT struct {
		Secret string
	}
	Deadlines     Deadlines
	SweepInterval time.Duration
}

// Load reads .env (if present) and assembles the config from environment
// variables with defaults.
func Load() Config {
	_ = godotenv.Load()

	var cfg Config
	cfg.HTTP.Addr = envOrDefault("HTTP_ADDR", ":8080")
	cfg.DB.DSN = envOrDefault("DB_DSN", buildDSNFromParts())
	cfg.Redis.Addr = envOrDefault("REDIS_ADDR", "127.0.0.1:6379")
	cfg.JWT.Secret = envOrDefault("JWT_SECRET", "supersecret")

	cfg.Deadlines.CancelResponse = envOrDefaultHours("CANCEL_RESPONSE_HOURS", 48)
	cfg.Deadlines.ExtensionEligibility = envOrDefaultHours("EXTENSION_WINDOW_HOURS", 24)
	cfg.Deadlines.ExtensionResponse = envOrDefaultHours("EXTENSION_RESPONSE_HOURS", 24)
	cfg.Deadlines.Acceptance = envOrDefaultHours("ACCEPTANCE_WINDOW_HOURS", 72)
	cfg.Deadlines.DisputeWindow = envOrDefaultHours("DISPUTE_WINDOW_HOURS", 336)
	cfg.SweepInterval = envOrDefaultMinutes("SWEEP_INTERVAL_MINUTES", 5)

	return cfg
}

// buildDSNFromParts keeps compatibility with DB_USER/DB_PASSWORD/etc. style
// environments when DB_DSN is not set.
func buildDSNFromParts() string {
	user := envOrDefault("DB_USER", "postgres")
	pass := envOrDefault("DB_PASSWORD", "postgres")
	host := envOrDefault("DB_HOST", "localhost")
	port := envOrDefault("DB_PORT", "5432")
	name := envOrDefault("DB_NAME", "gigplane")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultHours(key string, def int) time.Duration {
	return time.Duration(envOrDefaultInt(key, def)) * time.Hour
}

func envOrDefaultMinutes(key string, def int) time.Duration {
	return time.Duration(envOrDefaultInt(key, def)) * time.Minute
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
