package config

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Config holds server-level settings. Storage endpoints and credentials are
// intentionally not loaded here: the adapters read them at first client use and
// the target resolver re-reads S3_TARGET on every call, so that a migration can
// flip the target without a restart.
type Config struct {
	Env      string
	HttpPort string
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		zap.L().Debug("no .env file found, reading from environment")
	}
	return &Config{
		Env:      getEnv("APP_ENV", "dev"),
		HttpPort: getEnv("HTTP_PORT", "8080"),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
