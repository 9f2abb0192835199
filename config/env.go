package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	DefaultQuoteBaseURL = "https://api.tdameritrade.com/v1/marketdata"
	DefaultAddr         = ":8080"
	DefaultEnvFile      = ".env"
	DefaultAPIKeyField  = "api_key"
)

type Settings struct {
	APIKey         string
	QuoteBaseURL   string
	Addr           string
	LogLevel       string
	RedisURL       string
	APIKeyRedisKey string
}

// LoadEnv reads the given .env file into the process environment. Values
// already set in the environment are left alone, and a missing file is fine.
func LoadEnv(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("LoadEnv: failed to load %s file: %w", path, err)
	}

	return nil
}

// EnvFile is the .env path to load: ENV_FILE when set, .env otherwise.
func EnvFile() string {
	return getenv("ENV_FILE", DefaultEnvFile)
}

func FromEnv() Settings {
	return Settings{
		APIKey:         os.Getenv("API_KEY"),
		QuoteBaseURL:   getenv("QUOTE_BASE_URL", DefaultQuoteBaseURL),
		Addr:           getenv("PORT", DefaultAddr),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		RedisURL:       os.Getenv("REDIS_URL"),
		APIKeyRedisKey: getenv("API_KEY_REDIS_KEY", DefaultAPIKeyField),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
