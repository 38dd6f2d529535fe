package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the bookstore CLI.
type Config struct {
	DBPath  string
	LogMode string
}

// Load reads settings from the environment. A .env file in the working
// directory is loaded first when present; missing keys fall back to defaults.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBPath:  GetEnv("BOOKSTORE_DB", "bookstore.db"),
		LogMode: GetEnv("BOOKSTORE_LOG_MODE", "debug"),
	}
}

// GetEnv returns the environment variable's value, or defaultValue when unset.
func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
