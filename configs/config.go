package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string

	DatabaseDSN string

	DefaultLimit     int
	ExportMaxRecords int

	CacheTTLs       map[string]time.Duration
	CacheDefaultTTL time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		DatabaseDSN: databaseDSN(),

		DefaultLimit:     getEnvInt("DEFAULT_LIMIT", 20),
		ExportMaxRecords: getEnvInt("EXPORT_MAX_RECORDS", 10000),

		CacheTTLs: map[string]time.Duration{
			"dashboard": getEnvSeconds("CACHE_TTL_DASHBOARD", 300),
			"sales":     getEnvSeconds("CACHE_TTL_SALES", 180),
			"products":  getEnvSeconds("CACHE_TTL_PRODUCTS", 600),
			"customers": getEnvSeconds("CACHE_TTL_CUSTOMERS", 600),
			"delivery":  getEnvSeconds("CACHE_TTL_DELIVERY", 180),
			"filters":   getEnvSeconds("CACHE_TTL_FILTERS", 120),
			"export":    getEnvSeconds("CACHE_TTL_EXPORT", 30),
		},
		CacheDefaultTTL: getEnvSeconds("CACHE_TTL_DEFAULT", 180),
	}
}

// databaseDSN prefers a full DATABASE_URL and falls back to the individual
// DB_* parts.
func databaseDSN() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	user := getEnv("DB_USER", "root")
	pass := getEnv("DB_PASSWORD", "")
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "3306")
	name := getEnv("DB_NAME", "challenge_db")
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC", user, pass, host, port, name)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvSeconds(key string, defaultValue int) time.Duration {
	return time.Duration(getEnvInt(key, defaultValue)) * time.Second
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
