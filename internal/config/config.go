package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Uploads
	UploadMaxFiles    int   // validator limit per batch
	UploadMaxFileSize int64 // per file, bytes
	UploadMaxParts    int   // transport limit on multipart file parts
	UploadMaxMemory   int64 // multipart parse buffer
	UploadMaxPerDay   int   // upload rate limit per client per day

	// Store
	StoreTimeout time.Duration

	// Admin flag delivered out-of-band by the upstream auth layer
	AdminHeader string

	// Security
	RateLimitRequests int
	RateLimitDuration time.Duration

	// CORS
	AllowedOrigins []string
}

func New() *Config {
	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "portfolio"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "portfolio_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Uploads
		UploadMaxFiles:    getEnvAsInt("UPLOAD_MAX_FILES", 5),
		UploadMaxFileSize: getEnvAsInt64("UPLOAD_MAX_FILE_SIZE", 10*1024*1024),
		UploadMaxParts:    getEnvAsInt("UPLOAD_MAX_PARTS", 10),
		UploadMaxMemory:   getEnvAsInt64("UPLOAD_MAX_MEMORY", 64*1024*1024),
		UploadMaxPerDay:   getEnvAsInt("UPLOAD_MAX_PER_DAY", 200),

		// Store
		StoreTimeout: getEnvAsDuration("STORE_TIMEOUT", "5s"),

		// Admin
		AdminHeader: getEnv("ADMIN_HEADER", "X-Admin-Access"),

		// Security
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration: getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
