// Package config loads runtime settings from the environment. A .env file in
// the working directory is read first when present; real environment
// variables always win over it.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DBPath          string
	BackupDir       string
	LogLevel        string
	LogPretty       bool
	ShutdownTimeout time.Duration
	BcryptCost      int

	// Sessions
	RedisURL      string
	SessionTTL    time.Duration
	SecureCookies bool

	// Search. An empty MeiliURL disables the index and the in-store
	// matcher serves searches.
	MeiliURL       string
	MeiliMasterKey string

	// Media uploads. An empty MinioEndpoint disables /api/upload.
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
	MediaPublicURL string
}

// Load reads the optional .env files and then the environment.
func Load(envFiles ...string) Config {
	// Missing files are fine, godotenv never overrides variables already set.
	_ = godotenv.Load(envFiles...)

	return Config{
		Addr:            getenv("BLOGNEST_ADDR", ":8080"),
		DBPath:          getenv("BLOGNEST_DB_PATH", "data/badger"),
		BackupDir:       getenv("BLOGNEST_BACKUP_DIR", "data/backups"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LogPretty:       getenvBool("LOG_PRETTY", false),
		ShutdownTimeout: getenvSeconds("SHUTDOWN_TIMEOUT_SECONDS", 10),
		BcryptCost:      getenvInt("BCRYPT_COST", 12),

		RedisURL:      getenv("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL:    getenvSeconds("SESSION_TTL_SECONDS", 2592000),
		SecureCookies: getenvBool("SECURE_COOKIES", false),

		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "blognest"),
		MinioUseSSL:    getenvBool("MINIO_USE_SSL", false),
		MediaPublicURL: strings.TrimRight(getenv("MEDIA_PUBLIC_URL", ""), "/"),
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
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

func getenvBool(key string, fallback bool) bool {
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

func getenvSeconds(key string, fallback int) time.Duration {
	return time.Duration(getenvInt(key, fallback)) * time.Second
}
