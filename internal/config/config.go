// internal/config/config.go
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string

	// Backends
	StoreDriver string // firestore | postgres | memory
	AuthDriver  string // firebase | memory

	// Firebase
	FirebaseProjectID       string
	FirebaseCredentialsJSON string
	FirebaseAPIKey          string
	IdentityToolkitURL      string

	// DB
	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	// Cache
	RedisURL string
	CacheTTL time.Duration
	LRUSize  int

	// SMTP
	SMTPUser     string
	SMTPPass     string
	SMTPFrom     string
	SMTPHost     string
	SMTPPort     int
	SMTPFromName string

	// R2 Storage
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string

	// Events
	KafkaBrokers []string
	KafkaTopic   string

	// Local auth provider
	SessionSecret string
	SessionTTL    time.Duration

	BackendTimeout      time.Duration
	OrphanSweepInterval time.Duration

	// CORS
	AllowedOrigins string

	// Public URL of the UI shell, used in email links
	AppURL string

	SeedDemoData bool
}

func Load() *Config {
	if os.Getenv("ENV") != "production" {
		_ = godotenv.Load() // optional .env for local
	}

	return &Config{
		ServerPort: getEnv("PORT", "8085"),

		StoreDriver: getEnv("STORE_DRIVER", "firestore"),
		AuthDriver:  getEnv("AUTH_DRIVER", "firebase"),

		FirebaseProjectID:       os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		FirebaseAPIKey:          os.Getenv("FIREBASE_API_KEY"),
		IdentityToolkitURL:      getEnv("IDENTITY_TOOLKIT_URL", "https://identitytoolkit.googleapis.com"),

		DBHost:    getEnv("DB_HOST", "localhost"),
		DBPort:    getEnv("DB_PORT", "5432"),
		DBUser:    getEnv("DB_USER", "postgres"),
		DBPass:    getEnv("DB_PASS", "postgres"),
		DBName:    getEnv("DB_NAME", "backcheck_db"),
		DBSSLMode: getEnv("DB_SSLMODE", "disable"),

		RedisURL: os.Getenv("REDIS_URL"),
		CacheTTL: getDuration("CACHE_TTL", 5*time.Minute),
		LRUSize:  getInt("LRU_SIZE", 1024),

		SMTPUser:     os.Getenv("SMTP_USER"),
		SMTPPass:     os.Getenv("SMTP_PASS"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getInt("SMTP_PORT", 587),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "BackCheck"),

		R2AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2BucketName:      os.Getenv("R2_BUCKET_NAME"),
		R2PublicURL:       os.Getenv("R2_PUBLIC_URL"),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "backcheck.events"),

		SessionSecret: getEnv("SESSION_SECRET", "dev-session-secret-change-me"),
		SessionTTL:    getDuration("SESSION_TTL", time.Hour),

		BackendTimeout:      getDuration("BACKEND_TIMEOUT", 10*time.Second),
		OrphanSweepInterval: getDuration("ORPHAN_SWEEP_INTERVAL", 15*time.Minute),

		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:3001"),
		AppURL:         getEnv("APP_URL", "http://localhost:3000"),

		SeedDemoData: getEnv("SEED_DEMO", "false") == "true",
	}
}

// SMTPEnabled reports whether outbound email is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

func (c *Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2BucketName != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Fatalf("❌ Invalid %s: %v", key, err)
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("❌ Invalid %s: %v", key, err)
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
