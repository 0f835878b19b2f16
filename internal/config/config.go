package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a .env file if present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file found: %v", err)
	}
}

// GetEnv returns an environment variable or a default value.
func GetEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return defaultVal
}

// GetIntEnv returns an int environment variable or a default value.
func GetIntEnv(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// GetDurationEnv returns a duration environment variable or a default value.
func GetDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// Config carries every runtime setting. It is built once in main and
// handed to the components that need it; nothing reads the environment
// after startup.
type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	DBMaxIdleConns    int
	DBMaxOpenConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	PaystackSecretKey     string
	PaystackBaseURL       string
	PaystackWebhookSecret string

	// Pacing for deposit reconciliation: re-verify every VerifyInterval
	// until VerifyThresholdAttempts, then back off to VerifyBackoff.
	VerifyInterval          time.Duration
	VerifyBackoff           time.Duration
	VerifyThresholdAttempts int

	SchedulerInterval time.Duration

	GoogleClientID  string
	APIKeyLimit     int
	DefaultCurrency string
}

// Load assembles the configuration from the environment.
func Load() *Config {
	return &Config{
		Port: GetEnv("PORT", "3000"),

		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBUser:     GetEnv("DB_USER", "postgres"),
		DBPassword: GetEnv("DB_PASSWORD", "postgres"),
		DBName:     GetEnv("DB_NAME", "kolo"),

		DBMaxIdleConns:    GetIntEnv("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns:    GetIntEnv("DB_MAX_OPEN_CONNS", 100),
		DBConnMaxLifetime: GetDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		DBConnMaxIdleTime: GetDurationEnv("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),

		RedisHost:     GetEnv("REDIS_HOST", "localhost"),
		RedisPort:     GetEnv("REDIS_PORT", "6379"),
		RedisPassword: GetEnv("REDIS_PASSWORD", ""),
		RedisDB:       GetIntEnv("REDIS_DB", 0),

		PaystackSecretKey:     GetEnv("PAYSTACK_SECRET_KEY", ""),
		PaystackBaseURL:       GetEnv("PAYSTACK_BASE_URL", "https://api.paystack.co"),
		PaystackWebhookSecret: GetEnv("PAYSTACK_WEBHOOK_SECRET", ""),

		VerifyInterval:          GetDurationEnv("VERIFY_INTERVAL", time.Minute),
		VerifyBackoff:           GetDurationEnv("VERIFY_BACKOFF", 15*time.Minute),
		VerifyThresholdAttempts: GetIntEnv("VERIFY_THRESHOLD_ATTEMPTS", 5),

		SchedulerInterval: GetDurationEnv("SCHEDULER_INTERVAL", time.Minute),

		GoogleClientID:  GetEnv("GOOGLE_CLIENT_ID", ""),
		APIKeyLimit:     GetIntEnv("API_KEY_LIMIT", 10),
		DefaultCurrency: GetEnv("DEFAULT_CURRENCY", "NGN"),
	}
}

// DSN builds the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}
