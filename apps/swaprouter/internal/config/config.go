package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DbURL            string
	KafkaBroker      string
	KafkaTopic       string
	APIPort          int
	WorkerCount      int
	QueueBaseDelay   time.Duration
	QueueMaxAttempts int
	ProviderLatency  time.Duration
	ExecutorLatency  time.Duration
	FailureRate      float64
	RandomSeed       int64
}

// NewConfig loads configuration from environment variables
func NewConfig() *Config {
	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	return &Config{
		DbURL:            getEnvOrFatal("DB_URL"),
		KafkaBroker:      getEnvOrFatal("KAFKA_BROKER"),
		KafkaTopic:       getEnvOrFatal("KAFKA_TOPIC"),
		APIPort:          getEnvInt("API_PORT", 8080),
		WorkerCount:      getEnvInt("WORKER_COUNT", 4),
		QueueBaseDelay:   getEnvDuration("QUEUE_BASE_DELAY", 500*time.Millisecond),
		QueueMaxAttempts: getEnvInt("QUEUE_MAX_ATTEMPTS", 3),
		ProviderLatency:  getEnvDuration("PROVIDER_LATENCY", 150*time.Millisecond),
		ExecutorLatency:  getEnvDuration("EXECUTOR_LATENCY", 400*time.Millisecond),
		FailureRate:      getEnvFloat("FAILURE_RATE", 0.05),
		RandomSeed:       getEnvInt64("RANDOM_SEED", 0), // 0 = seed from clock
	}
}

func getEnvOrFatal(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	log.Fatalf("Warning: environment variable %s not set", key)

	return ""
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
