package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64
	RateLimitRPS   int
	RateLimitBurst int

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers []string
	KafkaGroupID string

	// Assessment engine
	SEMStopThreshold     float64
	MinResponsesToStop   int
	AdaptiveMaxItemRatio float64
	InitialTheta         float64
	InitialSEM           float64

	// Alerts
	AlertDedupWindow time.Duration

	// Item bank
	ItemBankCacheTTL    time.Duration
	ScaleCatalogPath    string
	ItemBankCatalogPath string

	// Service ports
	AssessmentServicePort string
	NotifierServicePort   string
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 4*1024*1024)),
		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 100),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 200),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "sentira"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "sentira123"),
		PostgresDB:       getEnv("POSTGRES_DB", "sentira"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers: getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaGroupID: getEnv("KAFKA_GROUP_ID", "sentira-platform"),

		SEMStopThreshold:     getFloatEnv("SEM_STOP_THRESHOLD", 0.30),
		MinResponsesToStop:   getIntEnv("MIN_RESPONSES_TO_STOP", 5),
		AdaptiveMaxItemRatio: getFloatEnv("ADAPTIVE_MAX_ITEM_RATIO", 0.6),
		InitialTheta:         getFloatEnv("INITIAL_THETA", 0.0),
		InitialSEM:           getFloatEnv("INITIAL_SEM", 1.0),

		AlertDedupWindow: getDuration("ALERT_DEDUP_WINDOW", 24*time.Hour),

		ItemBankCacheTTL:    getDuration("ITEM_BANK_CACHE_TTL", 5*time.Minute),
		ScaleCatalogPath:    getEnv("SCALE_CATALOG_PATH", ""),
		ItemBankCatalogPath: getEnv("ITEM_BANK_CATALOG_PATH", ""),

		AssessmentServicePort: getEnv("ASSESSMENT_SERVICE_PORT", "8085"),
		NotifierServicePort:   getEnv("NOTIFIER_SERVICE_PORT", "8086"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
