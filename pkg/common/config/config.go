package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is constructed once in main and handed to each component
// explicitly; nothing reads it through a package global.
type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Database
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Redis
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	UnreadCountTTL   time.Duration

	// Kafka
	KafkaBrokers     []string
	KafkaReportTopic string

	// Auth
	JWTSecret   string
	JWTIssuer   string
	JWTTokenTTL time.Duration

	// Object storage
	AWSRegion       string
	AWSBucketName   string
	AWSEndpoint     string
	AWSUsePathStyle bool

	// Uploads
	ReportMaxSizeMB   int
	PresignExpiry     time.Duration
	NotifyTemplateFile string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 32*1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "labbuddy"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "labbuddy123"),
		PostgresDB:       getEnv("POSTGRES_DB", "labbuddy"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		UnreadCountTTL: getDuration("UNREAD_COUNT_TTL", time.Minute),

		KafkaBrokers:     getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		KafkaReportTopic: getEnv("KAFKA_REPORT_TOPIC", "report-events"),

		JWTSecret:   getEnv("JWT_SECRET", "change-me-in-production"),
		JWTIssuer:   getEnv("JWT_ISSUER", "labbuddy"),
		JWTTokenTTL: getDuration("JWT_TOKEN_TTL", 30*time.Minute),

		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		AWSBucketName:   getEnv("AWS_BUCKET_NAME", ""),
		AWSEndpoint:     getEnv("AWS_ENDPOINT", ""),
		AWSUsePathStyle: getBoolEnv("AWS_USE_PATH_STYLE", false),

		ReportMaxSizeMB:    getIntEnv("REPORT_MAX_SIZE_MB", 20),
		PresignExpiry:      getDuration("PRESIGN_EXPIRY", time.Hour),
		NotifyTemplateFile: getEnv("NOTIFY_TEMPLATE_FILE", ""),
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

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
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
