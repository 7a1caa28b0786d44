package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DBHost                string
	DBPort                string
	DBUser                string
	DBPass                string
	DBName                string
	ServerPort            string
	RedisURL              string
	Env                   string
	RedisTTL              time.Duration
	MinioURL              string
	MinioPublicURL        string
	MinioUser             string
	MinioPassword         string
	MinioBucket           string
	MaxFileSize           int64
	MaxImageSize          int64
	HistoryLimit          int
	SendCooldown          time.Duration
	RetentionPeriod       time.Duration
	RetentionCron         string
	QuestionCron          string
	JWTSecret             string
	IdentityTokenTTL      time.Duration
	RequireSignedIdentity bool
	FrontendURL           string
}

func LoadConfig() Config {
	return Config{
		DBHost:                getEnv("DB_HOST", "postgres"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPass:                getEnv("DB_PASSWORD", "password"),
		DBName:                getEnv("DB_NAME", "db_openchat"),
		ServerPort:            getEnv("SERVER_PORT", "8080"),
		RedisURL:              getEnv("REDIS_URL", "redis:6379"),
		Env:                   getEnv("ENV", "dev"),
		RedisTTL:              getEnvAsDuration("REDIS_TTL", 5*time.Minute),
		MinioURL:              getEnv("MINIO_URL", "localhost:9000"),
		MinioPublicURL:        getEnv("MINIO_PUBLIC_URL", ""),
		MinioUser:             getEnv("MINIO_USER", "minioadmin"),
		MinioPassword:         getEnv("MINIO_PASSWORD", "minioadmin"),
		MinioBucket:           getEnv("MINIO_BUCKET", "openchat-media"),
		MaxFileSize:           getEnvAsInt64("MAX_FILE_SIZE", 10*1024*1024), // audio clips
		MaxImageSize:          getEnvAsInt64("MAX_IMAGE_SIZE", 1024*1024),
		HistoryLimit:          getEnvAsInt("HISTORY_LIMIT", 100),
		SendCooldown:          getEnvAsDuration("SEND_COOLDOWN", 3*time.Second),
		RetentionPeriod:       getEnvAsDuration("RETENTION_PERIOD", 24*time.Hour),
		RetentionCron:         getEnv("RETENTION_CRON", "*/10 * * * *"),
		QuestionCron:          getEnv("QUESTION_CRON", "0 * * * *"),
		JWTSecret:             getEnv("JWT_SECRET", "dev-secret-change-me"),
		IdentityTokenTTL:      getEnvAsDuration("IDENTITY_TOKEN_TTL", 30*24*time.Hour),
		RequireSignedIdentity: getEnvAsBool("REQUIRE_SIGNED_IDENTITY", false),
		FrontendURL:           getEnv("FRONTEND_URL", ""),
	}
}

// ClientConfig drives chatctl.
type ClientConfig struct {
	ServerURL        string
	IdentityFile     string
	HistoryLimit     int
	SendCooldown     time.Duration
	ReactionDebounce time.Duration
	RequestTimeout   time.Duration
}

func LoadClientConfig() ClientConfig {
	identityFile := getEnv("CHAT_IDENTITY_FILE", "")
	if identityFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			identityFile = dir + "/openchat/identity.yaml"
		} else {
			identityFile = ".openchat-identity.yaml"
		}
	}
	return ClientConfig{
		ServerURL:        getEnv("CHAT_SERVER_URL", "http://localhost:8080"),
		IdentityFile:     identityFile,
		HistoryLimit:     getEnvAsInt("CHAT_HISTORY_LIMIT", 100),
		SendCooldown:     getEnvAsDuration("CHAT_SEND_COOLDOWN", 3*time.Second),
		ReactionDebounce: getEnvAsDuration("CHAT_REACTION_DEBOUNCE", 150*time.Millisecond),
		RequestTimeout:   getEnvAsDuration("CHAT_REQUEST_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.Atoi(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := time.ParseDuration(value); err == nil {
			return v
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return fallback
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort,
	)
}
