package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	ServerAddr string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	LogLevel   string

	UseS3    bool
	S3Bucket string
	S3Region string

	UploadDir          string
	ProfilePicturePath string

	ConsoleSessionTTL  time.Duration
	CapabilityCacheTTL time.Duration
	OutboxRetention    time.Duration
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "rbac_console"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		UseS3:    getEnvBool("USE_S3", false),
		S3Bucket: getEnv("S3_BUCKET", ""),
		S3Region: getEnv("S3_REGION", ""),

		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		ProfilePicturePath: getEnv("PROFILE_PICTURE_PATH", "profile-photos"),

		ConsoleSessionTTL:  getEnvDuration("CONSOLE_SESSION_TTL", 30*time.Minute),
		CapabilityCacheTTL: getEnvDuration("CAPABILITY_CACHE_TTL", time.Minute),
		OutboxRetention:    getEnvDuration("OUTBOX_RETENTION", 30*24*time.Hour),
	}

	return cfg
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
