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
	DatabaseURL string
	SslCertPath string
	AIAPIKey    string
	GenModel    string
	Port        string
	JWTSecret   string
	LogMode     string

	CacheDriver  string
	CachePath    string
	RedisAddr    string
	SyncInterval time.Duration

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	TargetLanguage  string
	NativeLanguage  string
	DefaultTimezone string
	AllowedOrigins  []string
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GenModel:     getEnv("GEN_MODEL", "gemini-1.5-flash"),
		Port:         getEnv("PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		LogMode:      getEnv("LOG_MODE", "dev"),
		CacheDriver:  strings.ToLower(getEnv("CACHE_DRIVER", "sqlite")),
		CachePath:    getEnv("CACHE_PATH", "penpal-cache.db"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", time.Minute),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),

		TargetLanguage:  getEnv("TARGET_LANGUAGE", "French"),
		NativeLanguage:  getEnv("NATIVE_LANGUAGE", "English"),
		DefaultTimezone: getEnv("DEFAULT_TIMEZONE", "UTC"),
		AllowedOrigins:  getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	return cfg
}

// ArchiveEnabled reports whether S3 archiving of finalized entries is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.AwsAccessKey != "" && c.AwsSecretKey != "" && c.BucketName != ""
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare integers are seconds
		if secs := getEnvInt(key, -1); secs > 0 {
			return time.Duration(secs) * time.Second
		}
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	if d <= 0 {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
