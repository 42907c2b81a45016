package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendModeLocal  = "local"
	BackendModeRemote = "remote"
)

type Config struct {
	Port          string
	Env           string
	LogLevel      string
	JWTSecret     string
	AllowedOrigin string
	// Backend collaborators: "local" runs against Postgres + R2 directly,
	// "remote" proxies to the upstream catalog REST API.
	BackendMode    string
	BackendBaseURL string
	BackendAPIKey  string
	BackendTimeout time.Duration
	// DB Config (local mode)
	DBUrl             string
	DBMaxConns        int32
	DBMinConns        int32
	DBMaxConnIdleTime time.Duration
	// R2 Storage (local mode)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string
	R2UploadTimeout   time.Duration
	// Cache
	CacheCatalogTTL time.Duration
	// Upload Configuration
	MaxUploadSizeMB int64
	// Business Rules
	PriceFloor      float64
	DraftSessionTTL time.Duration
}

func LoadConfig() *Config {
	// 1. Check if a specific config file is requested via env var
	configFile := os.Getenv("CONFIG_FILE")
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			log.Printf("Warning: Failed to load config file '%s': %v", configFile, err)
		} else {
			log.Printf("Loaded configuration from %s", configFile)
		}
	} else {
		// 2. Default fallback: Try loading .env (standard local dev)
		// We don't error here because in pure docker/prod envs, .env might not exist,
		// and we rely on system env vars.
		if err := godotenv.Load(); err != nil {
			log.Println("No .env file found or error loading it, relying on system env vars")
		}
	}

	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		JWTSecret:     getEnv("JWT_SECRET", "default_secret_CHANGE_ME"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),

		BackendMode:    getEnv("BACKEND_MODE", BackendModeLocal),
		BackendBaseURL: getEnv("BACKEND_BASE_URL", ""),
		BackendAPIKey:  getEnv("BACKEND_API_KEY", ""),
		BackendTimeout: getDurationEnv("BACKEND_TIMEOUT", 15*time.Second),

		DBUrl:             getEnv("DB_DSN", ""),
		DBMaxConns:        getInt32Env("DB_MAX_CONNS", 50),
		DBMinConns:        getInt32Env("DB_MIN_CONNS", 10),
		DBMaxConnIdleTime: getDurationEnv("DB_MAX_CONN_IDLE_TIME", time.Minute*15),

		// R2 Storage
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),
		R2UploadTimeout:   getDurationEnv("R2_UPLOAD_TIMEOUT", 30*time.Second),

		// Reference lists change rarely; 30m matches the admin screen lifetime
		CacheCatalogTTL: getDurationEnv("CACHE_CATALOG_TTL", 30*time.Minute),

		// Upload defaults: 10MB max per image
		MaxUploadSizeMB: getInt64Env("MAX_UPLOAD_SIZE_MB", 10),

		// Business rules: 1000 currency-units minimum product price
		PriceFloor:      getFloat64Env("PRICE_FLOOR", 1000),
		DraftSessionTTL: getDurationEnv("DRAFT_SESSION_TTL", 2*time.Hour),
	}

	cfg.Validate()
	return cfg
}

func (c *Config) Validate() {
	if c.JWTSecret == "default_secret_CHANGE_ME" {
		log.Println("WARNING: Using default JWT secret. Setting up for failure in production.")
	}
	switch c.BackendMode {
	case BackendModeLocal:
		if c.DBUrl == "" {
			log.Fatal("CRITICAL: DB_DSN is required in local backend mode")
		}
	case BackendModeRemote:
		if c.BackendBaseURL == "" {
			log.Fatal("CRITICAL: BACKEND_BASE_URL is required in remote backend mode")
		}
	default:
		log.Fatalf("CRITICAL: unknown BACKEND_MODE '%s' (want local or remote)", c.BackendMode)
	}
	if c.PriceFloor < 0 {
		log.Fatal("CRITICAL: PRICE_FLOOR must not be negative")
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using fallback", key)
	}
	return fallback
}

func getInt64Env(key string, fallback int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
		log.Printf("Invalid int64 for %s, using fallback", key)
	}
	return fallback
}
