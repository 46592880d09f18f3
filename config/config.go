package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. It is loaded once at process
// start and treated as read-only afterwards.
type Config struct {
	ServerAddr string

	// MongoDB catalog store
	MongoURI string
	MongoDB  string

	// MinIO blob store
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Public base URL prepended to blob paths to form song URLs.
	PublicStorageBaseURL string

	// Redis cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret string
	JWTExpiry time.Duration

	// External tools
	YTDLPPath   string
	FFprobePath string

	// Ingestion pipeline
	ImportCategoryName    string
	ImportTempDir         string
	PollInterval          time.Duration
	ImportTimeout         time.Duration
	SearchResultLimit     int
	MaxEstimatedSizeMB    int
	EstimateBitrateKbps   int
	DeleteOldBlobOnRename bool

	// Logging
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDurationMs reads a millisecond count from the environment.
func getEnvDurationMs(key string, fallbackMs int) time.Duration {
	return time.Duration(getEnvInt(key, fallbackMs)) * time.Millisecond
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() does not override variables already set in the environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables and defaults.")
	}

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		MongoURI: getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getEnv("MONGO_DB", "melodex"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "audios"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		PublicStorageBaseURL: getEnv("PUBLIC_STORAGE_BASE_URL", "http://127.0.0.1:9000/audios"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiry: getEnvDurationMs("JWT_EXPIRY_MS", 24*60*60*1000),

		YTDLPPath:   getEnv("YTDLP_PATH", "yt-dlp"),
		FFprobePath: getEnv("FFPROBE_PATH", "ffprobe"),

		ImportCategoryName:    getEnv("IMPORT_CATEGORY_NAME", "YouTube"),
		ImportTempDir:         getEnv("IMPORT_TEMP_DIR", os.TempDir()),
		PollInterval:          getEnvDurationMs("POLL_INTERVAL_MS", 200),
		ImportTimeout:         getEnvDurationMs("IMPORT_TIMEOUT_MS", 60000),
		SearchResultLimit:     getEnvInt("SEARCH_RESULT_LIMIT", 10),
		MaxEstimatedSizeMB:    getEnvInt("MAX_ESTIMATED_SIZE_MB", 10),
		EstimateBitrateKbps:   getEnvInt("ESTIMATE_BITRATE_KBPS", 128),
		DeleteOldBlobOnRename: getEnvBool("DELETE_OLD_BLOB_ON_RENAME", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
