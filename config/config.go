package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// DefaultChunkSize bounds the response size for open-ended range requests.
const DefaultChunkSize = 1 << 20 // 1 MiB

// Config stores the application configuration.
type Config struct {
	ServerPort string

	LibraryPath     string // Root directory of the music library
	ScanOnStartup   bool   // Run one library scan right after boot
	WatchLibrary    bool   // Watch the library directory and rescan on changes
	ScanWorkers     int    // Parallel file workers during a scan
	StreamChunkSize int64  // Max bytes served for an open-ended range request

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

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

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		LibraryPath:     getEnv("MUSIC_LIBRARY_PATH", "music"),
		ScanOnStartup:   getEnvBool("SCAN_ON_STARTUP", false),
		WatchLibrary:    getEnvBool("WATCH_LIBRARY", false),
		ScanWorkers:     getEnvInt("SCAN_WORKERS", 4),
		StreamChunkSize: int64(getEnvInt("STREAM_CHUNK_SIZE", DefaultChunkSize)),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // No hardcoded default for credentials
		DBName:     getEnv("DB_NAME", "melodex"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
