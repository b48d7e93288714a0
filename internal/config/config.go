package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	Env            string
	ServerPort     string
	DBDriver       string
	MySQLDSN       string
	SQLitePath     string
	ResetDB        bool
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	JWTSecret      string
	SessionSecret  string
	StorageDir     string
	PerPageDefault int
	PerPageMax     int
	PhotoMaxKB     int
	AdminName      string
	AdminEmail     string
	AdminPassword  string
	SwaggerHost    string
}

// Load builds Config from environment with sensible defaults.
// A .env file in the working directory is read first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Env:            getEnv("APP_ENV", "development"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "mysql")),
		MySQLDSN:       getEnv("MYSQL_DSN", "user:password@tcp(localhost:3306)/backoffice?charset=utf8mb4&parseTime=True&loc=Local"),
		SQLitePath:     getEnv("SQLITE_PATH", "backoffice.db"),
		ResetDB:        getEnvBool("RESET_DB", false),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		RedisPass:      os.Getenv("REDIS_PASSWORD"),
		JWTSecret:      getEnv("JWT_SECRET", "change-me"),
		SessionSecret:  getEnv("SESSION_SECRET", "change-me-too"),
		StorageDir:     getEnv("STORAGE_DIR", "storage/app/public"),
		PerPageDefault: getEnvInt("PER_PAGE_DEFAULT", 10),
		PerPageMax:     getEnvInt("PER_PAGE_MAX", 100),
		PhotoMaxKB:     getEnvInt("PHOTO_MAX_KB", 2048),
		AdminName:      getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:     getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		SwaggerHost:    os.Getenv("SWAGGER_HOST"),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
