package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppEnv  string `yaml:"app_env"`
	GinMode string `yaml:"gin_mode"`
	Port    string `yaml:"port"`

	DBDriver   string `yaml:"db_driver"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"db_port"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBSSLMode  string `yaml:"db_sslmode"`
	DBPath     string `yaml:"db_path"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`

	SessionSecret   string        `yaml:"session_secret"`
	JWTSecret       string        `yaml:"jwt_secret"`
	AccessTokenTTL  time.Duration `yaml:"jwt_access_expiry"`
	RefreshTokenTTL time.Duration `yaml:"jwt_refresh_expiry"`

	UploadDir        string   `yaml:"upload_dir"`
	LogLevel         string   `yaml:"log_level"`
	CORSOrigins      []string `yaml:"cors_origins"`
	WSAllowedOrigins []string `yaml:"ws_allowed_origins"`
}

// IsProduction reports whether detailed internal errors must be hidden.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production" || c.GinMode == "release"
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and the
// environment. Environment variables win over the file; a .env file in the
// working directory is loaded first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	file := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, file); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	accessTTL, err := getDuration("JWT_ACCESS_EXPIRY", orDuration(file.AccessTokenTTL, 15*time.Minute))
	if err != nil {
		return nil, err
	}
	refreshTTL, err := getDuration("JWT_REFRESH_EXPIRY", orDuration(file.RefreshTokenTTL, 7*24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppEnv:  getEnv("APP_ENV", or(file.AppEnv, "development")),
		GinMode: getEnv("GIN_MODE", or(file.GinMode, "debug")),
		Port:    getEnv("PORT", or(file.Port, "8080")),

		DBDriver:   getEnv("DB_DRIVER", or(file.DBDriver, "postgres")),
		DBHost:     getEnv("DB_HOST", or(file.DBHost, "localhost")),
		DBPort:     getEnv("DB_PORT", or(file.DBPort, "5432")),
		DBUser:     getEnv("DB_USER", or(file.DBUser, "fieldservice")),
		DBPassword: getEnv("DB_PASSWORD", or(file.DBPassword, "fieldservice")),
		DBName:     getEnv("DB_NAME", or(file.DBName, "field_service")),
		DBSSLMode:  getEnv("DB_SSLMODE", or(file.DBSSLMode, "disable")),
		DBPath:     getEnv("DB_PATH", or(file.DBPath, "field_service.db")),

		RedisAddr:     getEnv("REDIS_ADDR", file.RedisAddr),
		RedisPassword: getEnv("REDIS_PASSWORD", file.RedisPassword),

		SessionSecret:   getEnv("SESSION_SECRET", or(file.SessionSecret, "default-secret-key-change-me")),
		JWTSecret:       getEnv("JWT_SECRET", or(file.JWTSecret, "default-jwt-secret-change-me")),
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,

		UploadDir:        getEnv("UPLOAD_DIR", or(file.UploadDir, "uploads")),
		LogLevel:         getEnv("LOG_LEVEL", or(file.LogLevel, "info")),
		CORSOrigins:      getList("CORS_ORIGIN", orList(file.CORSOrigins, []string{"http://localhost:3000"})),
		WSAllowedOrigins: getList("WS_ALLOWED_ORIGINS", file.WSAllowedOrigins),
	}, nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func or(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value == 0 {
		return fallback
	}
	return value
}

func orList(value, fallback []string) []string {
	if len(value) == 0 {
		return fallback
	}
	return value
}
