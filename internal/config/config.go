package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	LogLevel string

	DBDriver    string // "postgres" | "sqlite"
	DatabaseURL string

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Superuser created on first start when no identity with this name exists.
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	// MQTT notifications are disabled when MQTTBroker is empty.
	MQTTBroker      string
	MQTTClientID    string
	MQTTTopicPrefix string
}

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (Config, error) {
	cfg := Config{
		HTTPPort:        getenvDefault("HTTP_PORT", "8080"),
		LogLevel:        strings.ToLower(getenvDefault("LOG_LEVEL", "info")),
		DBDriver:        strings.ToLower(getenvDefault("DB_DRIVER", "postgres")),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTTL:       getenvDuration("JWT_ACCESS_TTL", time.Hour),
		RefreshTTL:      getenvDuration("JWT_REFRESH_TTL", 24*time.Hour),
		AdminUsername:   getenvDefault("ADMIN_USERNAME", "admin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		AdminEmail:      getenvDefault("ADMIN_EMAIL", "admin@smartconnect.local"),
		MQTTBroker:      os.Getenv("MQTT_BROKER"),
		MQTTClientID:    getenvDefault("MQTT_CLIENT_ID", "smartconnect-api"),
		MQTTTopicPrefix: strings.TrimSuffix(getenvDefault("MQTT_TOPIC_PREFIX", "smartconnect"), "/"),
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is empty")
	}
	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return cfg, errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("JWT_SECRET is empty")
	}
	return cfg, nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			return d
		}
	}
	return def
}
