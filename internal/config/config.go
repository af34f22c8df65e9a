package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"cinebook/internal/cache"
	"cinebook/internal/database"
	"cinebook/internal/external"
	"cinebook/internal/messaging"
	"cinebook/internal/session"
)

// Config содержит конфигурацию приложения
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration
	AllowedOrigins []string

	// Время жизни выбора мест на странице бронирования
	VisitTTL time.Duration
	// Время жизни закешированных списков фильмов и расписаний
	CatalogTTL time.Duration
	NewsFile   string

	Upstream external.MovieAPIConfig
	Redis    cache.Config
	Session  session.Config
	NATS     messaging.Config
	// Архив аудита сессий для cmd/consumers; пустой хост отключает его
	AuditDB database.Config
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		VisitTTL:   time.Duration(getEnvInt("BOOKING_VISIT_TTL_MIN", 15)) * time.Minute,
		CatalogTTL: time.Duration(getEnvInt("CATALOG_CACHE_TTL_SEC", 60)) * time.Second,
		NewsFile:   getEnv("NEWS_FILE", "data/news.yaml"),

		Upstream: external.MovieAPIConfig{
			BaseURL:        getEnv("UPSTREAM_BASE_URL", "https://movienew.cybersoft.edu.vn"),
			CybersoftToken: getEnv("UPSTREAM_CYBERSOFT_TOKEN", ""),
			Group:          getEnv("UPSTREAM_GROUP", "GP01"),
			Timeout:        time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SEC", 15)) * time.Second,
		},

		Redis: cache.Config{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		Session: session.Config{
			Secret:       getEnv("SESSION_SECRET", "change-me"),
			TTL:          time.Duration(getEnvInt("SESSION_TTL_MIN", 24*60)) * time.Minute,
			CookieName:   getEnv("SESSION_COOKIE", "cinebook_session"),
			SecureCookie: getEnvBool("SESSION_COOKIE_SECURE", false),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "cinebook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "cinebook-api"),
		},

		AuditDB: database.Config{
			Host:               getEnv("AUDIT_DB_HOST", ""),
			Port:               getEnvInt("AUDIT_DB_PORT", 5432),
			User:               getEnv("AUDIT_DB_USER", "cinebook"),
			Password:           getEnv("AUDIT_DB_PASSWORD", ""),
			DBName:             getEnv("AUDIT_DB_NAME", "cinebook_audit"),
			SSLMode:            getEnv("AUDIT_DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("AUDIT_DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:       getEnvInt("AUDIT_DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetimeMin: getEnvInt("AUDIT_DB_CONN_MAX_LIFETIME_MIN", 30),
		},
	}
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList читает список через запятую
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
