package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ListenAddr string
	// Базовый URL REST-бэкенда приложения.
	BackendURL string
	// Путь к файлу локального кэша SQLite.
	CacheDBPath string
	// Таймаут исходящих запросов к бэкенду, секунды.
	HTTPTimeoutSec int
	LogLevel       string
}

func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:     getEnv("LISTEN_ADDR", ":8080"),
		BackendURL:     getEnv("BACKEND_URL", ""),
		CacheDBPath:    getEnv("CACHE_DB_PATH", "medibook-cache.db"),
		HTTPTimeoutSec: getEnvInt("HTTP_TIMEOUT_SEC", 15),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}

	// минимальная валидация
	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("invalid config: BACKEND_URL must not be empty")
	}
	if cfg.HTTPTimeoutSec <= 0 {
		return nil, fmt.Errorf("invalid config: HTTP_TIMEOUT_SEC must be positive")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}
