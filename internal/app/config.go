package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config описывает настройки запуска сервиса. Все значения читаются из
// окружения с префиксом CAFE_; пустой PostgresDSN включает in-memory
// хранилище, пустые KafkaBrokers/RedisAddr выключают брокер и кэш.
type Config struct {
	APIAddr     string
	MetricsAddr string

	PostgresDSN  string
	KafkaBrokers []string
	RedisAddr    string

	ReportZone     string
	ReportCacheTTL time.Duration
}

// DefaultConfig возвращает значения по умолчанию для локального запуска.
func DefaultConfig() Config {
	return Config{
		APIAddr:        ":8080",
		MetricsAddr:    ":9090",
		ReportZone:     "UTC",
		ReportCacheTTL: 5 * time.Minute,
	}
}

// LoadConfig читает .env (если есть) и переменные окружения.
func LoadConfig() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug(".env file loaded")
	}

	cfg := DefaultConfig()
	if v := os.Getenv("CAFE_API_ADDR"); v != "" {
		cfg.APIAddr = v
	}
	if v := os.Getenv("CAFE_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("CAFE_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("CAFE_KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("CAFE_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("CAFE_REPORT_ZONE"); v != "" {
		cfg.ReportZone = v
	}
	if v := os.Getenv("CAFE_REPORT_CACHE_TTL_SECONDS"); v != "" {
		if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
			cfg.ReportCacheTTL = time.Duration(seconds) * time.Second
		}
	}
	return cfg
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
