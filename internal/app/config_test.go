package app

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := LoadConfig()

	if cfg.APIAddr != ":8080" {
		t.Errorf("unexpected default api addr: %s", cfg.APIAddr)
	}
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("unexpected default metrics addr: %s", cfg.MetricsAddr)
	}
	if cfg.ReportZone != "UTC" {
		t.Errorf("unexpected default report zone: %s", cfg.ReportZone)
	}
	if cfg.ReportCacheTTL != 5*time.Minute {
		t.Errorf("unexpected default cache ttl: %s", cfg.ReportCacheTTL)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("CAFE_API_ADDR", ":18080")
	t.Setenv("CAFE_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("CAFE_REPORT_ZONE", "Europe/Moscow")
	t.Setenv("CAFE_REPORT_CACHE_TTL_SECONDS", "30")

	cfg := LoadConfig()

	if cfg.APIAddr != ":18080" {
		t.Errorf("api addr not overridden: %s", cfg.APIAddr)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Errorf("broker list parsed wrong: %v", cfg.KafkaBrokers)
	}
	if cfg.ReportZone != "Europe/Moscow" {
		t.Errorf("report zone not overridden: %s", cfg.ReportZone)
	}
	if cfg.ReportCacheTTL != 30*time.Second {
		t.Errorf("cache ttl not overridden: %s", cfg.ReportCacheTTL)
	}
}
