package config

import (
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PLACES_ENDPOINT", "http://places.local")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.SearchDebounce != 300*time.Millisecond {
		t.Fatalf("defaults off: %+v", cfg)
	}
	if cfg.KafkaTopic != "ride-offer-events" {
		t.Fatalf("topic %q", cfg.KafkaTopic)
	}
}

func TestLoadServerConfigRequiredFields(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PLACES_ENDPOINT", "")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatal("missing required env accepted")
	}
}

func TestLoadServerConfigOverridesAndErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PLACES_ENDPOINT", "http://places.local")
	t.Setenv("KAFKA_BROKERS", " b1:9092, b2:9092 ,")
	t.Setenv("SEARCH_DEBOUNCE", "150ms")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "b2:9092" {
		t.Fatalf("brokers %v", cfg.KafkaBrokers)
	}
	if cfg.SearchDebounce != 150*time.Millisecond {
		t.Fatalf("debounce %v", cfg.SearchDebounce)
	}

	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")
	if _, err := LoadServerConfig(); err == nil {
		t.Fatal("bad duration accepted")
	}
}
