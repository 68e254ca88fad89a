package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.AssumedSpeedKmh != 35 {
		t.Fatalf("expected default assumed speed, got %v", cfg.AssumedSpeedKmh)
	}
	if cfg.NominatimURL == "" || cfg.OSRMURL == "" {
		t.Fatalf("expected default upstream urls")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ASSUMED_SPEED_KMH", "40")
	t.Setenv("OSRM_URL", "http://osrm:5000")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.AssumedSpeedKmh != 40 {
		t.Fatalf("expected override speed, got %v", cfg.AssumedSpeedKmh)
	}
	if cfg.OSRMURL != "http://osrm:5000" {
		t.Fatalf("expected override osrm url")
	}
}

func TestLoadRejectsNonPositiveSpeed(t *testing.T) {
	t.Setenv("ASSUMED_SPEED_KMH", "0")

	cfg := Load()
	if cfg.AssumedSpeedKmh != 35 {
		t.Fatalf("expected fallback speed, got %v", cfg.AssumedSpeedKmh)
	}
}
