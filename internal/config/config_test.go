package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if cfg.Timezone != "America/New_York" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}
	if cfg.RecentCallLimit != 200 {
		t.Errorf("RecentCallLimit = %d, want 200", cfg.RecentCallLimit)
	}
	if cfg.RecordTTL != 30*24*time.Hour {
		t.Errorf("RecordTTL = %v", cfg.RecordTTL)
	}
	if cfg.CalAPIVersion == "" {
		t.Error("CalAPIVersion should have a default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("VAPI_WEBHOOK_SECRET", "shh")
	t.Setenv("RECENT_CALL_LIMIT", "50")
	t.Setenv("RECORD_TTL", "24h")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != "9000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.VapiWebhookSecret != "shh" {
		t.Errorf("VapiWebhookSecret = %q", cfg.VapiWebhookSecret)
	}
	if cfg.RecentCallLimit != 50 {
		t.Errorf("RecentCallLimit = %d", cfg.RecentCallLimit)
	}
	if cfg.RecordTTL != 24*time.Hour {
		t.Errorf("RecordTTL = %v", cfg.RecordTTL)
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS should be true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestGetEnvAsIntInvalid(t *testing.T) {
	t.Setenv("CAL_EVENT_TYPE_ID", "not-a-number")
	cfg := Load()
	if cfg.CalEventTypeID != 0 {
		t.Errorf("CalEventTypeID = %d, want default 0", cfg.CalEventTypeID)
	}
}
