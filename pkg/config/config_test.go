package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *ServerConfig {
	cfg := DefaultConfig()
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Address != ":9000" {
		t.Errorf("unexpected default address: %s", cfg.Address)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("unexpected default database type: %s", cfg.Database.Type)
	}
	if cfg.Heartbeat.ProbeIntervalMs != 5000 || cfg.Heartbeat.AckWaitMs != 1000 {
		t.Errorf("unexpected heartbeat defaults: %+v", cfg.Heartbeat)
	}
	if cfg.Auth.CookieName != "token" {
		t.Errorf("unexpected cookie name: %s", cfg.Auth.CookieName)
	}
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("empty jwt secret should fail validation")
	}

	cfg.Auth.JWTSecret = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidateAckWaitBound(t *testing.T) {
	cfg := validConfig()

	cfg.Heartbeat.AckWaitMs = cfg.Heartbeat.ProbeIntervalMs
	if err := cfg.Validate(); err == nil {
		t.Error("ack wait equal to probe interval should fail validation")
	}

	cfg.Heartbeat.AckWaitMs = cfg.Heartbeat.ProbeIntervalMs + 1
	if err := cfg.Validate(); err == nil {
		t.Error("ack wait longer than probe interval should fail validation")
	}

	cfg.Heartbeat.AckWaitMs = cfg.Heartbeat.ProbeIntervalMs - 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("ack wait shorter than probe interval rejected: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ServerConfig)
	}{
		{"empty address", func(c *ServerConfig) { c.Address = "" }},
		{"bad db type", func(c *ServerConfig) { c.Database.Type = "mongodb" }},
		{"empty uploads dir", func(c *ServerConfig) { c.Uploads.Dir = "" }},
		{"zero probe interval", func(c *ServerConfig) { c.Heartbeat.ProbeIntervalMs = 0 }},
		{"bad log level", func(c *ServerConfig) { c.Logging.Level = "verbose" }},
		{"zero token ttl", func(c *ServerConfig) { c.Auth.TokenTTLHrs = 0 }},
		{"tls without cert", func(c *ServerConfig) { c.TLS.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation failure")
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := validConfig()

	if got := cfg.Heartbeat.ProbeInterval(); got != 5*time.Second {
		t.Errorf("ProbeInterval() = %v", got)
	}
	if got := cfg.Heartbeat.AckWait(); got != time.Second {
		t.Errorf("AckWait() = %v", got)
	}
	if got := cfg.Auth.TokenTTL(); got != 24*time.Hour {
		t.Errorf("TokenTTL() = %v", got)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	content := `
address: ":7777"
database:
  type: sqlite
  path: /tmp/other.db
auth:
  jwt_secret: file-secret
heartbeat:
  probe_interval_ms: 3000
  ack_wait_ms: 500
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Address != ":7777" {
		t.Errorf("address not loaded: %s", cfg.Address)
	}
	if cfg.Heartbeat.ProbeIntervalMs != 3000 || cfg.Heartbeat.AckWaitMs != 500 {
		t.Errorf("heartbeat not loaded: %+v", cfg.Heartbeat)
	}
	// Untouched fields keep their defaults.
	if cfg.Uploads.Dir != "./uploads" {
		t.Errorf("defaults should survive partial files: %s", cfg.Uploads.Dir)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_ADDR", ":8111")
	t.Setenv("ALLOWED_ORIGIN", "https://chat.example.com")
	t.Setenv("HEARTBEAT_ACK_WAIT_MS", "750")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWT_SECRET override missed: %s", cfg.Auth.JWTSecret)
	}
	if cfg.Address != ":8111" {
		t.Errorf("SERVER_ADDR override missed: %s", cfg.Address)
	}
	if cfg.AllowedOrigin != "https://chat.example.com" {
		t.Errorf("ALLOWED_ORIGIN override missed: %s", cfg.AllowedOrigin)
	}
	if cfg.Heartbeat.AckWaitMs != 750 {
		t.Errorf("HEARTBEAT_ACK_WAIT_MS override missed: %d", cfg.Heartbeat.AckWaitMs)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")

	if _, err := LoadConfig("/no/such/config.yaml"); err == nil {
		t.Error("missing config file should fail")
	}
}
