package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoader_Load(t *testing.T) {
	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, ".config.yaml")

	configContent := `
server:
  ip: "127.0.0.1"
  port: 8080
log:
  log_level: "DEBUG"
  log_dir: "/tmp/logs"
  log_file: "test.log"
auth:
  secret: "test-secret"
  token_ttl: 15m
cache:
  driver: memory
  default_ttl: 30s
`

	if err := os.WriteFile(configFile, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := NewLoader().WithPath(configFile).WithDotEnv(false).Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.IP != "127.0.0.1" {
		t.Errorf("expected server IP 127.0.0.1, got %s", cfg.Server.IP)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Log.Level != "DEBUG" {
		t.Errorf("expected log level DEBUG, got %s", cfg.Log.Level)
	}
	if cfg.Auth.TokenTTL != 15*time.Minute {
		t.Errorf("expected token ttl 15m, got %v", cfg.Auth.TokenTTL)
	}
	if cfg.Cache.DefaultTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %v", cfg.Cache.DefaultTTL)
	}
	// Unset fields keep their defaults.
	if cfg.Cache.SweepInterval != 5*time.Minute {
		t.Errorf("expected default sweep interval, got %v", cfg.Cache.SweepInterval)
	}
}

func TestLoader_EnvOverrides(t *testing.T) {
	t.Setenv("AUTH_SECRET", "env-secret")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6390")

	cfg, err := NewLoader().
		WithPath(filepath.Join(t.TempDir(), "missing.yaml")).
		WithDotEnv(false).
		Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Auth.Secret != "env-secret" {
		t.Errorf("expected secret from env, got %q", cfg.Auth.Secret)
	}
	if cfg.Cache.Redis.Addr != "127.0.0.1:6390" {
		t.Errorf("expected redis addr from env, got %q", cfg.Cache.Redis.Addr)
	}
}

func TestLoader_Validate(t *testing.T) {
	loader := NewLoader()

	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Auth.Secret = "s"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}, wantErr: false},
		{name: "invalid server port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.Secret = "" }, wantErr: true},
		{name: "zero token ttl", mutate: func(c *Config) { c.Auth.TokenTTL = 0 }, wantErr: true},
		{name: "zero cache ttl", mutate: func(c *Config) { c.Cache.DefaultTTL = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := loader.validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
