package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Errorf("expected access ttl 1h, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("expected refresh ttl 168h, got %s", cfg.RefreshTokenTTL)
	}
	if cfg.DBMaxConns != 10 {
		t.Errorf("expected max conns 10, got %d", cfg.DBMaxConns)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if err := cfg.RequireDatabase(); err == nil {
		t.Error("expected RequireDatabase to fail without DATABASE_URL")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.test, https://b.test")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %s", cfg.AccessTokenTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.test" {
		t.Errorf("unexpected cors origins %v", cfg.CORSOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Errorf("expected rps 2.5, got %v", cfg.RateLimitRPS)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Env: "production", JWTSecret: "0123456789abcdef",
			AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour,
			DBMaxConns: 10, DBMinConns: 2, RateLimitRPS: 5, RateLimitBurst: 10,
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"short secret in production", func(c *Config) { c.JWTSecret = "short" }, true},
		{"short secret in development", func(c *Config) { c.JWTSecret = "short"; c.Env = "development" }, false},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTL = 0 }, true},
		{"refresh shorter than access", func(c *Config) { c.RefreshTokenTTL = time.Minute }, true},
		{"min conns above max", func(c *Config) { c.DBMinConns = 20 }, true},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() for development")
	}
	c.Env = "production"
	if c.IsDev() {
		t.Error("expected !IsDev() for production")
	}
}
