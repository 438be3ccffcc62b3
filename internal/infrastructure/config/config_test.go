package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
	if cfg.Auth.JWTAlgorithm != "HS256" {
		t.Fatalf("unexpected algorithm: %s", cfg.Auth.JWTAlgorithm)
	}
	if cfg.Auth.AccessTTL() != 30*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.Auth.AccessTTL())
	}
	if cfg.Auth.RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %s", cfg.Auth.RefreshTTL())
	}
	if !cfg.Auth.TokenRevocation {
		t.Fatalf("expected token revocation enabled by default")
	}
	if len(cfg.CORSOrigins) != 4 {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development environment")
	}
}

func TestLoadWith_MissingSecret(t *testing.T) {
	if _, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{})); err == nil {
		t.Fatalf("expected error for missing JWT_SECRET")
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":                  "s3cret",
		"JWT_ALGORITHM":               "HS512",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "5",
		"REFRESH_TOKEN_EXPIRE_DAYS":   "1",
		"TOKEN_REVOCATION":            "false",
		"CORS_ORIGINS":                "https://app.example.com",
	}))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.Auth.JWTAlgorithm != "HS512" || cfg.Auth.AccessTTL() != 5*time.Minute {
		t.Fatalf("overrides not applied: %+v", cfg.Auth)
	}
	if cfg.Auth.TokenRevocation {
		t.Fatalf("expected token revocation disabled")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://app.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestValidate_RejectsNonPositiveTTL(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":                  "s3cret",
		"ACCESS_TOKEN_EXPIRE_MINUTES": "0",
	}))
	if err == nil {
		t.Fatalf("expected validation error")
	}
}
