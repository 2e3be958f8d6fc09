package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	os.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	os.Setenv("REDIS_HOST", "localhost")
	os.Setenv("REDIS_PORT", "6379")
	os.Setenv("AUTH_ENABLED", "true")
	os.Setenv("AUTH_SECRET", "testsecret123456789012345678901234")
	os.Setenv("RATE_LIMIT_ENABLED", "true")
	defer func() {
		for _, k := range []string{"MONGODB_URI", "REDIS_HOST", "REDIS_PORT", "AUTH_ENABLED", "AUTH_SECRET", "RATE_LIMIT_ENABLED"} {
			os.Unsetenv(k)
		}
	}()

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if !cfg.Auth.Enabled || cfg.Auth.Secret == "" {
		t.Fatalf("auth config not picked up: %+v", cfg.Auth)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst <= 0 {
		t.Fatalf("rate limit defaults missing: %+v", cfg.RateLimit)
	}
	if cfg.Server.Port == "" || cfg.MongoDB.Database == "" {
		t.Fatalf("server defaults missing: %+v", cfg.Server)
	}
}
