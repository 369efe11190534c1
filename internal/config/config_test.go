package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Setenv("SALESFORCE_USERNAME", "robot@example.com")
	t.Setenv("SALESFORCE_PASSWORD", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Addr != ":8080" {
		t.Errorf("expected default addr :8080, got %q", cfg.API.Addr)
	}
	if cfg.Session.TTL != 60*time.Minute {
		t.Errorf("expected default ttl 60m, got %v", cfg.Session.TTL)
	}
	if cfg.Salesforce.LoginURL != "https://login.salesforce.com" || cfg.Salesforce.APIVersion != "v59.0" {
		t.Errorf("unexpected salesforce defaults: %+v", cfg.Salesforce)
	}
	if cfg.Salesforce.QueryRate != 5 {
		t.Errorf("expected default query rate 5, got %v", cfg.Salesforce.QueryRate)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
	if cfg.Salesforce.Username != "robot@example.com" || cfg.Salesforce.Password != "secret" {
		t.Errorf("credentials not loaded: %+v", cfg.Salesforce)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("API_ADDR", ":9999")
	t.Setenv("SALESFORCE_CLIENT_ID", "cid")
	t.Setenv("SALESFORCE_QUERY_RATE", "2.5")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("SESSION_KEY_SECRET", "k")
	t.Setenv("ROBOT_TOKEN", "shared")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Addr != ":9999" {
		t.Errorf("expected addr :9999, got %q", cfg.API.Addr)
	}
	if cfg.Salesforce.ClientID != "cid" || cfg.Salesforce.QueryRate != 2.5 {
		t.Errorf("unexpected salesforce config: %+v", cfg.Salesforce)
	}
	if cfg.Redis.URL != "redis://cache:6379/1" {
		t.Errorf("unexpected redis url %q", cfg.Redis.URL)
	}
	if cfg.Session.TTL != 15*time.Minute || cfg.Session.KeySecret != "k" {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Robot.Token != "shared" {
		t.Errorf("unexpected robot token %q", cfg.Robot.Token)
	}
}

func TestLoadFileThenEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "robot.yaml")
	content := []byte(`
api:
  addr: ":7000"
salesforce:
  username: file-user@example.com
  password: file-pass
  api_version: v60.0
session:
  ttl: 30m
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SALESFORCE_PASSWORD", "env-pass")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.Addr != ":7000" || cfg.Salesforce.APIVersion != "v60.0" || cfg.Session.TTL != 30*time.Minute {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.Salesforce.Username != "file-user@example.com" {
		t.Errorf("expected username from file, got %q", cfg.Salesforce.Username)
	}
	if cfg.Salesforce.Password != "env-pass" {
		t.Errorf("expected env to override file password, got %q", cfg.Salesforce.Password)
	}
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("SALESFORCE_USERNAME", "")
	t.Setenv("SALESFORCE_PASSWORD", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error without credentials")
	}
}

func TestLoadRequiresKeySecretWithRedis(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_URL", "redis://cache:6379/0")
	t.Setenv("SESSION_KEY_SECRET", "")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for redis without session.key_secret")
	}

	t.Setenv("SESSION_KEY_SECRET", "k")
	if _, err := Load(""); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	setRequired(t)
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestEnvKey(t *testing.T) {
	cases := map[string]string{
		"SALESFORCE_CLIENT_SECRET": "salesforce.client_secret",
		"LOG_LEVEL":                "log.level",
		"PATH":                     "",
		"_HIDDEN":                  "",
	}
	for in, want := range cases {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}
