// Package config loads robot configuration from an optional YAML file and
// the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024

type Config struct {
	API        APIConfig        `koanf:"api"`
	Salesforce SalesforceConfig `koanf:"salesforce"`
	Redis      RedisConfig      `koanf:"redis"`
	Session    SessionConfig    `koanf:"session"`
	Robot      RobotConfig      `koanf:"robot"`
	Log        LogConfig        `koanf:"log"`
}

type APIConfig struct {
	Addr string `koanf:"addr"`
}

type SalesforceConfig struct {
	Username     string  `koanf:"username"`
	Password     string  `koanf:"password"`
	ClientID     string  `koanf:"client_id"`
	ClientSecret string  `koanf:"client_secret"`
	LoginURL     string  `koanf:"login_url"`
	APIVersion   string  `koanf:"api_version"`
	QueryRate    float64 `koanf:"query_rate"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type SessionConfig struct {
	TTL       time.Duration `koanf:"ttl"`
	KeySecret string        `koanf:"key_secret"`
}

type RobotConfig struct {
	// Token, when set, must be presented by the host in X-Robot-Token.
	Token string `koanf:"token"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Load reads configuration. Environment variables override the YAML file at
// configPath, which may be empty. The first underscore of a variable name
// separates section from field:
//
//	SALESFORCE_USERNAME -> salesforce.username
//	SESSION_KEY_SECRET  -> session.key_secret
func Load(configPath string) (Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps an environment variable to a config key. Variables without an
// underscore are skipped so they cannot shadow a section.
func envKey(s string) string {
	parts := strings.SplitN(strings.ToLower(s), "_", 2)
	if len(parts) == 1 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.Addr == "" {
		cfg.API.Addr = ":8080"
	}
	if cfg.Salesforce.LoginURL == "" {
		cfg.Salesforce.LoginURL = "https://login.salesforce.com"
	}
	if cfg.Salesforce.APIVersion == "" {
		cfg.Salesforce.APIVersion = "v59.0"
	}
	if cfg.Salesforce.QueryRate == 0 {
		cfg.Salesforce.QueryRate = 5
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 60 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
}

// Validate checks that the CRM credentials are present and that a shared
// session cache has a key secret.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Salesforce.Username) == "" {
		errs = append(errs, errors.New("salesforce.username is required"))
	}
	if c.Salesforce.Password == "" {
		errs = append(errs, errors.New("salesforce.password is required"))
	}
	// Session keys stored outside the process must be keyed.
	if strings.TrimSpace(c.Redis.URL) != "" && c.Session.KeySecret == "" {
		errs = append(errs, errors.New("session.key_secret is required when redis.url is set"))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
