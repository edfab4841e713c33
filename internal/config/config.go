// Package config carga la configuración desde config.yaml con overrides
// por variables de entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		TenantHeader       string   `yaml:"tenant_header"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		// ProbeTimeout acota el liveness probe del namespace; debe ser
		// menor que el timeout general de storage.
		ProbeTimeout string `yaml:"probe_timeout"`
	} `yaml:"storage"`

	Registry struct {
		// LookupTTL del cache de lecturas del directorio de tenants.
		LookupTTL string `yaml:"lookup_ttl"`
	} `yaml:"registry"`

	Token struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
		TTL    string `yaml:"ttl"`
		Leeway string `yaml:"leeway"`
	} `yaml:"token"`

	Password struct {
		// Parámetros argon2id; cero usa defaults.
		Memory      uint32 `yaml:"memory"`
		Time        uint32 `yaml:"time"`
		Parallelism uint8  `yaml:"parallelism"`
	} `yaml:"password"`

	Rate struct {
		Enabled bool   `yaml:"enabled"`
		Redis   string `yaml:"redis"` // addr; vacío usa limiter en memoria
		Login   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`
}

// Load lee el YAML (si existe) y aplica overrides de entorno.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides: pisa config.yaml con variables de entorno.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TENANT_HEADER"); v != "" {
		cfg.Server.TenantHeader = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("TOKEN_SECRET"); v != "" {
		cfg.Token.Secret = v
	}
	if v := os.Getenv("TOKEN_ISSUER"); v != "" {
		cfg.Token.Issuer = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		cfg.Token.TTL = v
	}
	if v := os.Getenv("RATE_REDIS_ADDR"); v != "" {
		cfg.Rate.Redis = v
	}
	if v := os.Getenv("RATE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Rate.Enabled = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Env == "" {
		cfg.App.Env = "dev"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.TenantHeader == "" {
		cfg.Server.TenantHeader = "X-Tenant-ID"
	}
	if cfg.Token.Issuer == "" {
		cfg.Token.Issuer = "workplane"
	}
	if cfg.Token.TTL == "" {
		cfg.Token.TTL = "24h"
	}
	if cfg.Token.Leeway == "" {
		cfg.Token.Leeway = "30s"
	}
	if cfg.Storage.ProbeTimeout == "" {
		cfg.Storage.ProbeTimeout = "800ms"
	}
	if cfg.Registry.LookupTTL == "" {
		cfg.Registry.LookupTTL = "30s"
	}
	if cfg.Rate.Login.Limit == 0 {
		cfg.Rate.Login.Limit = 10
	}
	if cfg.Rate.Login.Window == "" {
		cfg.Rate.Login.Window = "1m"
	}
}

// Validate chequea valores críticos. Se llama después de Load en main.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Storage.DSN) == "" {
		return fmt.Errorf("config: storage.dsn (STORAGE_DSN) is required")
	}
	if len(cfg.Token.Secret) < 32 {
		return fmt.Errorf("config: token.secret (TOKEN_SECRET) must be at least 32 bytes")
	}
	if cfg.App.Env == "prod" && cfg.Log.Level == "debug" {
		return fmt.Errorf("config: debug logging is not allowed in prod")
	}
	for _, d := range []struct{ name, val string }{
		{"token.ttl", cfg.Token.TTL},
		{"token.leeway", cfg.Token.Leeway},
		{"storage.probe_timeout", cfg.Storage.ProbeTimeout},
		{"registry.lookup_ttl", cfg.Registry.LookupTTL},
		{"rate.login.window", cfg.Rate.Login.Window},
	} {
		if _, err := time.ParseDuration(d.val); err != nil {
			return fmt.Errorf("config: %s: %w", d.name, err)
		}
	}
	return nil
}

// Durations parseadas (Load garantiza formato sólo tras Validate).

func (c *Config) TokenTTL() time.Duration { return mustDur(c.Token.TTL, 24*time.Hour) }

func (c *Config) TokenLeeway() time.Duration { return mustDur(c.Token.Leeway, 30*time.Second) }

func (c *Config) ProbeTimeout() time.Duration {
	return mustDur(c.Storage.ProbeTimeout, 800*time.Millisecond)
}

func (c *Config) LookupTTL() time.Duration { return mustDur(c.Registry.LookupTTL, 30*time.Second) }

func (c *Config) LoginRateWindow() time.Duration { return mustDur(c.Rate.Login.Window, time.Minute) }
func (c *Config) ConnMaxLifetime() time.Duration {
	return mustDur(c.Storage.Postgres.ConnMaxLifetime, 30*time.Minute)
}

func mustDur(s string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}
