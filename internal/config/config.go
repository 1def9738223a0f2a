package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nursia/nursia-api/internal/normalize"
)

type Config struct {
	Port                string        `mapstructure:"PORT"`
	Env                 string        `mapstructure:"ENV"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	CORSOrigins         []string      `mapstructure:"CORS_ORIGINS"`
	AccessPassword      string        `mapstructure:"ACCESS_PASSWORD"`
	AdminKey            string        `mapstructure:"ADMIN_KEY"`
	OpenAIAPIKey        string        `mapstructure:"OPENAI_API_KEY"`
	OpenAIBaseURL       string        `mapstructure:"OPENAI_BASE_URL"`
	OpenAIModel         string        `mapstructure:"OPENAI_MODEL"`
	ExtractTimeout      time.Duration `mapstructure:"EXTRACT_TIMEOUT"`
	ExtractCacheTTL     time.Duration `mapstructure:"EXTRACT_CACHE_TTL"`
	BodyLimit           string        `mapstructure:"BODY_LIMIT"`
	ExtractBodyLimit    string        `mapstructure:"EXTRACT_BODY_LIMIT"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	Locale              string        `mapstructure:"LOCALE"`
	LoginRateLimitRPS   float64       `mapstructure:"LOGIN_RATE_LIMIT_RPS"`
	LoginRateLimitBurst int           `mapstructure:"LOGIN_RATE_LIMIT_BURST"`
	MetricsEnabled      bool          `mapstructure:"METRICS_ENABLED"`
}

var keys = []string{
	"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"CORS_ORIGINS", "ACCESS_PASSWORD", "ADMIN_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	"OPENAI_MODEL", "EXTRACT_TIMEOUT", "EXTRACT_CACHE_TTL", "BODY_LIMIT",
	"EXTRACT_BODY_LIMIT", "REQUEST_TIMEOUT", "LOCALE", "LOGIN_RATE_LIMIT_RPS",
	"LOGIN_RATE_LIMIT_BURST", "METRICS_ENABLED",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "https://nursia.vercel.app,http://localhost:5173")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("EXTRACT_TIMEOUT", "60s")
	v.SetDefault("EXTRACT_CACHE_TTL", "24h")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("EXTRACT_BODY_LIMIT", "15M")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOCALE", "pt-BR")
	v.SetDefault("LOGIN_RATE_LIMIT_RPS", 1)
	v.SetDefault("LOGIN_RATE_LIMIT_BURST", 5)
	v.SetDefault("METRICS_ENABLED", true)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// NormalizeLocale returns the engine locale named by LOCALE.
func (c *Config) NormalizeLocale() (normalize.Locale, error) {
	return normalize.ParseLocale(c.Locale)
}

// Validate checks that the configuration is safe to run. The shared secrets
// are not required here: the access gate answers 500 for every guarded
// route while they are unset, so a read-only health check still works.
func (c *Config) Validate() error {
	if _, err := c.NormalizeLocale(); err != nil {
		return fmt.Errorf("LOCALE: %w", err)
	}
	if c.ExtractTimeout <= 0 {
		return fmt.Errorf("EXTRACT_TIMEOUT must be positive, got %s", c.ExtractTimeout)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.ExtractCacheTTL < 0 {
		return fmt.Errorf("EXTRACT_CACHE_TTL must not be negative, got %s", c.ExtractCacheTTL)
	}
	if c.LoginRateLimitRPS <= 0 || c.LoginRateLimitBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_LIMIT_RPS and LOGIN_RATE_LIMIT_BURST must be positive")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.IsProduction() && (c.AccessPassword == "" || c.AdminKey == "") {
		return fmt.Errorf("ACCESS_PASSWORD and ADMIN_KEY are required in production")
	}
	return nil
}
