// Package config assembles runtime configuration from three layers:
// built-in defaults, an optional yaml file, and environment variables
// (a local .env is loaded first). Environment wins over file wins over
// defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	FeedAddr string `yaml:"feed_addr"`
	DataDir  string `yaml:"data_dir"`

	Chrome  ChromeConfig  `yaml:"chrome"`
	Proxy   ProxyConfig   `yaml:"proxy"`
	Recipe  RecipeConfig  `yaml:"recipe"`
	Auth    AuthConfig    `yaml:"auth"`
	Refresh RefreshConfig `yaml:"refresh"`
	Logger  LoggerConfig  `yaml:"logger"`
}

type ChromeConfig struct {
	Headless bool `yaml:"headless"`
}

type ProxyConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type RecipeConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
}

type AuthConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt
	JWTSecret    string `yaml:"jwt_secret"`
	JWTIssuer    string `yaml:"jwt_issuer"`
	// JWTTL is a Go duration string ("24h"); parsed into JWTDuration.
	JWTTTL      string        `yaml:"jwt_ttl"`
	JWTDuration time.Duration `yaml:"-"`
}

type RefreshConfig struct {
	// Cron is a robfig/cron expression; empty disables the scheduled
	// refresh entirely.
	Cron string `yaml:"cron"`
}

type LoggerConfig struct {
	Mode string `yaml:"mode"` // development | production
	File string `yaml:"file"` // empty: stdout only
}

func defaults() Config {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "."
	}
	return Config{
		HTTPAddr: ":8080",
		FeedAddr: ":7070",
		DataDir:  filepath.Join(home, ".macrotrack", "data"),
		Chrome:   ChromeConfig{Headless: true},
		Proxy: ProxyConfig{
			BaseURL: "https://api.zenrows.com/v1/",
		},
		Recipe: RecipeConfig{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash-exp:generateContent",
		},
		Auth: AuthConfig{
			Username:    "admin",
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "macrotrack",
			JWTDuration: 24 * time.Hour,
		},
		Logger: LoggerConfig{Mode: "development"},
	}
}

// Load builds the effective config. path may be empty; then only
// MACROTRACK_CONFIG is consulted for a yaml file.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path == "" {
		path = os.Getenv("MACROTRACK_CONFIG")
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	if cfg.Auth.JWTTTL != "" {
		if d, err := time.ParseDuration(cfg.Auth.JWTTTL); err == nil && d > 0 {
			cfg.Auth.JWTDuration = d
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.HTTPAddr, "MACROTRACK_HTTP_ADDR")
	setString(&cfg.FeedAddr, "MACROTRACK_FEED_ADDR")
	setString(&cfg.DataDir, "MACROTRACK_DATA_DIR")

	if v := os.Getenv("MACROTRACK_CHROME_HEADLESS"); v != "" {
		cfg.Chrome.Headless = v == "true" || v == "1"
	}

	setString(&cfg.Proxy.BaseURL, "MACROTRACK_PROXY_URL")
	setString(&cfg.Proxy.APIKey, "MACROTRACK_PROXY_KEY")
	setString(&cfg.Recipe.Endpoint, "MACROTRACK_RECIPE_ENDPOINT")
	setString(&cfg.Recipe.APIKey, "MACROTRACK_RECIPE_KEY")

	setString(&cfg.Auth.Username, "MACROTRACK_AUTH_USERNAME")
	setString(&cfg.Auth.PasswordHash, "MACROTRACK_AUTH_PASSWORD_HASH")
	setString(&cfg.Auth.JWTSecret, "MACROTRACK_JWT_SECRET")
	setString(&cfg.Auth.JWTIssuer, "MACROTRACK_JWT_ISSUER")
	if v := os.Getenv("MACROTRACK_JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Auth.JWTDuration = d
		}
	}

	setString(&cfg.Refresh.Cron, "MACROTRACK_REFRESH_CRON")
	setString(&cfg.Logger.Mode, "MACROTRACK_LOG_MODE")
	setString(&cfg.Logger.File, "MACROTRACK_LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
