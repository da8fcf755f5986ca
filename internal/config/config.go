// Package config loads process configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/gnitoahc/go-dotenv"
)

const configDir = ".swa" // relative to the user's home directory

// R2 holds Cloudflare R2 credentials.
type R2 struct {
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKey       string `env:"ACCESS_KEY"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Bucket          string `env:"BUCKET"`
	Endpoint        string `env:"ENDPOINT"`
	Prefix          string `env:"PREFIX" envDefault:"swa/"`
}

// Redis holds Redis connection settings.
type Redis struct {
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Config is shared by the CLI and the server.
type Config struct {
	Debug bool `env:"DEBUG"`

	// BaseURL is the origin the CLI talks to. When SWA_BASE_URL is unset,
	// <ConfigDir>/base_url overrides the default.
	BaseURL   string `env:"SWA_BASE_URL" envDefault:"http://localhost:3000"`
	ConfigDir string `env:"SWA_CONFIG_DIR"`

	TokenKey       string   `env:"SWA_TOKEN_KEY" envDefault:"jwt"`
	SessionCookies []string `env:"SWA_SESSION_COOKIES" envSeparator:"," envDefault:"session"`

	StoreDriver string `env:"SWA_STORE_DRIVER" envDefault:"file"`
	StoreSource string `env:"SWA_STORE_SOURCE"`
	Redis       Redis  `envPrefix:"SWA_REDIS_"`
	R2          R2     `envPrefix:"CF_"`

	Port int `env:"PORT" envDefault:"3000"`
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	dotenv.Load(".env")

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if cfg.ConfigDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("config: home dir: %w", err)
		}
		cfg.ConfigDir = filepath.Join(home, configDir)
	}
	if err := cfg.loadBaseURLFile(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// loadBaseURLFile lets ~/.swa/base_url override the default origin.
func (c *Config) loadBaseURLFile() error {
	if _, ok := os.LookupEnv("SWA_BASE_URL"); ok {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(c.ConfigDir, "base_url"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read base_url: %w", err)
	}
	// remove all \r or \n
	s := strings.ReplaceAll(string(data), "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	c.BaseURL = s
	return nil
}

// Validate normalizes and checks the values Load cannot express as tags.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	u, err := url.ParseRequestURI(c.BaseURL)
	if err != nil || u.Host == "" {
		return fmt.Errorf("config: invalid base URL %q", c.BaseURL)
	}
	if c.TokenKey == "" {
		return fmt.Errorf("config: SWA_TOKEN_KEY must not be empty")
	}
	cookies := c.SessionCookies[:0]
	for _, name := range c.SessionCookies {
		if name = strings.TrimSpace(name); name != "" {
			cookies = append(cookies, name)
		}
	}
	c.SessionCookies = cookies
	return nil
}

// Origin returns the host[:port] of BaseURL; it namespaces the CLI store.
func (c Config) Origin() string {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return c.BaseURL
	}
	return u.Host
}
