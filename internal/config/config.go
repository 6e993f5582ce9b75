package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all profileart configuration. Values are layered: defaults,
// then the optional YAML file, then PROFILEART_* environment variables.
type Config struct {
	Listen    string `yaml:"listen" env:"LISTEN"`
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL"`
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`

	// Owner and Repo identify the profile the decorations belong to. Owner is
	// the account relationship-gated types check against.
	Owner string `yaml:"owner" env:"OWNER"`
	Repo  string `yaml:"repo" env:"REPO"`

	TableFile string `yaml:"table_file" env:"TABLE_FILE"`

	Storage StorageConfig `yaml:"storage" envPrefix:"STORAGE_"`
	Visits  VisitsConfig  `yaml:"visits" envPrefix:"VISITS_"`
	GitHub  GitHubConfig  `yaml:"github" envPrefix:"GITHUB_"`
	Banner  BannerConfig  `yaml:"banner" envPrefix:"BANNER_"`
}

// StorageConfig selects where decorations live.
type StorageConfig struct {
	Driver string   `yaml:"driver" env:"DRIVER"` // fs | s3
	Root   string   `yaml:"root" env:"ROOT"`
	S3     S3Config `yaml:"s3" envPrefix:"S3_"`
}

// S3Config configures the S3 bucket backend.
type S3Config struct {
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	Prefix    string `yaml:"prefix" env:"PREFIX"`
	Region    string `yaml:"region" env:"REGION"`
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	PathStyle bool   `yaml:"path_style" env:"PATH_STYLE"`

	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
}

// VisitsConfig controls visit bookkeeping for the banner.
type VisitsConfig struct {
	Driver     string        `yaml:"driver" env:"DRIVER"` // json | sqlite
	Path       string        `yaml:"path" env:"PATH"`
	FlushEvery int           `yaml:"flush_every" env:"FLUSH_EVERY"`
	Cooldown   time.Duration `yaml:"cooldown" env:"COOLDOWN"`
}

// GitHubConfig configures the GitHub REST client.
type GitHubConfig struct {
	APIURL  string        `yaml:"api_url" env:"API_URL"`
	WebURL  string        `yaml:"web_url" env:"WEB_URL"`
	User    string        `yaml:"user" env:"USER"`
	Token   string        `yaml:"token" env:"TOKEN"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// BannerConfig points at the optional banner background.
type BannerConfig struct {
	Base string `yaml:"base" env:"BASE"`
}

const envPrefix = "PROFILEART_"

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Owner == "" {
		c.Owner = "RealA10N"
	}
	if c.Repo == "" {
		c.Repo = c.Owner
	}
	if c.TableFile == "" {
		c.TableFile = "select_table.html"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "fs"
	}
	if c.Storage.Root == "" {
		c.Storage.Root = "decorations"
	}
	if c.Storage.S3.Region == "" {
		c.Storage.S3.Region = "us-east-1"
	}
	if c.Visits.Driver == "" {
		c.Visits.Driver = "json"
	}
	if c.Visits.Path == "" {
		c.Visits.Path = "github-data.json"
	}
	if c.Visits.FlushEvery <= 0 {
		c.Visits.FlushEvery = 10
	}
	if c.Visits.Cooldown <= 0 {
		c.Visits.Cooldown = time.Hour
	}
	if c.GitHub.APIURL == "" {
		c.GitHub.APIURL = "https://api.github.com"
	}
	if c.GitHub.WebURL == "" {
		c.GitHub.WebURL = "https://github.com"
	}
	if c.GitHub.Timeout <= 0 {
		c.GitHub.Timeout = 10 * time.Second
	}
}

// Load reads the YAML file at path (a missing file is not an error), applies
// environment overrides and fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.defaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case "fs":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket required for s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Visits.Driver {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown visits driver %q", c.Visits.Driver)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, falling back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
