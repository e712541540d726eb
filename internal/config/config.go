package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Places struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"places"`

	Search struct {
		PageDelaySeconds int `yaml:"page_delay_seconds"`
		MaxPages         int `yaml:"max_pages"`
	} `yaml:"search"`

	Crawl struct {
		Workers             int     `yaml:"workers"`
		FetchTimeoutSeconds int     `yaml:"fetch_timeout_seconds"`
		RateLimitRPS        float64 `yaml:"rate_limit_rps"`
	} `yaml:"crawl"`

	DenyRules struct {
		// Path points at a YAML rule file; empty uses the embedded rules.
		Path string `yaml:"path"`
	} `yaml:"deny_rules"`

	SMTP struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"smtp"`

	Campaign struct {
		Subject      string `yaml:"subject"`
		DefaultTable string `yaml:"default_table"`
		SessionDB    string `yaml:"session_db"`
	} `yaml:"campaign"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.Places.BaseURL = "https://maps.googleapis.com"
	cfg.Search.PageDelaySeconds = 5
	cfg.Crawl.Workers = 10
	cfg.Crawl.FetchTimeoutSeconds = 15
	cfg.SMTP.Host = "smtp.gmail.com"
	cfg.SMTP.Port = 587
	cfg.Campaign.DefaultTable = "default.csv"
	cfg.Campaign.SessionDB = "leadsmith.db"
	return cfg
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Search.PageDelaySeconds < 0 {
		return cfg, fmt.Errorf("search.page_delay_seconds must be >= 0")
	}
	return cfg, nil
}

// PageDelay converts the configured delay into a duration.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Search.PageDelaySeconds) * time.Second
}

// FetchTimeout converts the configured per-fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawl.FetchTimeoutSeconds) * time.Second
}
