package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Database struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:feedbook.db?cache=shared&mode=rwc,description=Database connection string"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"database" json:"database" jsonschema:"description=Database configuration"`

	Fetch struct {
		Timeout   time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP timeout for feed and image requests"`
		UserAgent string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=Feedbook/1.0,description=User agent for HTTP requests"`
	} `yaml:"fetch" json:"fetch" jsonschema:"description=Feed fetching configuration"`

	Images struct {
		Dir         string `yaml:"dir" json:"dir" jsonschema:"default=cached_images,description=Directory for cached article images"`
		Workers     int    `yaml:"workers" json:"workers" jsonschema:"default=10,description=Worker pool width for image fetch and resize phases"`
		ResizeWidth int    `yaml:"resize_width" json:"resize_width" jsonschema:"default=250,description=Maximum cached image width in pixels"`
	} `yaml:"images" json:"images" jsonschema:"description=Image cache configuration"`

	Render struct {
		OutputDir   string `yaml:"output_dir" json:"output_dir" jsonschema:"default=.,description=Default directory for rendered documents"`
		EbookTitle  string `yaml:"ebook_title" json:"ebook_title" jsonschema:"default=RSS feed book content:,description=Title of generated EPUB containers"`
		EbookAuthor string `yaml:"ebook_author" json:"ebook_author" jsonschema:"default=feedbook,description=Author of generated EPUB containers"`
	} `yaml:"render" json:"render" jsonschema:"description=Renderer configuration"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.setDefaults()

	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		return nil, fmt.Errorf("verify config: %w", err)
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

func (cfg *Config) setDefaults() {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file:feedbook.db?cache=shared&mode=rwc"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 3600
	}

	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "Feedbook/1.0"
	}

	if cfg.Images.Dir == "" {
		cfg.Images.Dir = "cached_images"
	}
	if cfg.Images.Workers == 0 {
		cfg.Images.Workers = 10
	}
	if cfg.Images.ResizeWidth == 0 {
		cfg.Images.ResizeWidth = 250
	}

	if cfg.Render.OutputDir == "" {
		cfg.Render.OutputDir = "."
	}
	if cfg.Render.EbookTitle == "" {
		cfg.Render.EbookTitle = "RSS feed book content:"
	}
	if cfg.Render.EbookAuthor == "" {
		cfg.Render.EbookAuthor = "feedbook"
	}
}
