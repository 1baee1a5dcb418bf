// Package config loads the YAML settings shared by the CLI and the HTTP server.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"signature-digitizer/internal/core"
)

type Config struct {
	Log      LogConfig     `yaml:"log"`
	Pipeline core.Params   `yaml:"pipeline"`
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	UploadDir      string        `yaml:"upload_dir"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	UploadTTL      time.Duration `yaml:"upload_ttl"`
	SweepSchedule  string        `yaml:"sweep_schedule"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type StorageConfig struct {
	Region string `yaml:"region"`
}

// Default returns the settings used when no file is given
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Pipeline: core.DefaultParams(),
		Server: ServerConfig{
			Addr:           ":5000",
			UploadDir:      "uploads",
			MaxUploadBytes: 20 << 20,
			UploadTTL:      time.Hour,
			SweepSchedule:  "@every 10m",
			RequestTimeout: 30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Region: "eu-west-2",
		},
	}
}

// Load reads path over the defaults. An empty path yields Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected so typos do not silently fall back.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	if err := c.Pipeline.Validate(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	s := c.Server
	if s.Addr == "" {
		return fmt.Errorf("server.addr must be set")
	}
	if s.UploadDir == "" {
		return fmt.Errorf("server.upload_dir must be set")
	}
	if s.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	if s.UploadTTL <= 0 {
		return fmt.Errorf("server.upload_ttl must be positive")
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	if _, err := cron.ParseStandard(s.SweepSchedule); err != nil {
		return fmt.Errorf("server.sweep_schedule: %w", err)
	}
	return nil
}
