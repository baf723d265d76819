// Package config loads the service configuration from a YAML file with
// optional environment overrides. The loaded configuration is immutable for
// the process lifetime; changing the worker count requires a restart so
// that in-flight jobs are never re-pooled.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/alnah/go-docconv/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrConfigInvalid  = errors.New("invalid config")
)

// DefaultPath is tried when no config file is specified.
const DefaultPath = "config.yaml"

// Config holds all service configuration.
type Config struct {
	Converter ConverterConfig `yaml:"converter"`
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Log       LogConfig       `yaml:"log"`
}

// ConverterConfig defines the conversion core options. Sizes and timeouts
// use the units the file format always used: megabytes and seconds.
type ConverterConfig struct {
	InputFormats      []string `yaml:"input_formats"`
	OutputFormat      string   `yaml:"output_format"`
	Workers           int      `yaml:"workers"`            // 0 = derive from GOMAXPROCS
	TempDir           string   `yaml:"temp_dir"`
	MaxFileSize       int64    `yaml:"max_file_size"`      // megabytes
	ConversionTimeout int      `yaml:"conversion_timeout"` // seconds
}

// MaxFileSizeBytes converts the configured megabyte ceiling to bytes.
func (c ConverterConfig) MaxFileSizeBytes() int64 {
	return c.MaxFileSize << 20
}

// Timeout converts the configured seconds to a duration.
func (c ConverterConfig) Timeout() time.Duration {
	return time.Duration(c.ConversionTimeout) * time.Second
}

// ServerConfig defines the HTTP listener options.
type ServerConfig struct {
	Host            string `yaml:"host" env:"DOCCONV_HOST"`
	Port            int    `yaml:"port" env:"DOCCONV_PORT"`
	ReadTimeout     int    `yaml:"read_timeout"`     // seconds
	WriteTimeout    int    `yaml:"write_timeout"`    // seconds
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
}

// Addr formats the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// EngineConfig identifies the external rendering engine.
type EngineConfig struct {
	Binary string `yaml:"binary" env:"DOCCONV_ENGINE"`
}

// LogConfig defines logging options.
type LogConfig struct {
	Level  string `yaml:"level" env:"DOCCONV_LOG_LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"DOCCONV_LOG_FORMAT"` // json or console
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Converter: ConverterConfig{
			InputFormats: []string{
				"doc", "docx", "odt", "rtf", "txt",
				"xls", "xlsx", "ods", "csv",
				"ppt", "pptx", "odp",
			},
			OutputFormat:      "pdf",
			Workers:           0,
			TempDir:           os.TempDir(),
			MaxFileSize:       50,
			ConversionTimeout: 120,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30,
			WriteTimeout:    300,
			ShutdownTimeout: 30,
		},
		Engine: EngineConfig{Binary: "soffice"},
		Log:    LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads configuration from path, falling back to defaults when path is
// empty and no config.yaml exists. Environment variables override the
// server, engine, and log sections after the file is read. Returns an error
// if an explicitly named file is missing (no silent fallback).
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-provided
	switch {
	case err == nil:
		if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No file, run on defaults.
	case os.IsNotExist(err):
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration can actually run a service.
func (c *Config) Validate() error {
	if len(c.Converter.InputFormats) == 0 {
		return fmt.Errorf("%w: converter.input_formats cannot be empty", ErrConfigInvalid)
	}
	if c.Converter.OutputFormat == "" {
		return fmt.Errorf("%w: converter.output_format cannot be empty", ErrConfigInvalid)
	}
	if c.Converter.Workers < 0 {
		return fmt.Errorf("%w: converter.workers cannot be negative, got %d", ErrConfigInvalid, c.Converter.Workers)
	}
	if c.Converter.MaxFileSize <= 0 {
		return fmt.Errorf("%w: converter.max_file_size must be positive, got %d", ErrConfigInvalid, c.Converter.MaxFileSize)
	}
	if c.Converter.ConversionTimeout <= 0 {
		return fmt.Errorf("%w: converter.conversion_timeout must be positive, got %d", ErrConfigInvalid, c.Converter.ConversionTimeout)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range, got %d", ErrConfigInvalid, c.Server.Port)
	}
	if c.Engine.Binary == "" {
		return fmt.Errorf("%w: engine.binary cannot be empty", ErrConfigInvalid)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log.format must be json or console, got %q", ErrConfigInvalid, c.Log.Format)
	}
	return nil
}
