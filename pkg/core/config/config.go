// ============================================================================
// gridwerk - Spreadsheet Command Service
// ============================================================================
//
// Package:     config
// Description: TOML configuration for the gridwerk server and CLI
// Author:      Mike Stoffels
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration
type Config struct {
	General     GeneralConfig     `toml:"general"`
	Server      ServerConfig      `toml:"server"`
	GRPC        GRPCConfig        `toml:"grpc"`
	Store       StoreConfig       `toml:"store"`
	Interpreter InterpreterConfig `toml:"interpreter"`
	Assistant   AssistantConfig   `toml:"assistant"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name        string `toml:"name"`
	Environment string `toml:"environment"`
	DataDir     string `toml:"data_dir"`
	LogLevel    string `toml:"log_level"`
	LogFormat   string `toml:"log_format"`
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port         int        `toml:"port"`
	Host         string     `toml:"host"`
	ReadTimeout  Duration   `toml:"read_timeout"`
	WriteTimeout Duration   `toml:"write_timeout"`
	CORS         CORSConfig `toml:"cors"`
}

// CORSConfig holds CORS settings
type CORSConfig struct {
	Enabled        bool     `toml:"enabled"`
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
}

// GRPCConfig holds gRPC API settings
type GRPCConfig struct {
	Port             int    `toml:"port"`
	Host             string `toml:"host"`
	EnableReflection bool   `toml:"enable_reflection"`
}

// StoreConfig selects and configures the sheet store
type StoreConfig struct {
	Driver string `toml:"driver"` // sqlite or bolt
	Path   string `toml:"path"`
}

// InterpreterConfig holds command interpreter settings
type InterpreterConfig struct {
	MaxCommandLength int    `toml:"max_command_length"`
	OnError          string `toml:"on_error"` // keep or rollback
	DefaultRows      int    `toml:"default_rows"`
	DefaultColumns   int    `toml:"default_columns"`
	Audit            bool   `toml:"audit"` // one audit log record per run
}

// AssistantConfig holds the natural-language assistant settings
type AssistantConfig struct {
	Enabled     bool     `toml:"enabled"`
	BaseURL     string   `toml:"base_url"`
	Model       string   `toml:"model"`
	Timeout     Duration `toml:"timeout"`
	Temperature float64  `toml:"temperature"`
}

// Error policies for partially executed command strings
const (
	OnErrorKeep     = "keep"
	OnErrorRollback = "rollback"
)

// Store drivers
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
)

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from the GRIDWERK_CONFIG environment
// variable or the first default location that exists
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("GRIDWERK_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/config.toml",
			"./config.toml",
			filepath.Join(os.Getenv("HOME"), ".config/gridwerk/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, fmt.Errorf("no config file found, set GRIDWERK_CONFIG or create configs/config.toml")
	}

	return Load(path)
}

// LoadOrDefault behaves like LoadFromEnv but falls back to defaults when no
// config file exists
func LoadOrDefault(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	cfg, err := LoadFromEnv()
	if err != nil && strings.HasPrefix(err.Error(), "no config file found") {
		return Default(), nil
	}
	return cfg, err
}

// ApplyDefaults sets default values for missing configuration. Values that
// are already set are kept.
func (c *Config) ApplyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "gridwerk"
	}
	if c.General.Environment == "" {
		c.General.Environment = "development"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "json"
	}

	// Server
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 30 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = 120 * time.Second
	}
	if len(c.Server.CORS.AllowedOrigins) == 0 {
		c.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.Server.CORS.AllowedMethods) == 0 {
		c.Server.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}

	// gRPC
	if c.GRPC.Port == 0 {
		c.GRPC.Port = 9300
	}
	if c.GRPC.Host == "" {
		c.GRPC.Host = "0.0.0.0"
	}

	// Store
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case DriverBolt:
			c.Store.Path = filepath.Join(c.General.DataDir, "sheets.db")
		default:
			c.Store.Path = filepath.Join(c.General.DataDir, "sheets.sqlite")
		}
	}

	// Interpreter
	if c.Interpreter.MaxCommandLength == 0 {
		c.Interpreter.MaxCommandLength = 4096
	}
	if c.Interpreter.OnError == "" {
		c.Interpreter.OnError = OnErrorKeep
	}
	if c.Interpreter.DefaultRows == 0 {
		c.Interpreter.DefaultRows = 20
	}
	if c.Interpreter.DefaultColumns == 0 {
		c.Interpreter.DefaultColumns = 10
	}

	// Assistant
	if c.Assistant.BaseURL == "" {
		c.Assistant.BaseURL = "http://localhost:11434"
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "mistral:7b"
	}
	if c.Assistant.Timeout.Duration == 0 {
		c.Assistant.Timeout.Duration = 120 * time.Second
	}
	if c.Assistant.Temperature == 0 {
		c.Assistant.Temperature = 0.1
	}
}

// expandEnvVars expands environment variables in path-like values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Assistant.BaseURL = os.ExpandEnv(c.Assistant.BaseURL)
}

// Validate checks enumerated values and ranges
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverSQLite, DriverBolt:
	default:
		return fmt.Errorf("invalid store driver %q, expected %s or %s", c.Store.Driver, DriverSQLite, DriverBolt)
	}
	switch c.Interpreter.OnError {
	case OnErrorKeep, OnErrorRollback:
	default:
		return fmt.Errorf("invalid interpreter.on_error %q, expected %s or %s", c.Interpreter.OnError, OnErrorKeep, OnErrorRollback)
	}
	if c.Interpreter.DefaultRows < 0 || c.Interpreter.DefaultColumns < 0 {
		return fmt.Errorf("default grid size must not be negative")
	}
	return nil
}

// HTTPAddress returns the listen address of the HTTP API
func (c *Config) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GRPCAddress returns the listen address of the gRPC API
func (c *Config) GRPCAddress() string {
	return fmt.Sprintf("%s:%d", c.GRPC.Host, c.GRPC.Port)
}
