// Package config holds the YAML run configuration for spritebake.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted when no config path is given.
const EnvPath = "SPRITEBAKE_CONFIG"

type Config struct {
	Paths  PathsConfig  `yaml:"paths"`
	Scan   ScanConfig   `yaml:"scan"`
	Icons  IconsConfig  `yaml:"icons"`
	Batch  BatchConfig  `yaml:"batch"`
	Report ReportConfig `yaml:"report"`
	Log    LogConfig    `yaml:"log"`
}

type PathsConfig struct {
	Database string `yaml:"database"`
	// Output defaults to database-groups.json next to Database.
	Output string `yaml:"output"`
	Images string `yaml:"images"`
	UIDir  string `yaml:"uiDir"`
}

type ScanConfig struct {
	ChunkSize int `yaml:"chunkSize"`
}

type IconsConfig struct {
	Size      int    `yaml:"size"`
	UIPattern string `yaml:"uiPattern"`
	// Square enables native-size square renders for non-icon UI sprites.
	Square bool `yaml:"square"`
}

type BatchConfig struct {
	ChunkSize   int           `yaml:"chunkSize"`
	Pause       time.Duration `yaml:"pause"`
	LoadTimeout time.Duration `yaml:"loadTimeout"`
	Reclaim     bool          `yaml:"reclaim"`
}

type ReportConfig struct {
	Ledger      string `yaml:"ledger"`
	MetricsFile string `yaml:"metricsFile"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Database: "assets/database/database.json",
			Images:   "assets/images",
			UIDir:    "ui",
		},
		Scan:  ScanConfig{ChunkSize: 100},
		Icons: IconsConfig{Size: 64, UIPattern: "_ui_", Square: true},
		Batch: BatchConfig{
			ChunkSize:   5,
			Pause:       500 * time.Millisecond,
			LoadTimeout: 30 * time.Second,
			Reclaim:     true,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path (or $SPRITEBAKE_CONFIG when path is empty) over the defaults.
// No path at all yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv(EnvPath)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Scan.ChunkSize <= 0 {
		return fmt.Errorf("scan.chunkSize must be positive, got %d", c.Scan.ChunkSize)
	}
	if c.Icons.Size <= 0 {
		return fmt.Errorf("icons.size must be positive, got %d", c.Icons.Size)
	}
	if c.Batch.ChunkSize <= 0 {
		return fmt.Errorf("batch.chunkSize must be positive, got %d", c.Batch.ChunkSize)
	}
	if c.Batch.Pause < 0 || c.Batch.LoadTimeout < 0 {
		return fmt.Errorf("batch durations must not be negative")
	}
	return nil
}

// OutputPath resolves where the rewritten snapshot goes.
func (c *Config) OutputPath() string {
	if c.Paths.Output != "" {
		return c.Paths.Output
	}
	return filepath.Join(filepath.Dir(c.Paths.Database), "database-groups.json")
}

// UIPath is the directory receiving icon renders.
func (c *Config) UIPath() string {
	return filepath.Join(c.Paths.Images, c.Paths.UIDir)
}
