// Package config holds the run configuration of the pipeline.
//
// A Config is loaded from YAML over DefaultConfig, validated, and then
// resolved into an immutable Paths value for one run. Stages receive Paths
// and never look up locations on their own.
package config

import (
	"fmt"
	"os"

	defaults "github.com/xtxerr/medallion/config"
	"gopkg.in/yaml.v3"
)

// Config represents the complete pipeline configuration.
type Config struct {
	// Input names the source feeds.
	Input InputConfig `yaml:"input"`

	// Lake configures the bronze/silver/gold layer storage.
	Lake LakeConfig `yaml:"lake"`

	// Output configures the published dataset set.
	Output OutputConfig `yaml:"output"`

	// Parquet configures table encoding.
	Parquet ParquetConfig `yaml:"parquet"`

	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// InputConfig names the source feeds.
type InputConfig struct {
	// Orders is the required orders feed.
	Orders string `yaml:"orders" validate:"required"`

	// Products is the optional price feed. Empty or missing disables revenue.
	Products string `yaml:"products"`

	// Delimiter is a single character, or "auto" to sniff it.
	Delimiter string `yaml:"delimiter" validate:"required"`
}

// LakeConfig configures layer storage.
type LakeConfig struct {
	// Dir is the root directory of the bronze, silver and gold layers.
	Dir string `yaml:"dir" validate:"required"`

	// RetentionDays prunes Bronze partitions older than this many days.
	// Zero keeps every partition.
	RetentionDays int `yaml:"retention_days" validate:"gte=0"`
}

// OutputConfig configures publication.
type OutputConfig struct {
	// Dir receives parquet/, csv/ and the database file.
	Dir string `yaml:"dir" validate:"required"`

	// Database configures the embedded relational database.
	Database DatabaseConfig `yaml:"database"`

	// XLSX additionally writes a spreadsheet workbook.
	XLSX bool `yaml:"xlsx"`

	// Verify recomputes totals from the published Parquet files after publishing.
	Verify bool `yaml:"verify"`
}

// DatabaseConfig configures the embedded database.
type DatabaseConfig struct {
	// Driver is duckdb or sqlite.
	Driver string `yaml:"driver" validate:"oneof=duckdb sqlite"`

	// File is the database file name inside the output directory.
	// Defaults to sales.duckdb or sales.db depending on Driver.
	File string `yaml:"file"`
}

// ParquetConfig configures table encoding.
type ParquetConfig struct {
	// Compression is none, snappy, zstd, lz4 or gzip.
	Compression string `yaml:"compression" validate:"oneof=none snappy zstd lz4 gzip"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" validate:"oneof=debug info warn warning error"`

	// JSON switches to JSON log records.
	JSON bool `yaml:"json"`
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			Orders:    defaults.DefaultOrdersPath,
			Products:  defaults.DefaultProductsPath,
			Delimiter: defaults.DefaultDelimiter,
		},
		Lake: LakeConfig{
			Dir: defaults.DefaultLakeDir,
		},
		Output: OutputConfig{
			Dir: defaults.DefaultOutputDir,
			Database: DatabaseConfig{
				Driver: defaults.DefaultDatabaseDriver,
			},
		},
		Parquet: ParquetConfig{
			Compression: defaults.DefaultCompression,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DatabaseFile returns the configured database file name, defaulting by driver.
func (c *OutputConfig) DatabaseFile() string {
	if c.Database.File != "" {
		return c.Database.File
	}
	if c.Database.Driver == defaults.DatabaseSQLite {
		return defaults.DefaultSQLiteFile
	}
	return defaults.DefaultDuckDBFile
}
