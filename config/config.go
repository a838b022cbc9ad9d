// Package config provides configuration loading for docpipe pipelines.
//
// Configuration comes from a config.yml file (viper), .env files
// (godotenv), and environment variable overrides, in that order of
// increasing precedence. Struct-tag validation uses the validator
// library.
package config

import (
	"fmt"

	"github.com/kbukum/docpipe/logger"
)

// DefaultBytesPerChunk is the default partition size for table loads: 256 MiB.
const DefaultBytesPerChunk = 256 << 20

// BaseConfig contains essential fields that every pipeline service needs.
type BaseConfig struct {
	Name        string `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string `yaml:"environment" mapstructure:"environment"`
	Debug       bool   `yaml:"debug" mapstructure:"debug"`
}

// ApplyDefaults applies default values to base configuration.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
}

// Validate validates base configuration.
func (c *BaseConfig) Validate() error {
	validEnvs := []string{"development", "staging", "production"}
	for _, v := range validEnvs {
		if c.Environment == v {
			return ValidateStruct(c)
		}
	}
	return fmt.Errorf("base.environment must be one of [development, staging, production] (got: %s)", c.Environment)
}

// EngineConfig controls bag realization and failure containment.
type EngineConfig struct {
	// Workers bounds concurrent partition realization (0 = NumCPU).
	Workers int `yaml:"workers" mapstructure:"workers" validate:"min=0"`
	// PartitionSize is the element count per partition when slicing sources.
	PartitionSize int `yaml:"partition_size" mapstructure:"partition_size" validate:"min=0"`
	// ForgivingExtracts turns per-element failures into error markers.
	ForgivingExtracts bool `yaml:"forgiving_extracts" mapstructure:"forgiving_extracts"`
	// Verbosity is a passthrough diagnostic level, forwarded to logging.
	Verbosity int `yaml:"verbosity" mapstructure:"verbosity"`
}

// ApplyDefaults applies default values to engine configuration.
func (c *EngineConfig) ApplyDefaults() {
	if c.PartitionSize == 0 {
		c.PartitionSize = 64
	}
}

// DatabaseConfig describes a table source for database-backed pipelines.
type DatabaseConfig struct {
	// ConnectionString is the database DSN.
	ConnectionString string `yaml:"connection_string" mapstructure:"connection_string"`
	// SQL is a table name or query expression.
	SQL string `yaml:"sql" mapstructure:"sql"`
	// IndexColumn orders rows so partition cuts are stable.
	IndexColumn string `yaml:"index_column" mapstructure:"index_column"`
	// BytesPerChunk controls partition size of the table load.
	BytesPerChunk int64 `yaml:"bytes_per_chunk" mapstructure:"bytes_per_chunk" validate:"min=0"`
}

// ApplyDefaults applies default values to database configuration.
func (c *DatabaseConfig) ApplyDefaults() {
	if c.BytesPerChunk == 0 {
		c.BytesPerChunk = DefaultBytesPerChunk
	}
}

// Validate validates database configuration when a source is configured.
func (c *DatabaseConfig) Validate() error {
	if c.ConnectionString == "" && c.SQL == "" {
		return nil // database source not in use
	}
	if c.ConnectionString == "" {
		return fmt.Errorf("database.connection_string is required when database.sql is set")
	}
	if c.SQL == "" {
		return fmt.Errorf("database.sql is required when database.connection_string is set")
	}
	return ValidateStruct(c)
}

// PipelineConfig is the root configuration for a docpipe service.
type PipelineConfig struct {
	Base     BaseConfig     `yaml:"base" mapstructure:"base"`
	Logging  logger.Config  `yaml:"logging" mapstructure:"logging"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	// Document holds arbitrary settings forwarded verbatim to every
	// constructed document object.
	Document map[string]any `yaml:"document" mapstructure:"document"`
}

// ApplyDefaults applies defaults to all sections.
func (c *PipelineConfig) ApplyDefaults() {
	c.Base.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Engine.ApplyDefaults()
	c.Database.ApplyDefaults()
	if c.Engine.Verbosity > 0 && c.Logging.Level == "info" {
		c.Logging.Level = logger.FromVerbosity(c.Engine.Verbosity)
	}
}

// Validate validates all sections.
func (c *PipelineConfig) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := ValidateStruct(&c.Engine); err != nil {
		return err
	}
	return c.Database.Validate()
}
