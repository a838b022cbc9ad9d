package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig controls where Load looks for files.
type LoaderConfig struct {
	// ConfigFile is an explicit config file path. Empty means search.
	ConfigFile string
	// EnvFile is an explicit .env file path. Empty means search.
	EnvFile string
	// EnvPrefix namespaces environment overrides (default "DOCPIPE").
	EnvPrefix string
}

// Load reads configuration for serviceName: .env first, then config.yml,
// then environment overrides. Returns the validated PipelineConfig.
func Load(serviceName string, opts LoaderConfig) (*PipelineConfig, error) {
	return LoadWithFS(serviceName, opts, &RealFileSystem{})
}

// LoadWithFS is Load with an injectable filesystem.
func LoadWithFS(serviceName string, opts LoaderConfig, fs FileSystem) (*PipelineConfig, error) {
	resolved := resolveFiles(serviceName, opts, fs)

	if resolved.EnvFile != "" {
		if err := fs.LoadEnv(resolved.EnvFile); err != nil {
			return nil, fmt.Errorf("loading env file %s: %w", resolved.EnvFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "DOCPIPE"
	}
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if resolved.ConfigFile != "" {
		v.SetConfigFile(resolved.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", resolved.ConfigFile, err)
		}
	}

	cfg := &PipelineConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Base.Name == "" {
		cfg.Base.Name = serviceName
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

type resolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

func resolveFiles(serviceName string, opts LoaderConfig, fs FileSystem) resolvedFiles {
	resolved := resolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = findFirst(fs, []string{
			fmt.Sprintf("./cmd/%s/config.yml", serviceName),
			"./config/config.yml",
			"./config.yml",
		})
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = findFirst(fs, []string{
			fmt.Sprintf("./cmd/%s/.env", serviceName),
			"./.env",
		})
	}
	return resolved
}

func findFirst(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}
