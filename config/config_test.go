package config

import (
	"testing"

	"github.com/kbukum/docpipe/errors"
)

// fakeFS is a FileSystem with no files.
type fakeFS struct {
	files map[string]bool
}

func (f *fakeFS) Exists(path string) bool { return f.files[path] }
func (f *fakeFS) LoadEnv(string) error    { return nil }

func TestEngineConfig_Defaults(t *testing.T) {
	cfg := &PipelineConfig{Base: BaseConfig{Name: "batch"}}
	cfg.ApplyDefaults()

	if cfg.Engine.PartitionSize != 64 {
		t.Fatalf("expected default partition size 64, got %d", cfg.Engine.PartitionSize)
	}
	if cfg.Engine.ForgivingExtracts {
		t.Fatal("forgiving extracts must default to false")
	}
	if cfg.Database.BytesPerChunk != DefaultBytesPerChunk {
		t.Fatalf("expected 256 MiB default chunk, got %d", cfg.Database.BytesPerChunk)
	}
}

func TestDefaultBytesPerChunk(t *testing.T) {
	if DefaultBytesPerChunk != 268435456 {
		t.Fatalf("expected 268435456, got %d", DefaultBytesPerChunk)
	}
}

func TestVerbosityMapsToLogLevel(t *testing.T) {
	cfg := &PipelineConfig{Base: BaseConfig{Name: "batch"}, Engine: EngineConfig{Verbosity: 2}}
	cfg.ApplyDefaults()
	if cfg.Logging.Level != "trace" {
		t.Fatalf("expected verbosity 2 to map to trace, got %s", cfg.Logging.Level)
	}
}

func TestVerbosityDoesNotOverrideExplicitLevel(t *testing.T) {
	cfg := &PipelineConfig{Base: BaseConfig{Name: "batch"}, Engine: EngineConfig{Verbosity: 2}}
	cfg.Logging.Level = "error"
	cfg.ApplyDefaults()
	if cfg.Logging.Level != "error" {
		t.Fatalf("explicit level must win over verbosity, got %s", cfg.Logging.Level)
	}
}

func TestBaseConfig_ValidateBadEnvironment(t *testing.T) {
	cfg := &BaseConfig{Name: "batch", Environment: "sandbox"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid environment")
	}
}

func TestDatabaseConfig_ValidateUnused(t *testing.T) {
	cfg := &DatabaseConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unused database config must validate: %v", err)
	}
}

func TestDatabaseConfig_ValidateMissingDSN(t *testing.T) {
	cfg := &DatabaseConfig{SQL: "documents"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when connection_string is missing")
	}
}

func TestDatabaseConfig_ValidateMissingSQL(t *testing.T) {
	cfg := &DatabaseConfig{ConnectionString: "postgres://localhost/docs"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when sql is missing")
	}
}

func TestValidateStruct_Negative(t *testing.T) {
	cfg := &EngineConfig{Workers: -1}
	err := ValidateStruct(cfg)
	if err == nil {
		t.Fatal("expected validation error for negative workers")
	}
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestLoadWithFS_NoFiles(t *testing.T) {
	cfg, err := LoadWithFS("batch", LoaderConfig{}, &fakeFS{files: map[string]bool{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Base.Name != "batch" {
		t.Fatalf("expected service name fallback, got %s", cfg.Base.Name)
	}
	if cfg.Base.Environment != "development" {
		t.Fatalf("expected development default, got %s", cfg.Base.Environment)
	}
}
