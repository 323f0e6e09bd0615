// Package config provides configuration for the persistence benchmark.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Scenario names in default execution order.
const (
	ScenarioFileSingle  = "file/single"
	ScenarioTableSingle = "table/single"
	ScenarioFileMulti   = "file/multi"
	ScenarioTableMulti  = "table/multi"
)

// DefaultScenarios lists every scenario in the order they run.
var DefaultScenarios = []string{
	ScenarioFileSingle,
	ScenarioTableSingle,
	ScenarioFileMulti,
	ScenarioTableMulti,
}

// Config holds the benchmark configuration.
type Config struct {
	// DataDir is the base directory for all output files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Records is the number of records to generate
	Records int `json:"records" yaml:"records"`

	// ChunkSize is the number of records per worker task
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// Workers is the size of the fixed worker pool
	Workers int `json:"workers" yaml:"workers"`

	// Seed makes generated product names reproducible (0 = random)
	Seed int64 `json:"seed" yaml:"seed"`

	// Price is the unit price given to every record
	Price float64 `json:"price" yaml:"price"`

	// Scenarios selects which scenarios run, in order
	Scenarios []string `json:"scenarios" yaml:"scenarios"`

	// Verify reads every backend back after its scenario, outside the timer
	Verify bool `json:"verify" yaml:"verify"`

	// Files configures the file-backed writer
	Files FilesConfig `json:"files" yaml:"files"`

	// Database configures the table-backed writer
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Storage configures where record files are stored
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Log configures logging
	Log LogConfig `json:"log" yaml:"log"`

	// Metrics configures metrics export
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`
}

// FilesConfig holds file-backed writer configuration.
type FilesConfig struct {
	// KeyTemplate is a fmt template receiving the record ID
	KeyTemplate string `json:"key_template" yaml:"key_template"`

	// Format is the payload encoding: proto or json
	Format string `json:"format" yaml:"format"`

	// Compress enables snappy compression of payloads
	Compress bool `json:"compress" yaml:"compress"`

	// CleanBeforeRun deletes objects from a previous run before writing
	CleanBeforeRun bool `json:"clean_before_run" yaml:"clean_before_run"`
}

// DatabaseConfig holds table-backed writer configuration.
type DatabaseConfig struct {
	// Driver is the database/sql driver: sqlite3, sqlite, pgx
	Driver string `json:"driver" yaml:"driver"`

	// Path is the SQLite database file
	Path string `json:"path" yaml:"path"`

	// DSN overrides Path with a full connection string (required for pgx)
	DSN string `json:"dsn" yaml:"dsn"`

	// Table is the destination table, dropped and recreated per scenario
	Table string `json:"table" yaml:"table"`

	// MaxOpenConns caps the shared connection pool
	MaxOpenConns int `json:"max_open_conns" yaml:"max_open_conns"`

	// BusyTimeout is how long a SQLite writer waits for the write lock.
	// Files accept a duration string ("2s"); JSON also takes integer nanoseconds.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`
}

// UnmarshalJSON decodes busy_timeout from either a duration string or a
// nanosecond count. Fields absent from data keep their current values.
func (d *DatabaseConfig) UnmarshalJSON(data []byte) error {
	type plain DatabaseConfig
	aux := struct {
		*plain
		BusyTimeout json.RawMessage `json:"busy_timeout"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.BusyTimeout) == 0 || string(aux.BusyTimeout) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(aux.BusyTimeout, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid busy_timeout %q: %w", s, err)
		}
		d.BusyTimeout = v
		return nil
	}
	var ns int64
	if err := json.Unmarshal(aux.BusyTimeout, &ns); err != nil {
		return fmt.Errorf("invalid busy_timeout %s: %w", aux.BusyTimeout, err)
	}
	d.BusyTimeout = time.Duration(ns)
	return nil
}

// StorageConfig holds record file storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level" yaml:"level"`

	// Development switches to the human-readable console encoder
	Development bool `json:"development" yaml:"development"`
}

// MetricsConfig holds metrics export configuration.
type MetricsConfig struct {
	// Textfile is written in Prometheus text format after the run (empty = off)
	Textfile string `json:"textfile" yaml:"textfile"`
}

// DefaultConfig returns the standard benchmark shape:
// 10,000 records, chunks of 250, three workers.
func DefaultConfig() *Config {
	return &Config{
		DataDir:   "./data/persistbench",
		Records:   10000,
		ChunkSize: 250,
		Workers:   3,
		Price:     1000,
		Scenarios: append([]string(nil), DefaultScenarios...),
		Files: FilesConfig{
			KeyTemplate:    "purchase_orders/purchase_order_%d.rec",
			Format:         "proto",
			CleanBeforeRun: true,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite3",
			Table:        "purchase_order",
			MaxOpenConns: 10,
			BusyTimeout:  5 * time.Second,
		},
		Storage: StorageConfig{
			Type: "local",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/persistbench"
	}

	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "files")
	}

	if c.Database.Path == "" && c.Database.DSN == "" {
		c.Database.Path = filepath.Join(c.DataDir, "bench.db")
	}

	if len(c.Scenarios) == 0 {
		c.Scenarios = append([]string(nil), DefaultScenarios...)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Records <= 0 {
		return fmt.Errorf("records must be positive, got %d", c.Records)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}

	for _, s := range c.Scenarios {
		if !isScenario(s) {
			return fmt.Errorf("invalid scenario: %s (must be one of %s)", s, strings.Join(DefaultScenarios, ", "))
		}
	}

	if !strings.Contains(c.Files.KeyTemplate, "%d") {
		return fmt.Errorf("files.key_template must contain %%d, got %q", c.Files.KeyTemplate)
	}

	switch strings.ToLower(c.Files.Format) {
	case "proto", "protobuf", "json":
	default:
		return fmt.Errorf("invalid files.format: %s (must be proto or json)", c.Files.Format)
	}

	switch c.Database.Driver {
	case "sqlite3", "sqlite":
		if c.Database.Path == "" && c.Database.DSN == "" {
			return fmt.Errorf("database.path or database.dsn is required for driver %s", c.Database.Driver)
		}
	case "pgx":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required when driver is pgx")
		}
	default:
		return fmt.Errorf("invalid database driver: %s (must be sqlite3, sqlite, or pgx)", c.Database.Driver)
	}

	if c.Database.Table == "" {
		return fmt.Errorf("database.table is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	return nil
}

// HasScenario reports whether the named scenario is selected.
func (c *Config) HasScenario(name string) bool {
	for _, s := range c.Scenarios {
		if s == name {
			return true
		}
	}
	return false
}

func isScenario(name string) bool {
	for _, s := range DefaultScenarios {
		if s == name {
			return true
		}
	}
	return false
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a .env file into the process
// environment. A missing default file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed loading env file %s: %w", path, err)
		}
	}
	return nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the PERSISTBENCH_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("PERSISTBENCH_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v, ok := envInt("PERSISTBENCH_RECORDS"); ok {
		cfg.Records = v
	}
	if v, ok := envInt("PERSISTBENCH_CHUNK_SIZE"); ok {
		cfg.ChunkSize = v
	}
	if v, ok := envInt("PERSISTBENCH_WORKERS"); ok {
		cfg.Workers = v
	}
	if v := os.Getenv("PERSISTBENCH_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = n
		}
	}
	if v := os.Getenv("PERSISTBENCH_SCENARIOS"); v != "" {
		cfg.Scenarios = splitList(v)
	}
	if v := os.Getenv("PERSISTBENCH_VERIFY"); v != "" {
		cfg.Verify = v == "true" || v == "1"
	}

	// Files configuration
	if v := os.Getenv("PERSISTBENCH_FILES_KEY_TEMPLATE"); v != "" {
		cfg.Files.KeyTemplate = v
	}
	if v := os.Getenv("PERSISTBENCH_FILES_FORMAT"); v != "" {
		cfg.Files.Format = v
	}
	if v := os.Getenv("PERSISTBENCH_FILES_COMPRESS"); v != "" {
		cfg.Files.Compress = v == "true" || v == "1"
	}

	// Database configuration
	if v := os.Getenv("PERSISTBENCH_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("PERSISTBENCH_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PERSISTBENCH_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PERSISTBENCH_DB_TABLE"); v != "" {
		cfg.Database.Table = v
	}
	if v, ok := envInt("PERSISTBENCH_DB_MAX_OPEN_CONNS"); ok {
		cfg.Database.MaxOpenConns = v
	}
	if v := os.Getenv("PERSISTBENCH_DB_BUSY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Database.BusyTimeout = d
		}
	}

	// Storage configuration
	if v := os.Getenv("PERSISTBENCH_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("PERSISTBENCH_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PERSISTBENCH_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("PERSISTBENCH_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("PERSISTBENCH_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}

	// Log and metrics configuration
	if v := os.Getenv("PERSISTBENCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PERSISTBENCH_METRICS_TEXTFILE"); v != "" {
		cfg.Metrics.Textfile = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.DataDir}
	if c.Storage.Type == "local" {
		dirs = append(dirs, c.Storage.Path)
	}
	if c.Database.DSN == "" && c.Database.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
