package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDefaultConfig_MatchesExperiment(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Records != 10000 {
		t.Errorf("Records = %d, want 10000", cfg.Records)
	}
	if cfg.ChunkSize != 250 {
		t.Errorf("ChunkSize = %d, want 250", cfg.ChunkSize)
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
	if diff := cmp.Diff(DefaultScenarios, cfg.Scenarios); diff != "" {
		t.Errorf("scenario order mismatch (-want +got):\n%s", diff)
	}
	if cfg.Database.Table != "purchase_order" {
		t.Errorf("Table = %q, want purchase_order", cfg.Database.Table)
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		t.Errorf("resolved default config is invalid: %v", err)
	}
}

func TestResolve(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/srv/bench"
	cfg.Scenarios = nil
	cfg.Resolve()

	if cfg.Storage.Path != filepath.Join("/srv/bench", "files") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
	if cfg.Database.Path != filepath.Join("/srv/bench", "bench.db") {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if len(cfg.Scenarios) != 4 {
		t.Errorf("Scenarios = %v, want all four", cfg.Scenarios)
	}

	// A DSN suppresses the derived path
	cfg = DefaultConfig()
	cfg.Database.DSN = "postgres://localhost/bench"
	cfg.Resolve()
	if cfg.Database.Path != "" {
		t.Errorf("Database.Path = %q, want empty when DSN is set", cfg.Database.Path)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero records", func(c *Config) { c.Records = 0 }, "records must be positive"},
		{"negative chunk", func(c *Config) { c.ChunkSize = -1 }, "chunk_size must be positive"},
		{"zero workers", func(c *Config) { c.Workers = 0 }, "workers must be positive"},
		{"unknown scenario", func(c *Config) { c.Scenarios = []string{"memory/single"} }, "invalid scenario"},
		{"template without id", func(c *Config) { c.Files.KeyTemplate = "order.rec" }, "key_template"},
		{"bad format", func(c *Config) { c.Files.Format = "xml" }, "invalid files.format"},
		{"bad driver", func(c *Config) { c.Database.Driver = "h2" }, "invalid database driver"},
		{"pgx without dsn", func(c *Config) { c.Database.Driver = "pgx" }, "database.dsn is required"},
		{"empty table", func(c *Config) { c.Database.Table = "" }, "database.table is required"},
		{"bad storage", func(c *Config) { c.Storage.Type = "gcs" }, "invalid storage type"},
		{"s3 without bucket", func(c *Config) { c.Storage.Type = "s3" }, "s3.bucket is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	content := `
data_dir: /tmp/pb
records: 500
chunk_size: 50
workers: 4
scenarios: [table/single, table/multi]
files:
  format: json
  compress: true
database:
  driver: sqlite
  busy_timeout: 2s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Records != 500 || cfg.ChunkSize != 50 || cfg.Workers != 4 {
		t.Errorf("unexpected sizes: %+v", cfg)
	}
	if cfg.Files.Format != "json" || !cfg.Files.Compress {
		t.Errorf("unexpected files config: %+v", cfg.Files)
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.BusyTimeout != 2*time.Second {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	// Unset fields keep their defaults
	if cfg.Database.Table != "purchase_order" {
		t.Errorf("Table = %q, want default", cfg.Database.Table)
	}
	if !cfg.HasScenario(ScenarioTableMulti) || cfg.HasScenario(ScenarioFileSingle) {
		t.Errorf("unexpected scenarios: %v", cfg.Scenarios)
	}
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.json")
	if err := os.WriteFile(path, []byte(`{"records": 42, "storage": {"type": "s3", "s3": {"bucket": "b"}}}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Records != 42 || cfg.Storage.Type != "s3" || cfg.Storage.S3.Bucket != "b" {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadFromFile_JSONBusyTimeout(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{"duration string", `"2s"`, 2 * time.Second, false},
		{"nanoseconds", `1500000000`, 1500 * time.Millisecond, false},
		{"null keeps default", `null`, 5 * time.Second, false},
		{"bad string", `"soon"`, 0, true},
		{"bad type", `true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bench.json")
			content := `{"database": {"driver": "sqlite", "busy_timeout": ` + tt.value + `}}`
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				t.Fatal(err)
			}

			cfg, err := LoadFromFile(path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("LoadFromFile failed: %v", err)
			}
			if cfg.Database.BusyTimeout != tt.want {
				t.Errorf("BusyTimeout = %v, want %v", cfg.Database.BusyTimeout, tt.want)
			}
			// Sibling fields still decode and defaults survive
			if cfg.Database.Driver != "sqlite" || cfg.Database.Table != "purchase_order" {
				t.Errorf("unexpected database config: %+v", cfg.Database)
			}
		})
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bench.toml")
	if err := os.WriteFile(path, []byte("records = 1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PERSISTBENCH_RECORDS", "1234")
	t.Setenv("PERSISTBENCH_WORKERS", "8")
	t.Setenv("PERSISTBENCH_CHUNK_SIZE", "not-a-number")
	t.Setenv("PERSISTBENCH_SCENARIOS", "file/single, table/multi")
	t.Setenv("PERSISTBENCH_DB_DRIVER", "pgx")
	t.Setenv("PERSISTBENCH_DB_DSN", "postgres://localhost/bench")
	t.Setenv("PERSISTBENCH_DB_BUSY_TIMEOUT", "750ms")
	t.Setenv("PERSISTBENCH_FILES_COMPRESS", "1")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	if cfg.Records != 1234 || cfg.Workers != 8 {
		t.Errorf("unexpected sizes: records=%d workers=%d", cfg.Records, cfg.Workers)
	}
	if cfg.ChunkSize != 250 {
		t.Errorf("invalid integer should keep default, got %d", cfg.ChunkSize)
	}
	if diff := cmp.Diff([]string{ScenarioFileSingle, ScenarioTableMulti}, cfg.Scenarios); diff != "" {
		t.Errorf("scenarios mismatch (-want +got):\n%s", diff)
	}
	if cfg.Database.Driver != "pgx" || cfg.Database.DSN == "" || cfg.Database.BusyTimeout != 750*time.Millisecond {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if !cfg.Files.Compress {
		t.Error("expected Files.Compress from env")
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PERSISTBENCH_TEST_ONLY_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("PERSISTBENCH_TEST_ONLY_KEY") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile failed: %v", err)
	}
	if got := os.Getenv("PERSISTBENCH_TEST_ONLY_KEY"); got != "from-dotenv" {
		t.Errorf("env = %q, want from-dotenv", got)
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "pb")
	cfg.Resolve()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.DataDir, cfg.Storage.Path, filepath.Dir(cfg.Database.Path)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s", dir)
		}
	}
}
