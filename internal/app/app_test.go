package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/persistbench/persistbench/internal/config"
	benchErrors "github.com/persistbench/persistbench/internal/errors"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Records = 500
	cfg.ChunkSize = 50
	cfg.Seed = 1
	cfg.Verify = true
	return cfg
}

func TestApp_RunAllScenarios(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Textfile = filepath.Join(cfg.DataDir, "persistbench.prom")

	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	report, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(report.Results))
	}
	for _, r := range report.Results {
		if r.Written != 500 || !r.Verified {
			t.Errorf("unexpected result %+v", r)
		}
	}

	data, err := os.ReadFile(cfg.Metrics.Textfile)
	if err != nil {
		t.Fatalf("metrics textfile not written: %v", err)
	}
	if !strings.Contains(string(data), "persistbench_chunks_completed_total") {
		t.Errorf("textfile missing chunk counter:\n%s", data)
	}
}

func TestApp_PureGoDriverAndJSON(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "sqlite"
	cfg.Files.Format = "json"
	cfg.Files.Compress = true

	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
}

func TestApp_OnlyFileScenariosSkipDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scenarios = []string{config.ScenarioFileSingle}

	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if a.db != nil {
		t.Error("database opened although no table scenario was selected")
	}
	if _, err := os.Stat(cfg.Database.Path); !os.IsNotExist(err) {
		t.Errorf("expected no database file, stat err = %v", err)
	}
}

func TestApp_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workers = 0

	_, err := New(cfg, nil)
	if benchErrors.GetCategory(err) != benchErrors.ErrCategoryConfig {
		t.Errorf("expected CONFIG error, got %v", err)
	}
}

func TestApp_RunOnce(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scenarios = []string{config.ScenarioFileSingle}

	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := a.Run(context.Background()); err == nil {
		t.Error("expected second Run to fail")
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
