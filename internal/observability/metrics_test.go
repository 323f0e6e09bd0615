package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics()

	m.AddRecords("file", "single", 10000)
	m.AddRecords("file", "multi", 250)
	m.AddRecords("file", "multi", 250)
	m.AddRecords("table", "multi", 0)
	for i := 0; i < 40; i++ {
		m.IncChunk("table")
	}

	if got := testutil.ToFloat64(m.recordsWritten.WithLabelValues("file", "single")); got != 10000 {
		t.Errorf("expected 10000 file/single records, got %v", got)
	}
	if got := testutil.ToFloat64(m.recordsWritten.WithLabelValues("file", "multi")); got != 500 {
		t.Errorf("expected 500 file/multi records, got %v", got)
	}
	if got := testutil.ToFloat64(m.chunksCompleted.WithLabelValues("table")); got != 40 {
		t.Errorf("expected 40 chunks, got %v", got)
	}
}

func TestMetrics_ScenarioDurationOverwrites(t *testing.T) {
	m := NewMetrics()
	m.ObserveScenario("file/single", 2*time.Second)
	m.ObserveScenario("file/single", 1500*time.Millisecond)

	if got := testutil.ToFloat64(m.scenarioDuration.WithLabelValues("file/single")); got != 1.5 {
		t.Errorf("expected 1.5s, got %v", got)
	}
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	a, b := NewMetrics(), NewMetrics()
	a.IncChunk("file")
	if got := testutil.ToFloat64(b.chunksCompleted.WithLabelValues("file")); got != 0 {
		t.Errorf("expected isolated registries, got %v", got)
	}
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveScenario("table/multi", time.Second)
	m.AddRecords("table", "multi", 10000)

	path := filepath.Join(t.TempDir(), "persistbench.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		`persistbench_scenario_duration_seconds{scenario="table/multi"} 1`,
		`persistbench_records_written_total{backend="table",mode="multi"} 10000`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}
