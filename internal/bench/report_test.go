package bench

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestResult_Throughput(t *testing.T) {
	r := Result{Written: 10000, Elapsed: 2 * time.Second}
	if got := r.Throughput(); got != 5000 {
		t.Errorf("expected 5000 records/s, got %v", got)
	}
	if got := (Result{Written: 10}).Throughput(); got != 0 {
		t.Errorf("expected 0 for zero elapsed, got %v", got)
	}
}

func TestReport_WriteTo(t *testing.T) {
	report := &Report{
		Records:   10000,
		Workers:   3,
		ChunkSize: 250,
		Results: []Result{
			{Scenario: "file/single", Backend: "file", Mode: ModeSingle, Written: 10000, Chunks: 1, Elapsed: 1500 * time.Millisecond},
			{Scenario: "table/multi", Backend: "table", Mode: ModeMulti, Written: 10000, Chunks: 40, PeakConcurrency: 3, Elapsed: 500 * time.Millisecond, Verified: true},
		},
	}

	var buf bytes.Buffer
	n, err := report.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo returned %d, wrote %d bytes", n, buf.Len())
	}

	out := buf.String()
	for _, want := range []string{
		"persistbench: 10,000 records, 3 workers, chunks of 250",
		"File System - Single Thread: 10,000 Objects",
		"Database Table - Multi Thread: 10,000 Objects",
		"1,500 ms (1,500,000,000 ns)",
		"20,000 records/s",
		"40 (peak concurrency 3)",
		"verified     ok",
		"2,000 ms",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, separator) != 3 {
		t.Errorf("expected 3 separators, got %d", strings.Count(out, separator))
	}
}

func TestReport_Lookup(t *testing.T) {
	report := &Report{Results: []Result{{Scenario: "file/multi", Elapsed: time.Second}}}
	if _, ok := report.Result("file/multi"); !ok {
		t.Error("expected file/multi result")
	}
	if _, ok := report.Result("table/multi"); ok {
		t.Error("unexpected table/multi result")
	}
	if report.Total() != time.Second {
		t.Errorf("expected total 1s, got %v", report.Total())
	}
}
