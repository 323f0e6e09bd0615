package bench

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/persistbench/persistbench/internal/writer"
)

// Result is the measurement of one scenario.
type Result struct {
	Scenario        string        `json:"scenario"`
	Backend         string        `json:"backend"`
	Mode            string        `json:"mode"`
	Written         int           `json:"written"`
	Chunks          int           `json:"chunks"`
	PeakConcurrency int           `json:"peak_concurrency"`
	StartedAt       time.Time     `json:"started_at"`
	Elapsed         time.Duration `json:"elapsed"`
	Verified        bool          `json:"verified"`
}

// Throughput returns records written per second.
func (r Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Written) / r.Elapsed.Seconds()
}

// Title returns the human readable scenario name.
func (r Result) Title() string {
	backend := "File System"
	if r.Backend == writer.BackendTable {
		backend = "Database Table"
	}
	mode := "Single Thread"
	if r.Mode == ModeMulti {
		mode = "Multi Thread"
	}
	return backend + " - " + mode
}

// Report collects the results of one benchmark run.
type Report struct {
	Records   int       `json:"records"`
	Workers   int       `json:"workers"`
	ChunkSize int       `json:"chunk_size"`
	StartedAt time.Time `json:"started_at"`
	Results   []Result  `json:"results"`
}

// Total returns the summed elapsed time of all scenarios.
func (r *Report) Total() time.Duration {
	var total time.Duration
	for _, res := range r.Results {
		total += res.Elapsed
	}
	return total
}

// Result returns the result for a scenario name.
func (r *Report) Result(scenario string) (Result, bool) {
	for _, res := range r.Results {
		if res.Scenario == scenario {
			return res, true
		}
	}
	return Result{}, false
}

const separator = "-----------------------------------------------------------------------------------"

// WriteTo renders the report as a stopwatch table.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "persistbench: %s records, %d workers, chunks of %d\n",
		humanize.Comma(int64(r.Records)), r.Workers, r.ChunkSize)

	for _, res := range r.Results {
		b.WriteString(separator + "\n")
		fmt.Fprintf(&b, "%s: %s Objects\n", res.Title(), humanize.Comma(int64(res.Written)))
		fmt.Fprintf(&b, "  %-12s %s\n", "elapsed", formatDuration(res.Elapsed))
		fmt.Fprintf(&b, "  %-12s %s records/s\n", "throughput", humanize.CommafWithDigits(res.Throughput(), 1))
		if res.Mode == ModeMulti {
			fmt.Fprintf(&b, "  %-12s %d (peak concurrency %d)\n", "chunks", res.Chunks, res.PeakConcurrency)
		}
		if res.Verified {
			fmt.Fprintf(&b, "  %-12s ok\n", "verified")
		}
	}

	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "%-14s %s\n", "total", formatDuration(r.Total()))

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// formatDuration prints ms resolution plus the StopWatch-style nanoseconds.
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%s ms (%s ns)",
		humanize.CommafWithDigits(float64(d)/float64(time.Millisecond), 3),
		humanize.Comma(d.Nanoseconds()))
}
