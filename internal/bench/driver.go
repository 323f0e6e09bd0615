// Package bench runs the persistence scenarios and times each of them.
package bench

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/persistbench/persistbench/internal/config"
	benchErrors "github.com/persistbench/persistbench/internal/errors"
	"github.com/persistbench/persistbench/internal/observability"
	"github.com/persistbench/persistbench/internal/partition"
	"github.com/persistbench/persistbench/internal/workerpool"
	"github.com/persistbench/persistbench/internal/writer"
	"github.com/persistbench/persistbench/pkg/types"
	"go.uber.org/zap"
)

// Execution modes.
const (
	ModeSingle = "single"
	ModeMulti  = "multi"
)

// Options controls which scenarios run and how multi mode is split.
type Options struct {
	// Scenarios in execution order; empty runs config.DefaultScenarios
	Scenarios []string
	// ChunkSize is the number of records per pool task
	ChunkSize int
	// Workers is the pool size
	Workers int
	// Verify reads each backend back after its scenario, outside the timer
	Verify bool
}

// Driver runs scenarios sequentially against the configured writers.
type Driver struct {
	opts    Options
	writers map[string]writer.Writer
	pool    *workerpool.Pool
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDriver creates a driver. Writers are keyed by their Backend name; a
// scenario whose backend has no writer fails when it runs.
func NewDriver(opts Options, writers []writer.Writer, metrics *observability.Metrics, logger *zap.Logger) *Driver {
	if len(opts.Scenarios) == 0 {
		opts.Scenarios = append([]string(nil), config.DefaultScenarios...)
	}
	if metrics == nil {
		metrics = observability.NewMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	byBackend := make(map[string]writer.Writer, len(writers))
	for _, w := range writers {
		byBackend[w.Backend()] = w
	}
	return &Driver{
		opts:    opts,
		writers: byBackend,
		pool:    workerpool.New(opts.Workers),
		metrics: metrics,
		logger:  logger,
	}
}

// OptionsFromConfig extracts driver options from the benchmark configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Scenarios: cfg.Scenarios,
		ChunkSize: cfg.ChunkSize,
		Workers:   cfg.Workers,
		Verify:    cfg.Verify,
	}
}

// Run executes every selected scenario in order over the same records and
// returns the report. The first failure aborts the run.
func (d *Driver) Run(ctx context.Context, records []types.Record) (*Report, error) {
	if err := types.ValidateUnique(records); err != nil {
		return nil, benchErrors.NewGenerationError(benchErrors.CodeDuplicateID, err.Error())
	}

	report := &Report{
		Records:   len(records),
		Workers:   d.pool.Size(),
		ChunkSize: d.opts.ChunkSize,
		StartedAt: time.Now(),
	}

	for _, name := range d.opts.Scenarios {
		result, err := d.runScenario(ctx, name, records)
		if err != nil {
			return report, err
		}
		report.Results = append(report.Results, result)
	}

	return report, nil
}

func (d *Driver) runScenario(ctx context.Context, name string, records []types.Record) (Result, error) {
	backend, mode, err := parseScenario(name)
	if err != nil {
		return Result{}, err
	}
	w, ok := d.writers[backend]
	if !ok {
		return Result{}, benchErrors.NewConfigError(fmt.Sprintf("no writer configured for backend %q", backend), nil)
	}

	logger := d.logger.With(zap.String("scenario", name))
	logger.Info("scenario started", zap.Int("records", len(records)))

	result := Result{Scenario: name, Backend: backend, Mode: mode}

	if err := w.Reset(ctx); err != nil {
		return result, err
	}

	start := time.Now()
	result.StartedAt = start
	if err := w.Prepare(ctx); err != nil {
		return result, err
	}

	switch mode {
	case ModeSingle:
		n, err := w.WriteBatch(ctx, records)
		d.metrics.AddRecords(backend, mode, n)
		if err != nil {
			return result, err
		}
		result.Written = n
		result.Chunks = 1
		result.PeakConcurrency = 1
	case ModeMulti:
		stats, written, err := d.runChunks(ctx, w, records)
		result.Chunks = stats.Submitted
		result.PeakConcurrency = stats.PeakConcurrency
		result.Written = written
		if err != nil {
			return result, schedulingError(err)
		}
	}
	result.Elapsed = time.Since(start)

	d.metrics.ObserveScenario(name, result.Elapsed)
	logger.Info("scenario completed",
		zap.Duration("elapsed", result.Elapsed),
		zap.Int("written", result.Written),
		zap.Int("chunks", result.Chunks),
		zap.Int("peak_concurrency", result.PeakConcurrency),
	)

	if d.opts.Verify {
		if err := verify(ctx, w, len(records)); err != nil {
			return result, err
		}
		result.Verified = true
		logger.Debug("scenario verified")
	}

	return result, nil
}

// runChunks submits one pool task per chunk and waits for all of them.
func (d *Driver) runChunks(ctx context.Context, w writer.Writer, records []types.Record) (workerpool.Stats, int, error) {
	chunks := partition.Chunk(records, d.opts.ChunkSize)
	written := make([]int, len(chunks))

	tasks := make([]workerpool.Task, len(chunks))
	for i, chunk := range chunks {
		tasks[i] = func(ctx context.Context) error {
			n, err := w.WriteBatch(ctx, chunk)
			written[i] = n
			d.metrics.AddRecords(w.Backend(), ModeMulti, n)
			if err != nil {
				return err
			}
			d.metrics.IncChunk(w.Backend())
			return nil
		}
	}

	stats, err := d.pool.Run(ctx, tasks)

	total := 0
	for _, n := range written {
		total += n
	}
	return stats, total, err
}

type distinctCounter interface {
	CountDistinctIDs(ctx context.Context) (int, error)
}

// verify checks that the backend holds exactly want records with unique ids.
func verify(ctx context.Context, w writer.Writer, want int) error {
	got, err := w.Count(ctx)
	if err != nil {
		return err
	}
	if got != want {
		return benchErrors.New(benchErrors.ErrCategoryInternal, benchErrors.CodeVerifyFailed,
			fmt.Sprintf("%s backend holds %d records, expected %d", w.Backend(), got, want))
	}
	if dc, ok := w.(distinctCounter); ok {
		distinct, err := dc.CountDistinctIDs(ctx)
		if err != nil {
			return err
		}
		if distinct != want {
			return benchErrors.New(benchErrors.ErrCategoryInternal, benchErrors.CodeVerifyFailed,
				fmt.Sprintf("%s backend holds %d distinct ids, expected %d", w.Backend(), distinct, want))
		}
	}
	return nil
}

func parseScenario(name string) (backend, mode string, err error) {
	backend, mode, ok := strings.Cut(name, "/")
	if !ok || (backend != writer.BackendFile && backend != writer.BackendTable) ||
		(mode != ModeSingle && mode != ModeMulti) {
		return "", "", benchErrors.NewConfigError(fmt.Sprintf("invalid scenario %q", name), nil)
	}
	return backend, mode, nil
}

// schedulingError keeps writer errors as they are and classifies pool
// failures that carry no category of their own.
func schedulingError(err error) error {
	if benchErrors.GetCategory(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return benchErrors.NewSchedulingError(benchErrors.CodeInterrupted, "multi-threaded scenario interrupted", err)
	}
	return benchErrors.NewSchedulingError(benchErrors.CodeTaskFailed, "chunk task failed", err)
}
