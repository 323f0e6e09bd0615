// Package app wires configuration, storage, database and writers into a
// benchmark run.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/persistbench/persistbench/internal/bench"
	"github.com/persistbench/persistbench/internal/codec"
	"github.com/persistbench/persistbench/internal/config"
	"github.com/persistbench/persistbench/internal/database"
	benchErrors "github.com/persistbench/persistbench/internal/errors"
	"github.com/persistbench/persistbench/internal/generator"
	"github.com/persistbench/persistbench/internal/logging"
	"github.com/persistbench/persistbench/internal/observability"
	"github.com/persistbench/persistbench/internal/storage"
	"github.com/persistbench/persistbench/internal/writer"
	"go.uber.org/zap"
)

// App owns the resources of one benchmark run.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	// Shared resources
	storage storage.ObjectStorage
	db      *database.DB
	metrics *observability.Metrics

	files *writer.FileWriter
	table *writer.TableWriter

	mu      sync.Mutex
	started bool
	closed  bool
}

// New resolves and validates cfg and prepares the data directories.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, benchErrors.NewConfigError("invalid configuration", err)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, benchErrors.NewFilesystemError(benchErrors.CodeWriteFailed, "failed to create directories", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
	}, nil
}

// Metrics returns the metrics collected by the run.
func (a *App) Metrics() *observability.Metrics {
	return a.metrics
}

// Run generates the records and executes the configured scenarios.
func (a *App) Run(ctx context.Context) (*bench.Report, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, benchErrors.NewInternalError("app is closed", nil)
	}
	if a.started {
		a.mu.Unlock()
		return nil, benchErrors.NewInternalError("app has already run", nil)
	}
	a.started = true
	a.mu.Unlock()

	if err := a.initSharedResources(ctx); err != nil {
		return nil, err
	}

	a.logger.Info("started adding purchase orders", zap.Int("records", a.cfg.Records))
	records, err := generator.New(
		generator.WithPrice(a.cfg.Price),
		generator.WithSeed(a.cfg.Seed),
	).Generate(a.cfg.Records)
	if err != nil {
		return nil, benchErrors.Wrap(benchErrors.ErrCategoryGeneration, benchErrors.CodeGenerateFailed, "failed to generate records", err)
	}
	a.logger.Info("completed adding purchase orders", zap.Int("records", len(records)))

	driver := bench.NewDriver(
		bench.OptionsFromConfig(a.cfg),
		a.writers(),
		a.metrics,
		logging.Named(a.logger, "bench"),
	)
	report, err := driver.Run(ctx, records)
	if err != nil {
		return report, err
	}

	if a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			a.logger.Warn("failed to write metrics textfile", zap.String("path", a.cfg.Metrics.Textfile), zap.Error(err))
		}
	}

	return report, nil
}

// initSharedResources opens storage and the database and creates the
// writers for the selected scenarios.
func (a *App) initSharedResources(ctx context.Context) error {
	needFiles := a.cfg.HasScenario(config.ScenarioFileSingle) || a.cfg.HasScenario(config.ScenarioFileMulti)
	needTable := a.cfg.HasScenario(config.ScenarioTableSingle) || a.cfg.HasScenario(config.ScenarioTableMulti)

	if needFiles {
		if err := a.initFiles(ctx); err != nil {
			return err
		}
	}
	if needTable {
		if err := a.initTable(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) initFiles(ctx context.Context) error {
	var err error

	switch a.cfg.Storage.Type {
	case "local":
		a.storage, err = storage.NewLocalStorage(a.cfg.Storage.Path)
	case "s3":
		s3Cfg := storage.DefaultS3Config()
		if a.cfg.Storage.S3.Region != "" {
			s3Cfg.Region = a.cfg.Storage.S3.Region
		}
		if a.cfg.Storage.S3.Endpoint != "" {
			s3Cfg.Endpoint = a.cfg.Storage.S3.Endpoint
		}
		s3Cfg.UsePathStyle = a.cfg.Storage.S3.UsePathStyle
		a.storage, err = storage.NewS3Storage(ctx, a.cfg.Storage.S3.Bucket, s3Cfg)
	default:
		err = fmt.Errorf("unsupported storage type: %s", a.cfg.Storage.Type)
	}
	if err != nil {
		return benchErrors.NewFilesystemError(benchErrors.CodeWriteFailed, "failed to initialize storage", err)
	}

	format, err := codec.ParseFormat(a.cfg.Files.Format)
	if err != nil {
		return benchErrors.NewConfigError("invalid file format", err)
	}

	a.files = writer.NewFileWriter(a.storage, writer.FileWriterConfig{
		KeyTemplate:    a.cfg.Files.KeyTemplate,
		Format:         format,
		Compress:       a.cfg.Files.Compress,
		CleanBeforeRun: a.cfg.Files.CleanBeforeRun,
	}, logging.Named(a.logger, "writer.file"))

	fields := []zap.Field{zap.String("type", a.cfg.Storage.Type), zap.String("format", format.String())}
	if a.cfg.Storage.Type == "s3" {
		fields = append(fields,
			zap.String("bucket", a.cfg.Storage.S3.Bucket),
			zap.String("region", a.cfg.Storage.S3.Region),
			zap.String("endpoint", a.cfg.Storage.S3.Endpoint))
	} else {
		fields = append(fields, zap.String("path", a.cfg.Storage.Path))
	}
	a.logger.Info("storage initialized", fields...)
	return nil
}

func (a *App) initTable(ctx context.Context) error {
	db, err := database.Open(ctx, database.Config{
		Driver:       a.cfg.Database.Driver,
		Path:         a.cfg.Database.Path,
		DSN:          a.cfg.Database.DSN,
		MaxOpenConns: a.cfg.Database.MaxOpenConns,
		BusyTimeout:  a.cfg.Database.BusyTimeout,
	})
	if err != nil {
		return benchErrors.NewDatabaseError(benchErrors.CodeOpenFailed, "failed to open database", err)
	}
	a.db = db

	a.table, err = writer.NewTableWriter(db, a.cfg.Database.Table, logging.Named(a.logger, "writer.table"))
	if err != nil {
		return err
	}

	a.logger.Info("database initialized",
		zap.String("driver", a.cfg.Database.Driver),
		zap.String("table", a.table.Table()),
		zap.Int("max_open_conns", a.cfg.Database.MaxOpenConns))
	return nil
}

func (a *App) writers() []writer.Writer {
	var ws []writer.Writer
	if a.files != nil {
		ws = append(ws, a.files)
	}
	if a.table != nil {
		ws = append(ws, a.table)
	}
	return ws
}

// Close releases the database connection pool.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return benchErrors.NewDatabaseError(benchErrors.CodeOpenFailed, "failed to close database", err)
		}
	}
	return nil
}
