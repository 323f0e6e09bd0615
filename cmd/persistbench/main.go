// Package main implements the persistbench binary, which times writing the
// same purchase orders to per-record files and to a database table, each
// single-threaded and through a fixed worker pool.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/persistbench/persistbench/internal/app"
	"github.com/persistbench/persistbench/internal/config"
	"github.com/persistbench/persistbench/internal/logging"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		envFile     string
		dataDir     string
		records     int
		workers     int
		chunkSize   int
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&envFile, "env", "", "Path to a .env file (default: ./.env if present)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for record files and the database")
	flag.IntVar(&records, "records", 0, "Number of purchase orders to generate (default 10000)")
	flag.IntVar(&workers, "workers", 0, "Worker pool size for multi-threaded scenarios (default 3)")
	flag.IntVar(&chunkSize, "chunk-size", 0, "Records per worker task (default 250)")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "persistbench - file system vs database write benchmark\n\n")
		fmt.Fprintf(os.Stderr, "Usage: persistbench [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  persistbench --data-dir /tmp/persistbench\n")
		fmt.Fprintf(os.Stderr, "  persistbench --records 50000 --workers 8 --chunk-size 500\n")
		fmt.Fprintf(os.Stderr, "  persistbench --config /etc/persistbench/config.yaml\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PERSISTBENCH_DATA_DIR       Base directory for output\n")
		fmt.Fprintf(os.Stderr, "  PERSISTBENCH_RECORDS        Number of records\n")
		fmt.Fprintf(os.Stderr, "  PERSISTBENCH_SCENARIOS      Comma-separated scenarios (file/single,table/multi,...)\n")
		fmt.Fprintf(os.Stderr, "  PERSISTBENCH_DB_DRIVER      Database driver (sqlite3, sqlite, pgx)\n")
		fmt.Fprintf(os.Stderr, "  PERSISTBENCH_DB_DSN         Database connection string\n")
		fmt.Fprintf(os.Stderr, "  PERSISTBENCH_STORAGE_TYPE   Record file storage (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  PERSISTBENCH_LOG_LEVEL      Log level (debug, info, warn, error)\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("persistbench version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, envFile, dataDir, records, workers, chunkSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		stop()
		logger.Fatal("benchmark failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	logger.Info("persistbench starting",
		zap.String("version", version),
		zap.String("data_dir", cfg.DataDir),
		zap.Int("records", cfg.Records),
		zap.Int("workers", cfg.Workers),
		zap.Int("chunk_size", cfg.ChunkSize),
		zap.Strings("scenarios", cfg.Scenarios),
		zap.String("storage", cfg.Storage.Type),
		zap.String("driver", cfg.Database.Driver),
	)

	report, err := application.Run(ctx)
	if err != nil {
		return err
	}

	if _, err := report.WriteTo(os.Stdout); err != nil {
		return fmt.Errorf("failed to print report: %w", err)
	}
	return nil
}

// loadConfig loads configuration from file, .env, environment, and command
// line flags, in increasing precedence.
func loadConfig(configFile, envFile, dataDir string, records, workers, chunkSize int) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}

	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	config.LoadFromEnv(cfg)

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if records > 0 {
		cfg.Records = records
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if chunkSize > 0 {
		cfg.ChunkSize = chunkSize
	}

	return cfg, nil
}
