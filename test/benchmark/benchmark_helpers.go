package benchmark

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/persistbench/persistbench/internal/database"
	"github.com/persistbench/persistbench/internal/generator"
	"github.com/persistbench/persistbench/internal/storage"
	"github.com/persistbench/persistbench/pkg/types"
)

// PrefixedStorage wraps an ObjectStorage and prepends a prefix to all object paths.
type PrefixedStorage struct {
	inner  storage.ObjectStorage
	prefix string
}

func (s *PrefixedStorage) Put(ctx context.Context, objectPath string, data []byte) error {
	return s.inner.Put(ctx, s.prefix+"/"+objectPath, data)
}

func (s *PrefixedStorage) Get(ctx context.Context, objectPath string) ([]byte, error) {
	return s.inner.Get(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) Delete(ctx context.Context, objectPath string) error {
	return s.inner.Delete(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	return s.inner.Exists(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	objects, err := s.inner.ListObjects(ctx, s.prefix+"/"+prefix)
	if err != nil {
		return nil, err
	}

	stripped := make([]string, len(objects))
	for i, obj := range objects {
		stripped[i] = strings.TrimPrefix(obj, s.prefix+"/")
	}
	return stripped, nil
}

// getBenchmarkStorage returns the object storage for file writer benchmarks.
// It respects PERSISTBENCH_STORAGE_TYPE=s3 from .env or environment.
// For S3 every run writes under "bench/<benchName>/<timestamp>".
func getBenchmarkStorage(b *testing.B, benchName string) (storage.ObjectStorage, func()) {
	// Try loading .env from project root (../../.env relative to test/benchmark)
	_ = godotenv.Load("../../.env")

	if os.Getenv("PERSISTBENCH_STORAGE_TYPE") == "s3" {
		if v := os.Getenv("PERSISTBENCH_AWS_ACCESS_KEY_ID"); v != "" {
			os.Setenv("AWS_ACCESS_KEY_ID", v)
		}
		if v := os.Getenv("PERSISTBENCH_AWS_SECRET_ACCESS_KEY"); v != "" {
			os.Setenv("AWS_SECRET_ACCESS_KEY", v)
		}

		bucket := os.Getenv("PERSISTBENCH_S3_BUCKET")
		if bucket == "" {
			b.Fatal("PERSISTBENCH_S3_BUCKET is required for s3 benchmark")
		}

		cfg := storage.DefaultS3Config()
		if v := os.Getenv("PERSISTBENCH_S3_REGION"); v != "" {
			cfg.Region = v
		}
		cfg.Endpoint = os.Getenv("PERSISTBENCH_S3_ENDPOINT")

		st, err := storage.NewS3Storage(context.Background(), bucket, cfg)
		if err != nil {
			b.Fatalf("Failed to initialize S3 storage: %v", err)
		}

		prefix := fmt.Sprintf("bench/%s/%d", benchName, time.Now().UnixNano())
		b.Logf("Running benchmark against S3 Bucket: %s Prefix: %s", bucket, prefix)

		prefixed := &PrefixedStorage{inner: st, prefix: prefix}
		cleanup := func() {
			if _, err := storage.DeletePrefix(context.Background(), prefixed, ""); err != nil {
				b.Logf("S3 cleanup failed: %v", err)
			}
		}
		return prefixed, cleanup
	}

	dir, err := os.MkdirTemp("", "persistbench-bench-"+benchName+"-*")
	if err != nil {
		b.Fatal(err)
	}
	st, err := storage.NewLocalStorage(path.Join(dir, "storage"))
	if err != nil {
		b.Fatal(err)
	}
	return st, func() { os.RemoveAll(dir) }
}

// openBenchmarkDB opens a fresh database for table writer benchmarks. The
// pgx driver is used only when PERSISTBENCH_DB_DSN is set.
func openBenchmarkDB(b *testing.B, driver string) *database.DB {
	cfg := database.Config{Driver: driver, MaxOpenConns: 10}
	if driver == database.DriverPgx {
		cfg.DSN = os.Getenv("PERSISTBENCH_DB_DSN")
		if cfg.DSN == "" {
			b.Skip("PERSISTBENCH_DB_DSN not set")
		}
	} else {
		cfg.Path = filepath.Join(b.TempDir(), "bench.db")
	}

	db, err := database.Open(context.Background(), cfg)
	if err != nil {
		b.Fatalf("Failed to open %s: %v", driver, err)
	}
	b.Cleanup(func() { db.Close() })
	return db
}

func generateTestRecords(b *testing.B, n int) []types.Record {
	records, err := generator.New(generator.WithSeed(1)).Generate(n)
	if err != nil {
		b.Fatal(err)
	}
	return records
}
