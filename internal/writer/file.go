package writer

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/persistbench/persistbench/internal/codec"
	benchErrors "github.com/persistbench/persistbench/internal/errors"
	"github.com/persistbench/persistbench/internal/storage"
	"github.com/persistbench/persistbench/pkg/types"
	"go.uber.org/zap"
)

// FileWriter stores every record as its own object, keyed by a template
// embedding the record ID.
type FileWriter struct {
	store       storage.ObjectStorage
	codec       *codec.Codec
	keyTemplate string
	prefix      string
	clean       bool
	readers     int
	logger      *zap.Logger
}

// FileWriterConfig configures a FileWriter.
type FileWriterConfig struct {
	// KeyTemplate is a fmt template receiving the record ID
	KeyTemplate string
	// Format is the payload encoding (default FormatProto)
	Format codec.Format
	// Compress enables snappy compression
	Compress bool
	// CleanBeforeRun deletes existing objects under the key prefix in Reset
	CleanBeforeRun bool
	// ReadConcurrency bounds parallel reads in ReadAll (default 8)
	ReadConcurrency int
}

// NewFileWriter creates a file-backed writer over store.
func NewFileWriter(store storage.ObjectStorage, cfg FileWriterConfig, logger *zap.Logger) *FileWriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ReadConcurrency <= 0 {
		cfg.ReadConcurrency = 8
	}
	if cfg.Format == 0 {
		cfg.Format = codec.FormatProto
	}
	return &FileWriter{
		store:       store,
		codec:       codec.New(cfg.Format, cfg.Compress),
		keyTemplate: cfg.KeyTemplate,
		prefix:      keyPrefix(cfg.KeyTemplate),
		clean:       cfg.CleanBeforeRun,
		readers:     cfg.ReadConcurrency,
		logger:      logger,
	}
}

// Backend returns "file".
func (w *FileWriter) Backend() string {
	return BackendFile
}

// Key returns the object path for a record ID.
func (w *FileWriter) Key(id int64) string {
	return fmt.Sprintf(w.keyTemplate, id)
}

// Reset removes objects left by a previous run when cleaning is enabled.
func (w *FileWriter) Reset(ctx context.Context) error {
	if !w.clean {
		return nil
	}
	n, err := storage.DeletePrefix(ctx, w.store, w.prefix)
	if err != nil {
		return benchErrors.NewFilesystemError(benchErrors.CodeCleanupFailed, "failed to remove previous record files", err)
	}
	if n > 0 {
		w.logger.Debug("removed previous record files", zap.Int("count", n), zap.String("prefix", w.prefix))
	}
	return nil
}

// Prepare has nothing to set up: objects are created on first write.
func (w *FileWriter) Prepare(ctx context.Context) error {
	return nil
}

// WriteBatch encodes and stores each record in order. The first failure
// aborts the batch.
func (w *FileWriter) WriteBatch(ctx context.Context, records []types.Record) (int, error) {
	for i, r := range records {
		data, err := w.codec.Encode(r)
		if err != nil {
			return i, benchErrors.NewFilesystemError(benchErrors.CodeEncodeFailed, "failed to encode record", err).
				WithDetails(map[string]interface{}{"record_id": r.ID})
		}
		if err := w.store.Put(ctx, w.Key(r.ID), data); err != nil {
			return i, benchErrors.NewFilesystemError(benchErrors.CodeWriteFailed, "failed to write record file", err).
				WithDetails(map[string]interface{}{"record_id": r.ID, "key": w.Key(r.ID)})
		}
	}
	return len(records), nil
}

// Read loads and decodes a single record.
func (w *FileWriter) Read(ctx context.Context, id int64) (types.Record, error) {
	data, err := w.store.Get(ctx, w.Key(id))
	if err != nil {
		return types.Record{}, benchErrors.NewFilesystemError(benchErrors.CodeReadFailed, "failed to read record file", err)
	}
	r, err := codec.Decode(data)
	if err != nil {
		return types.Record{}, benchErrors.NewFilesystemError(benchErrors.CodeDecodeFailed, "failed to decode record file", err)
	}
	return r, nil
}

// ReadAll loads every record stored under the key prefix, ordered by ID.
func (w *FileWriter) ReadAll(ctx context.Context) ([]types.Record, error) {
	keys, err := w.store.ListObjects(ctx, w.prefix)
	if err != nil {
		return nil, benchErrors.NewFilesystemError(benchErrors.CodeReadFailed, "failed to list record files", err)
	}

	result, err := storage.NewBatchReader(w.store, w.readers).Read(ctx, keys)
	if err != nil {
		return nil, benchErrors.NewFilesystemError(benchErrors.CodeReadFailed, "batch read interrupted", err)
	}
	for key, readErr := range result.Errors {
		return nil, benchErrors.NewFilesystemError(benchErrors.CodeReadFailed, "failed to read record file", readErr).
			WithDetails(map[string]interface{}{"key": key})
	}

	records := make([]types.Record, 0, len(result.Data))
	for key, data := range result.Data {
		r, err := codec.Decode(data)
		if err != nil {
			return nil, benchErrors.NewFilesystemError(benchErrors.CodeDecodeFailed, "failed to decode record file", err).
				WithDetails(map[string]interface{}{"key": key})
		}
		records = append(records, r)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

// Count returns the number of objects under the key prefix.
func (w *FileWriter) Count(ctx context.Context) (int, error) {
	keys, err := w.store.ListObjects(ctx, w.prefix)
	if err != nil {
		return 0, benchErrors.NewFilesystemError(benchErrors.CodeReadFailed, "failed to list record files", err)
	}
	return len(keys), nil
}

// keyPrefix returns the directory part of the template that does not depend
// on the record ID, e.g. "orders/" for "orders/po_%d.rec".
func keyPrefix(template string) string {
	if i := strings.Index(template, "%"); i >= 0 {
		template = template[:i] + "x"
	}
	dir := path.Dir(template)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir + "/"
}
