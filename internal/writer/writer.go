// Package writer implements the two persistence backends measured by the
// benchmark: one object per record, and one SQL batch per chunk.
package writer

import (
	"context"

	"github.com/persistbench/persistbench/pkg/types"
)

// Backend names.
const (
	BackendFile  = "file"
	BackendTable = "table"
)

// Writer persists records to one backend.
type Writer interface {
	// Backend returns the backend name (file or table).
	Backend() string

	// Reset removes data left by an earlier scenario. It runs before the
	// stopwatch starts.
	Reset(ctx context.Context) error

	// Prepare sets up the destination. It is part of the timed scenario.
	Prepare(ctx context.Context) error

	// WriteBatch persists records as one unit of work and returns the
	// number written. It is safe to call concurrently with disjoint batches.
	WriteBatch(ctx context.Context, records []types.Record) (int, error)

	// Count returns how many records the backend currently holds.
	Count(ctx context.Context) (int, error)
}
