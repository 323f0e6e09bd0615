package storage

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// BatchReader reads many objects in parallel with bounded concurrency.
type BatchReader struct {
	storage     ObjectStorage
	concurrency int
}

// BatchReadResult contains the outcome of a batch read.
type BatchReadResult struct {
	Data   map[string][]byte
	Errors map[string]error
	Bytes  int64
}

// NewBatchReader creates a new batch reader.
// concurrency: maximum number of parallel reads (minimum 1)
func NewBatchReader(storage ObjectStorage, concurrency int) *BatchReader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchReader{
		storage:     storage,
		concurrency: concurrency,
	}
}

// Read fetches every object in objectPaths. Per-object failures are
// collected in Errors; the returned error is only set when the context is
// cancelled before all reads were started.
func (b *BatchReader) Read(ctx context.Context, objectPaths []string) (*BatchReadResult, error) {
	result := &BatchReadResult{
		Data:   make(map[string][]byte, len(objectPaths)),
		Errors: make(map[string]error),
	}
	if len(objectPaths) == 0 {
		return result, nil
	}

	sem := semaphore.NewWeighted(int64(b.concurrency))
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, p := range objectPaths {
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return result, fmt.Errorf("semaphore acquire failed: %w", err)
		}

		wg.Add(1)
		go func(path string) {
			defer sem.Release(1)
			defer wg.Done()

			data, err := b.storage.Get(ctx, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors[path] = err
				return
			}
			result.Data[path] = data
			result.Bytes += int64(len(data))
		}(p)
	}

	wg.Wait()
	return result, nil
}
