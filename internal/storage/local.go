package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// LocalStorage implements ObjectStorage using a directory on the local
// filesystem. Object paths use forward slashes and map to files below the
// base path.
type LocalStorage struct {
	basePath string
	mu       sync.RWMutex
	dirs     map[string]struct{} // directories already created
	perm     os.FileMode
}

// NewLocalStorage creates a new local filesystem storage.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
		dirs:     map[string]struct{}{basePath: {}},
		perm:     0644,
	}, nil
}

// Put writes data to a file, creating parent directories on first use.
func (l *LocalStorage) Put(ctx context.Context, objectPath string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	destPath := l.fullPath(objectPath)
	if err := l.ensureDir(filepath.Dir(destPath)); err != nil {
		return fmt.Errorf("%w: %v", ErrPutFailed, err)
	}

	if err := os.WriteFile(destPath, data, l.perm); err != nil {
		return fmt.Errorf("%w: %v", ErrPutFailed, err)
	}
	return nil
}

// Get reads a file from local storage.
func (l *LocalStorage) Get(ctx context.Context, objectPath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrGetFailed, err)
	}
	return data, nil
}

// Delete removes an object from local storage.
func (l *LocalStorage) Delete(ctx context.Context, objectPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(l.fullPath(objectPath)); err != nil {
		if os.IsNotExist(err) {
			// S3 Delete is idempotent, so we don't return an error
			return nil
		}
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

// Exists checks if an object exists in local storage.
func (l *LocalStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(l.fullPath(objectPath))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListObjects returns all object paths under the given prefix.
func (l *LocalStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	searchDir := l.fullPath(prefix)
	var objects []string

	err := filepath.Walk(searchDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil // prefix doesn't exist, return empty list
			}
			return err
		}
		if !info.IsDir() {
			rel, err := filepath.Rel(l.basePath, path)
			if err != nil {
				return err
			}
			objects = append(objects, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return objects, nil
}

// Clear removes all objects from local storage.
// This is useful for test cleanup.
func (l *LocalStorage) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.RemoveAll(l.basePath); err != nil {
		return err
	}
	if err := os.MkdirAll(l.basePath, 0755); err != nil {
		return err
	}

	l.dirs = map[string]struct{}{l.basePath: {}}
	return nil
}

// ensureDir creates dir once and remembers it, so per-record puts skip the
// MkdirAll syscalls.
func (l *LocalStorage) ensureDir(dir string) error {
	l.mu.RLock()
	_, ok := l.dirs[dir]
	l.mu.RUnlock()
	if ok {
		return nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	l.mu.Lock()
	l.dirs[dir] = struct{}{}
	l.mu.Unlock()
	return nil
}

// fullPath returns the full filesystem path for an object.
func (l *LocalStorage) fullPath(objectPath string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(objectPath))
}
