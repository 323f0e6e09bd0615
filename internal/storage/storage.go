// Package storage provides the object storage the file-backed writer puts
// serialized records into.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrPutFailed      = errors.New("put failed")
	ErrGetFailed      = errors.New("get failed")
	ErrDeleteFailed   = errors.New("delete failed")
)

// ObjectStorage abstracts keyed object storage.
// Implementations include the local filesystem and S3.
type ObjectStorage interface {
	// Put writes data under objectPath, replacing any existing object.
	Put(ctx context.Context, objectPath string, data []byte) error

	// Get returns the content of objectPath.
	// Returns ErrObjectNotFound if the object does not exist.
	Get(ctx context.Context, objectPath string) ([]byte, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, objectPath string) error

	// Exists checks if an object exists in storage.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns all object paths under the given prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

// DeletePrefix removes every object under prefix and returns how many were
// removed.
func DeletePrefix(ctx context.Context, store ObjectStorage, prefix string) (int, error) {
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return 0, err
	}
	for i, obj := range objects {
		if err := store.Delete(ctx, obj); err != nil {
			return i, err
		}
	}
	return len(objects), nil
}
