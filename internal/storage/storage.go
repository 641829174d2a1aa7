// Package storage provides keyed blob backends with optimistic concurrency.
//
// Every key holds one opaque blob plus a version token. Writers pass the
// version they read; a write against a stale version fails with
// ErrVersionConflict and leaves the stored blob untouched.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Version identifies one stored snapshot of a key. The zero value means
// "key absent".
type Version string

// NoVersion is the version of a key that has never been written
const NoVersion Version = ""

var (
	// ErrNotFound is returned by Load when the key has never been written
	ErrNotFound = errors.New("storage: key not found")
	// ErrVersionConflict is returned by CompareAndSwap when the stored
	// version differs from the expected one
	ErrVersionConflict = errors.New("storage: version conflict")
)

// Backend kinds accepted by Open
const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Backend is a flat key-value store
type Backend interface {
	// Load returns the blob and its version. A missing key yields
	// ErrNotFound and NoVersion.
	Load(ctx context.Context, key string) ([]byte, Version, error)
	// CompareAndSwap replaces the blob when the stored version equals
	// expected, and returns the new version.
	CompareAndSwap(ctx context.Context, key string, data []byte, expected Version) (Version, error)
	Close() error
}

// Open creates the backend named by kind. dir is ignored for memory.
func Open(kind, dir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case KindMemory:
		return NewMemory(), nil
	case KindFile, "":
		return NewFile(dir)
	case KindSQLite:
		return NewSQLite(dir)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", kind)
	}
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("storage key must not be empty")
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return fmt.Errorf("invalid storage key: %q", key)
	}
	return nil
}
