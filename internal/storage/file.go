package storage

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

// lockRetry is how often a held <key>.lock is polled
const lockRetry = 10 * time.Millisecond

// File stores each key as <dir>/<key>.json. Writes go to a temp file that
// is renamed over the target, so readers never see a partial blob. The
// version is a hash of the file contents. CompareAndSwap holds an OS lock on
// <dir>/<key>.lock, so the server and the CLI can share a directory.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile creates a file backend rooted at dir
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, errors.New("file storage requires a directory")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

// Load implements Backend
func (f *File) Load(ctx context.Context, key string) ([]byte, Version, error) {
	if err := validateKey(key); err != nil {
		return nil, NoVersion, err
	}
	if err := ctx.Err(); err != nil {
		return nil, NoVersion, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read(key)
}

func (f *File) read(key string) ([]byte, Version, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NoVersion, ErrNotFound
		}
		return nil, NoVersion, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, contentVersion(data), nil
}

// CompareAndSwap implements Backend
func (f *File) CompareAndSwap(ctx context.Context, key string, data []byte, expected Version) (Version, error) {
	if err := validateKey(key); err != nil {
		return NoVersion, err
	}
	if err := ctx.Err(); err != nil {
		return NoVersion, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	unlock, err := f.lock(ctx, key)
	if err != nil {
		return NoVersion, err
	}
	defer unlock()

	_, current, err := f.read(key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return NoVersion, err
	}
	if current != expected {
		return current, ErrVersionConflict
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return NoVersion, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return NoVersion, fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return NoVersion, fmt.Errorf("failed to write %s: %w", key, err)
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		os.Remove(tmpName)
		return NoVersion, fmt.Errorf("failed to replace %s: %w", key, err)
	}

	return contentVersion(data), nil
}

// lock takes the cross-process lock for key, waiting until ctx is done
func (f *File) lock(ctx context.Context, key string) (func(), error) {
	fl := flock.New(filepath.Join(f.dir, key+".lock"))
	ok, err := fl.TryLockContext(ctx, lockRetry)
	if err != nil {
		return nil, fmt.Errorf("failed to lock %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("failed to lock %s", key)
	}
	return func() { fl.Unlock() }, nil
}

// Close implements Backend
func (f *File) Close() error {
	return nil
}

// contentVersion never returns NoVersion, even for an empty blob
func contentVersion(data []byte) Version {
	h := fnv.New64a()
	h.Write(data)
	return Version("h" + strconv.FormatUint(h.Sum64(), 16))
}
