package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("data directory is in use by another engine")

// LockDataDir takes an exclusive, non-blocking lock on dataDir. Release it by
// calling Unlock on the returned lock.
func LockDataDir(dataDir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	l := flock.New(filepath.Join(dataDir, "engine.lock"))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dataDir, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", dataDir, ErrLocked)
	}
	return l, nil
}
