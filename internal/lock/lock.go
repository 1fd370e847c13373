package lock

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

var ErrLocked = errors.New("another run holds the manifest lock")

// Path returns the lock file for manifestPath inside dir. The name is
// derived from the absolute manifest path so every project gets its own.
func Path(dir, manifestPath string) (string, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", manifestPath, err)
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(dir, "unitysync-"+hex.EncodeToString(sum[:])+".lock"), nil
}

// Lock is an exclusive, non-blocking lock on one manifest.
type Lock struct {
	flock *flock.Flock
}

// New returns the lock for manifestPath in the system temp directory.
func New(manifestPath string) (*Lock, error) {
	return NewIn(os.TempDir(), manifestPath)
}

func NewIn(dir, manifestPath string) (*Lock, error) {
	path, err := Path(dir, manifestPath)
	if err != nil {
		return nil, err
	}
	return &Lock{flock: flock.New(path)}, nil
}

func (l *Lock) Path() string {
	return l.flock.Path()
}

// Lock takes the lock or returns ErrLocked if another process has it.
func (l *Lock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", l.flock.Path(), err)
	}

	locked, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.flock.Path(), err)
	}
	if !locked {
		return ErrLocked
	}
	return nil
}

// Unlock releases the lock and removes the lock file. It is a no-op when
// this process does not hold the lock.
func (l *Lock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.flock.Path(), err)
	}
	return os.Remove(l.flock.Path())
}
