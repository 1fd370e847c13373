package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/comparer"
	"github.com/yuya-takeyama/unitysync/pkg/transfer"
)

// Policy decides what happens to each classified entry. Left is the origin
// side of a comparison and right the local side.
//
// Validate returns false to skip the pair. A false result with a nil error
// means the pair was handled (or deliberately left alone); an error wrapping
// asset.ErrInvalidPair means neither side could be used. Any other error is a
// filesystem failure and ends the run.
type Policy interface {
	Name() string
	Validate(pair asset.Pair) (bool, error)
	OnLeftOnly(c *comparer.Comparison, name string) error
	OnRightOnly(c *comparer.Comparison, name string) error
	OnDiff(c *comparer.Comparison, name string) error
}

type pathState int

const (
	stateMissing pathState = iota
	stateDir
	stateOther
)

func statPath(path string) pathState {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return stateMissing
	case err != nil:
		// Unreadable paths cannot be synced either way.
		return stateOther
	case info.IsDir():
		return stateDir
	default:
		return stateOther
	}
}

func invalidPair(pair asset.Pair) error {
	return fmt.Errorf("%w: %s", asset.ErrInvalidPair, pair)
}

// removeEntry deletes name from dir. A sidecar that other still has is left
// in place: it belongs to an entry that exists there, not to the removed one.
func removeEntry(t *transfer.Transfer, dir, other, name string) error {
	if statPath(asset.SidecarPath(filepath.Join(other, name))) != stateMissing {
		return t.RemoveKeepingSidecar(filepath.Join(dir, name))
	}
	return t.Remove(filepath.Join(dir, name))
}
