package comparer

import (
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/yuya-takeyama/unitysync/internal/checksum"
	"github.com/yuya-takeyama/unitysync/internal/walker"
)

type Mode int

const (
	// ModeShallow treats files as equal when type, size and modification time
	// match. Symbolic links are equal when they point at the same target.
	ModeShallow Mode = iota
	// ModeChecksum ignores modification times and compares content when sizes match.
	ModeChecksum
)

type Options struct {
	Mode     Mode
	Excludes []string
	Logger   *slog.Logger
}

// Comparer classifies the entries of two directory trees level by level.
type Comparer struct {
	walker *walker.Walker
	mode   Mode
	logger *slog.Logger
}

func New(opts Options) (*Comparer, error) {
	w, err := walker.NewWalker(opts.Excludes)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Comparer{
		walker: w,
		mode:   opts.Mode,
		logger: logger,
	}, nil
}

// Compare classifies the immediate entries of left and right. Both
// directories are expected to exist.
func (cm *Comparer) Compare(left, right string) *Comparison {
	return cm.compareLevel(left, right, "")
}

// Sub computes the comparison of a common subdirectory of c.
func (cm *Comparer) Sub(c *Comparison, name string) *Comparison {
	return cm.compareLevel(
		filepath.Join(c.Left, name),
		filepath.Join(c.Right, name),
		path.Join(c.RelPath, name),
	)
}

// Walk visits the comparison of left and right and of every common
// subdirectory, parents first and siblings in lexical order. Each level is
// computed just before it is visited. A non-nil error from fn stops the walk.
func (cm *Comparer) Walk(left, right string, fn func(*Comparison) error) error {
	stack := []*Comparison{cm.Compare(left, right)}

	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(c); err != nil {
			return err
		}

		for i := len(c.Subdirs) - 1; i >= 0; i-- {
			stack = append(stack, cm.Sub(c, c.Subdirs[i]))
		}
	}

	return nil
}

func (cm *Comparer) compareLevel(left, right, relPath string) *Comparison {
	cm.logger.Debug("comparing directories", "left", left, "right", right)

	c := &Comparison{
		Left:         left,
		Right:        right,
		RelPath:      relPath,
		LeftOnly:     mapset.NewThreadUnsafeSet[string](),
		RightOnly:    mapset.NewThreadUnsafeSet[string](),
		DiffFiles:    mapset.NewThreadUnsafeSet[string](),
		TypeMismatch: mapset.NewThreadUnsafeSet[string](),
		Subdirs:      []string{},
	}

	leftEntries, leftUnreadable, leftErr := cm.walker.ReadLevel(left, relPath)
	rightEntries, rightUnreadable, rightErr := cm.walker.ReadLevel(right, relPath)

	// A partial listing would turn the missing names into one-sided entries,
	// so the whole level is left unclassified.
	if leftErr != nil || rightErr != nil {
		cm.logger.Warn("skipping unreadable directory",
			"left", left,
			"right", right,
			"error", errors.Join(leftErr, rightErr))
		c.Unreadable = true
		return c
	}

	for _, name := range append(leftUnreadable, rightUnreadable...) {
		cm.logger.Warn("skipping unreadable entry", "path", path.Join(relPath, name))
		delete(leftEntries, name)
		delete(rightEntries, name)
	}

	for name, l := range leftEntries {
		r, exists := rightEntries[name]
		switch {
		case !exists:
			c.LeftOnly.Add(name)
		case l.IsDir() && r.IsDir():
			c.Subdirs = append(c.Subdirs, name)
		case l.IsDir() != r.IsDir():
			c.TypeMismatch.Add(name)
		default:
			same, err := cm.sameState(l, r)
			if err != nil {
				cm.logger.Warn("skipping unreadable file", "path", path.Join(relPath, name), "error", err)
				continue
			}
			if !same {
				c.DiffFiles.Add(name)
			}
		}
	}

	for name := range rightEntries {
		if _, exists := leftEntries[name]; !exists {
			c.RightOnly.Add(name)
		}
	}

	sort.Strings(c.Subdirs)
	return c
}

func (cm *Comparer) sameState(l, r walker.Entry) (bool, error) {
	if l.Mode.Type() != r.Mode.Type() {
		return false, nil
	}

	// Copies cannot carry a link's own mtime, so links match on their target.
	if l.IsSymlink() {
		lt, err := os.Readlink(l.Path)
		if err != nil {
			return false, err
		}
		rt, err := os.Readlink(r.Path)
		if err != nil {
			return false, err
		}
		return lt == rt, nil
	}

	if l.Size != r.Size {
		return false, nil
	}
	if cm.mode == ModeShallow {
		return l.ModTime.Equal(r.ModTime), nil
	}
	return checksum.SameContent(l.Path, r.Path)
}
