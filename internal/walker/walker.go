package walker

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Entry represents a directory entry as seen through Lstat
type Entry struct {
	Name    string
	Path    string // Absolute path
	RelPath string // Slash separated, relative to the walk root
	Size    int64
	ModTime time.Time
	Mode    os.FileMode
}

func (e Entry) IsDir() bool {
	return e.Mode.IsDir()
}

func (e Entry) IsSymlink() bool {
	return e.Mode&os.ModeSymlink != 0
}

// Walker lists directory entries with exclude pattern support.
// Symbolic links are reported as entries and never followed.
type Walker struct {
	excludes []string
}

// NewWalker creates a new walker, rejecting malformed exclude patterns
func NewWalker(excludes []string) (*Walker, error) {
	for _, pattern := range excludes {
		if !doublestar.ValidatePattern(strings.TrimSuffix(pattern, "/")) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return &Walker{excludes: excludes}, nil
}

// ReadLevel lists the immediate children of dir. relDir is the position of
// dir below the comparison root and is only used for exclude matching.
// Entries that cannot be inspected are left out of the listing and their
// names returned as unreadable. A listing that fails midway returns what was
// read together with the error.
func (w *Walker) ReadLevel(dir, relDir string) (map[string]Entry, []string, error) {
	dirEntries, readErr := os.ReadDir(dir)

	entries := make(map[string]Entry, len(dirEntries))
	var unreadable []string
	for _, d := range dirEntries {
		relPath := path.Join(relDir, d.Name())
		if w.IsExcluded(relPath) {
			continue
		}

		info, err := d.Info()
		if err != nil {
			unreadable = append(unreadable, d.Name())
			continue
		}

		entries[d.Name()] = Entry{
			Name:    d.Name(),
			Path:    filepath.Join(dir, d.Name()),
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		}
	}

	if readErr != nil {
		return entries, unreadable, fmt.Errorf("read directory: %w", readErr)
	}
	return entries, unreadable, nil
}

// Walk returns every entry below root, directories included, in lexical order.
// relRoot is the position of root below the exclude base; RelPath of the
// returned entries includes it.
func (w *Walker) Walk(root, relRoot string) ([]Entry, error) {
	var entries []Entry

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		relPath, err := filepath.Rel(root, p)
		if err != nil {
			return fmt.Errorf("get relative path: %w", err)
		}
		relPath = path.Join(relRoot, filepath.ToSlash(relPath))

		if w.IsExcluded(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("get file info: %w", err)
		}

		entries = append(entries, Entry{
			Name:    d.Name(),
			Path:    p,
			RelPath: relPath,
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	return entries, nil
}

// IsExcluded checks if a slash separated relative path matches any exclude
// pattern
func (w *Walker) IsExcluded(relPath string) bool {
	for _, pattern := range w.excludes {
		// Directory patterns (ending with /) also cover everything beneath
		if strings.HasSuffix(pattern, "/") {
			dirPattern := strings.TrimSuffix(pattern, "/")
			parts := strings.Split(relPath, "/")
			for i := 1; i <= len(parts); i++ {
				if matched, _ := doublestar.Match(dirPattern, strings.Join(parts[:i], "/")); matched {
					return true
				}
			}
			continue
		}
		if matched, _ := doublestar.Match(pattern, relPath); matched {
			return true
		}
	}
	return false
}
