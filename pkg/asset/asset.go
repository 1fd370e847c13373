package asset

import (
	"errors"
	"fmt"
	"strings"
)

// MetaSuffix is appended to an asset path to name its sidecar metadata file.
const MetaSuffix = ".meta"

var ErrInvalidPair = errors.New("neither side of the asset pair is a usable directory")

// Pair is one asset folder of an origin project matched with the same folder
// in the local project. Origin is always the left side of a comparison and
// Local the right side.
type Pair struct {
	Project string
	Name    string
	Origin  string
	Local   string

	// Excludes are doublestar patterns, relative to the pair roots, that the
	// comparison ignores on both sides.
	Excludes []string
}

func (p Pair) String() string {
	return fmt.Sprintf("%s (%s <-> %s)", p.Name, p.Origin, p.Local)
}

// SidecarPath returns the metadata file path that travels with path.
func SidecarPath(path string) string {
	return path + MetaSuffix
}

// IsSidecar reports whether name is a sidecar and returns its primary name.
func IsSidecar(name string) (string, bool) {
	if !strings.HasSuffix(name, MetaSuffix) || len(name) == len(MetaSuffix) {
		return "", false
	}
	return strings.TrimSuffix(name, MetaSuffix), true
}

// FilesystemError is returned when the OS refuses a copy or removal.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
