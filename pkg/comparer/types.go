package comparer

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// Comparison is the classification of one directory level. Left is the
// origin side and Right the local side.
type Comparison struct {
	Left    string
	Right   string
	RelPath string

	LeftOnly     mapset.Set[string]
	RightOnly    mapset.Set[string]
	DiffFiles    mapset.Set[string]
	TypeMismatch mapset.Set[string] // file on one side, directory on the other

	// Subdirs holds the names that are directories on both sides, sorted.
	Subdirs []string

	// Unreadable is set when either side could not be listed. Nothing at
	// such a level is classified.
	Unreadable bool
}

func (c *Comparison) LeftOnlyNames() []string     { return sortedNames(c.LeftOnly) }
func (c *Comparison) RightOnlyNames() []string    { return sortedNames(c.RightOnly) }
func (c *Comparison) DiffNames() []string         { return sortedNames(c.DiffFiles) }
func (c *Comparison) TypeMismatchNames() []string { return sortedNames(c.TypeMismatch) }

// InSync reports whether this level has nothing to reconcile. Subdirectories
// are not inspected.
func (c *Comparison) InSync() bool {
	return c.LeftOnly.Cardinality() == 0 &&
		c.RightOnly.Cardinality() == 0 &&
		c.DiffFiles.Cardinality() == 0 &&
		c.TypeMismatch.Cardinality() == 0
}

func sortedNames(s mapset.Set[string]) []string {
	names := s.ToSlice()
	sort.Strings(names)
	return names
}
