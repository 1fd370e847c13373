package comparer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

// writeFiles creates files with a fixed mtime so both sides compare equal
// unless content size or time is changed on purpose.
func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
		require.NoError(t, os.Chtimes(p, fixedTime, fixedTime))
	}
}

func newComparer(t *testing.T, opts Options) *Comparer {
	t.Helper()
	cm, err := New(opts)
	require.NoError(t, err)
	return cm
}

func TestCompareClassification(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()

	writeFiles(t, left, map[string]string{
		"only-left.txt":  "l",
		"same.txt":       "same",
		"size.txt":       "short",
		"mtime.txt":      "abc",
		"mixed":          "file on the left",
		"shared/a.txt":   "a",
		"leftdir/x.txt":  "x",
		"only-left.meta": "m",
	})
	writeFiles(t, right, map[string]string{
		"only-right.txt": "r",
		"same.txt":       "same",
		"size.txt":       "much longer",
		"mtime.txt":      "abc",
		"mixed/inner":    "dir on the right",
		"shared/a.txt":   "a",
	})
	later := fixedTime.Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(right, "mtime.txt"), later, later))

	c := newComparer(t, Options{}).Compare(left, right)

	assert.Equal(t, []string{"leftdir", "only-left.meta", "only-left.txt"}, c.LeftOnlyNames())
	assert.Equal(t, []string{"only-right.txt"}, c.RightOnlyNames())
	assert.Equal(t, []string{"mtime.txt", "size.txt"}, c.DiffNames())
	assert.Equal(t, []string{"mixed"}, c.TypeMismatchNames())
	assert.Equal(t, []string{"shared"}, c.Subdirs)
	assert.False(t, c.InSync())
}

func TestCompareClassesAreDisjoint(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"a/x": "1", "b": "2", "c/y": "3"})
	writeFiles(t, right, map[string]string{"a/x": "1", "b/z": "2", "d": "4"})

	c := newComparer(t, Options{}).Compare(left, right)

	seen := map[string]int{}
	for _, names := range [][]string{c.LeftOnlyNames(), c.RightOnlyNames(), c.DiffNames(), c.TypeMismatchNames(), c.Subdirs} {
		for _, n := range names {
			seen[n]++
		}
	}
	for name, count := range seen {
		assert.Equal(t, 1, count, "name %s classified more than once", name)
	}
	assert.Equal(t, []string{"a"}, c.Subdirs)
}

func TestWalkIdenticalTreesIsInSyncAtEveryLevel(t *testing.T) {
	files := map[string]string{
		"a.txt":            "a",
		"dir/b.txt":        "bb",
		"dir/deep/c.txt":   "ccc",
		"dir/deep/c.meta":  "meta",
		"other/d/e/f.txt":  "f",
		"other/d/e/g.meta": "g",
	}
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, files)
	writeFiles(t, right, files)

	var visited []string
	err := newComparer(t, Options{}).Walk(left, right, func(c *Comparison) error {
		visited = append(visited, c.RelPath)
		assert.True(t, c.InSync(), "level %q not in sync", c.RelPath)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "dir", "dir/deep", "other", "other/d", "other/d/e"}, visited)
}

func TestWalkStopsOnError(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"a/x": "1", "b/y": "2"})
	writeFiles(t, right, map[string]string{"a/x": "1", "b/y": "2"})

	stop := assert.AnError
	calls := 0
	err := newComparer(t, Options{}).Walk(left, right, func(c *Comparison) error {
		calls++
		if c.RelPath == "a" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, calls)
}

func TestChecksumModeIgnoresModTime(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"same.txt": "content", "changed.txt": "aaaa"})
	writeFiles(t, right, map[string]string{"same.txt": "content", "changed.txt": "bbbb"})
	later := fixedTime.Add(time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(right, "same.txt"), later, later))

	shallow := newComparer(t, Options{Mode: ModeShallow}).Compare(left, right)
	assert.Equal(t, []string{"same.txt"}, shallow.DiffNames())

	deep := newComparer(t, Options{Mode: ModeChecksum}).Compare(left, right)
	assert.Equal(t, []string{"changed.txt"}, deep.DiffNames())
}

func TestExcludedEntriesAreIgnored(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"keep.txt": "k", "junk.tmp": "j", "Library/cache.bin": "c"})
	writeFiles(t, right, map[string]string{"keep.txt": "k", "sub/other.tmp": "o"})
	require.NoError(t, os.MkdirAll(filepath.Join(left, "sub"), 0755))

	cm := newComparer(t, Options{Excludes: []string{"**/*.tmp", "Library/"}})
	var levels []*Comparison
	require.NoError(t, cm.Walk(left, right, func(c *Comparison) error {
		levels = append(levels, c)
		return nil
	}))

	require.Len(t, levels, 2)
	assert.True(t, levels[0].InSync())
	assert.True(t, levels[1].InSync())
}

func TestNewRejectsInvalidExclude(t *testing.T) {
	_, err := New(Options{Excludes: []string{"[bad"}})
	assert.Error(t, err)
}

func TestSymlinksAreComparedNotFollowed(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"target/x.txt": "x"})
	writeFiles(t, right, map[string]string{"target/x.txt": "x"})
	if err := os.Symlink(".", filepath.Join(left, "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(".", filepath.Join(right, "loop")))

	var visited []string
	cm := newComparer(t, Options{Mode: ModeChecksum})
	require.NoError(t, cm.Walk(left, right, func(c *Comparison) error {
		visited = append(visited, c.RelPath)
		assert.True(t, c.InSync())
		return nil
	}))
	assert.Equal(t, []string{"", "target"}, visited)
}

func TestUnreadableDirectoryLevelIsNotClassified(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"top.txt": "t", "sub/keep.txt": "k"})
	writeFiles(t, right, map[string]string{"top.txt": "t", "sub/keep.txt": "k", "sub/extra.txt": "e"})
	locked := filepath.Join(left, "sub")
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { _ = os.Chmod(locked, 0755) })

	levels := map[string]*Comparison{}
	require.NoError(t, newComparer(t, Options{}).Walk(left, right, func(c *Comparison) error {
		levels[c.RelPath] = c
		return nil
	}))

	require.Contains(t, levels, "sub")
	sub := levels["sub"]
	assert.True(t, sub.Unreadable)
	assert.Empty(t, sub.LeftOnlyNames())
	assert.Empty(t, sub.RightOnlyNames())
	assert.Empty(t, sub.DiffNames())
	assert.Empty(t, sub.Subdirs)
	assert.False(t, levels[""].Unreadable)
}

func TestUnreadableFileIsExcludedInChecksumMode(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"secret.bin": "aaaa", "open.txt": "x"})
	writeFiles(t, right, map[string]string{"secret.bin": "bbbb", "open.txt": "y"})
	secret := filepath.Join(left, "secret.bin")
	require.NoError(t, os.Chmod(secret, 0))
	t.Cleanup(func() { _ = os.Chmod(secret, 0644) })

	c := newComparer(t, Options{Mode: ModeChecksum}).Compare(left, right)
	assert.False(t, c.Unreadable)
	assert.Equal(t, []string{"open.txt"}, c.DiffNames())
	assert.Empty(t, c.LeftOnlyNames())
	assert.Empty(t, c.RightOnlyNames())
}

func TestSymlinksMatchOnTargetInShallowMode(t *testing.T) {
	left := t.TempDir()
	right := t.TempDir()
	writeFiles(t, left, map[string]string{"a.txt": "a", "b.txt": "b"})
	writeFiles(t, right, map[string]string{"a.txt": "a", "b.txt": "b"})
	if err := os.Symlink("a.txt", filepath.Join(left, "same")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, os.Symlink("a.txt", filepath.Join(right, "same")))
	require.NoError(t, os.Symlink("a.txt", filepath.Join(left, "moved")))
	require.NoError(t, os.Symlink("b.txt", filepath.Join(right, "moved")))

	c := newComparer(t, Options{Mode: ModeShallow}).Compare(left, right)
	assert.Equal(t, []string{"moved"}, c.DiffNames())
}
