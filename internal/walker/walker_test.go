package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
}

func TestNewWalkerRejectsBadPattern(t *testing.T) {
	_, err := NewWalker([]string{"[unclosed"})
	assert.Error(t, err)

	w, err := NewWalker([]string{"**/*.tmp", "Temp/"})
	require.NoError(t, err)
	assert.NotNil(t, w)
}

func TestReadLevel(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{
		"a.txt":        "a",
		"b.tmp":        "b",
		"sub/c.txt":    "c",
		"Temp/d.txt":   "d",
		"sub/e.tmp":    "e",
		"sub/f.txt":    "f",
		"other/g.meta": "g",
	})

	w, err := NewWalker([]string{"**/*.tmp", "Temp/"})
	require.NoError(t, err)

	entries, unreadable, err := w.ReadLevel(root, "")
	require.NoError(t, err)
	assert.Empty(t, unreadable)

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"a.txt", "sub", "other"}, names)
	assert.True(t, entries["sub"].IsDir())
	assert.Equal(t, int64(1), entries["a.txt"].Size)
	assert.Equal(t, filepath.Join(root, "a.txt"), entries["a.txt"].Path)

	sub, _, err := w.ReadLevel(filepath.Join(root, "sub"), "sub")
	require.NoError(t, err)
	assert.Len(t, sub, 2)
	assert.Equal(t, "sub/c.txt", sub["c.txt"].RelPath)
}

func TestReadLevelMissingDirectory(t *testing.T) {
	w, err := NewWalker(nil)
	require.NoError(t, err)

	entries, _, err := w.ReadLevel(filepath.Join(t.TempDir(), "missing"), "")
	assert.Error(t, err)
	assert.Empty(t, entries)
}

func TestReadLevelDoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{"real/x.txt": "x"})
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	w, err := NewWalker(nil)
	require.NoError(t, err)

	entries, _, err := w.ReadLevel(root, "")
	require.NoError(t, err)
	assert.True(t, entries["link"].IsSymlink())
	assert.False(t, entries["link"].IsDir())
}

func TestWalk(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{
		"a.txt":          "a",
		"dir/b.txt":      "b",
		"dir/deep/c.txt": "c",
		"Temp/skip.txt":  "s",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))

	w, err := NewWalker([]string{"Temp/"})
	require.NoError(t, err)

	entries, err := w.Walk(root, "")
	require.NoError(t, err)

	var rels []string
	for _, e := range entries {
		rels = append(rels, e.RelPath)
	}
	assert.Equal(t, []string{"a.txt", "dir", "dir/b.txt", "dir/deep", "dir/deep/c.txt", "empty"}, rels)
}

func TestWalkMatchesExcludesBelowRelRoot(t *testing.T) {
	root := t.TempDir()
	createTree(t, root, map[string]string{
		"keep.txt":       "k",
		"Cache/junk.bin": "j",
	})

	w, err := NewWalker([]string{"Weapons/Cache/"})
	require.NoError(t, err)

	entries, err := w.Walk(root, "Weapons")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Weapons/keep.txt", entries[0].RelPath)
}

func TestReadLevelUnlistableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	dir := filepath.Join(t.TempDir(), "locked")
	createTree(t, dir, map[string]string{"x.txt": "x"})
	require.NoError(t, os.Chmod(dir, 0))
	t.Cleanup(func() { _ = os.Chmod(dir, 0755) })

	w, err := NewWalker(nil)
	require.NoError(t, err)

	entries, _, err := w.ReadLevel(dir, "locked")
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Empty(t, entries)
}

func TestIsExcluded(t *testing.T) {
	w, err := NewWalker([]string{"**/*.tmp", "Temp/"})
	require.NoError(t, err)

	tests := []struct {
		relPath string
		want    bool
	}{
		{relPath: "a.tmp", want: true},
		{relPath: "deep/b.tmp", want: true},
		{relPath: "Temp", want: true},
		{relPath: "Temp/inner/c.txt", want: true},
		{relPath: "a.txt", want: false},
		{relPath: "Temperature/x", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			assert.Equal(t, tt.want, w.IsExcluded(tt.relPath))
		})
	}
}
