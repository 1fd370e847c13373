package transfer

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yuya-takeyama/unitysync/internal/walker"
	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/logger"
)

type Action string

const (
	ActionCopy   Action = "copy"
	ActionRemove Action = "remove"
)

// Result records one executed action.
type Result struct {
	Action Action
	Source string
	Target string
	Bytes  int64
}

// Transfer copies and removes assets together with their sidecar files.
// In preview mode every action is announced and nothing is touched.
type Transfer struct {
	logger  logger.Logger
	preview bool
	walker  *walker.Walker
	roots   []string
	results []Result
}

func New(log logger.Logger, preview bool) *Transfer {
	if log == nil {
		log = logger.NullLogger{}
	}
	// A walker without excludes cannot fail to build.
	w, _ := walker.NewWalker(nil)
	return &Transfer{
		logger:  log,
		preview: preview,
		walker:  w,
	}
}

// Begin scopes the following actions to pair: directory copies and sidecars
// skip whatever the pair's exclude patterns hide from comparison.
func (t *Transfer) Begin(pair asset.Pair) error {
	w, err := walker.NewWalker(pair.Excludes)
	if err != nil {
		return err
	}
	t.walker = w
	t.roots = []string{pair.Origin, pair.Local}
	return nil
}

// relPath locates path below the current pair roots, slash separated.
func (t *Transfer) relPath(p string) string {
	for _, root := range t.roots {
		rel, err := filepath.Rel(root, p)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if rel == "." {
			return ""
		}
		return filepath.ToSlash(rel)
	}
	return ""
}

func (t *Transfer) Preview() bool {
	return t.preview
}

// Results returns the actions executed so far, in order.
func (t *Transfer) Results() []Result {
	return t.results
}

// Copy copies src to dest. Directories are copied recursively, files keep
// their permission bits and modification time. An existing dest of a
// different type is replaced. src's sidecar, when present, follows it.
func (t *Transfer) Copy(src, dest string) error {
	t.logger.Copy(src, dest)
	if t.preview {
		return nil
	}

	n, err := t.copyAsset(src, dest)
	if err != nil {
		t.logger.Error("copy", src, err)
		return err
	}

	srcMeta := asset.SidecarPath(src)
	if info, err := os.Lstat(srcMeta); err == nil && !info.IsDir() && !t.walker.IsExcluded(t.relPath(srcMeta)) {
		m, err := t.copyAsset(srcMeta, asset.SidecarPath(dest))
		if err != nil {
			t.logger.Error("copy", srcMeta, err)
			return err
		}
		n += m
	}

	t.results = append(t.results, Result{Action: ActionCopy, Source: src, Target: dest, Bytes: n})
	return nil
}

// Remove deletes path, recursively for directories, along with its sidecar.
func (t *Transfer) Remove(path string) error {
	return t.remove(path, true)
}

// RemoveKeepingSidecar deletes path but leaves its sidecar in place.
func (t *Transfer) RemoveKeepingSidecar(path string) error {
	return t.remove(path, false)
}

func (t *Transfer) remove(path string, withSidecar bool) error {
	t.logger.Remove(path)
	if t.preview {
		return nil
	}

	if err := removeAsset(path); err != nil {
		t.logger.Error("remove", path, err)
		return err
	}

	if withSidecar {
		meta := asset.SidecarPath(path)
		if info, err := os.Lstat(meta); err == nil && !info.IsDir() {
			if err := removeAsset(meta); err != nil {
				t.logger.Error("remove", meta, err)
				return err
			}
		}
	}

	t.results = append(t.results, Result{Action: ActionRemove, Target: path})
	return nil
}

func (t *Transfer) copyAsset(src, dest string) (int64, error) {
	info, err := os.Lstat(src)
	if err != nil {
		return 0, fsError("stat", src, err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fsError("mkdir", filepath.Dir(dest), err)
	}

	if existing, err := os.Lstat(dest); err == nil && existing.Mode().Type() != info.Mode().Type() {
		if err := removeAsset(dest); err != nil {
			return 0, err
		}
	}

	switch {
	case info.IsDir():
		return t.copyTree(src, dest, info)
	case info.Mode()&os.ModeSymlink != 0:
		return 0, copySymlink(src, dest)
	default:
		return copyFile(src, dest, info)
	}
}

func (t *Transfer) copyTree(src, dest string, info fs.FileInfo) (int64, error) {
	if err := os.MkdirAll(dest, info.Mode().Perm()); err != nil {
		return 0, fsError("mkdir", dest, err)
	}

	entries, err := t.walker.Walk(src, t.relPath(src))
	if err != nil {
		return 0, fsError("walk", src, err)
	}

	var total int64
	for _, e := range entries {
		rel, err := filepath.Rel(src, e.Path)
		if err != nil {
			return total, fsError("walk", e.Path, err)
		}
		target := filepath.Join(dest, rel)
		switch {
		case e.IsDir():
			if err := os.MkdirAll(target, e.Mode.Perm()); err != nil {
				return total, fsError("mkdir", target, err)
			}
		case e.IsSymlink():
			if err := copySymlink(e.Path, target); err != nil {
				return total, err
			}
		default:
			entryInfo, err := os.Lstat(e.Path)
			if err != nil {
				return total, fsError("stat", e.Path, err)
			}
			n, err := copyFile(e.Path, target, entryInfo)
			total += n
			if err != nil {
				return total, err
			}
		}
	}

	// Writing children bumps directory mtimes, so restore them deepest first.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if !e.IsDir() {
			continue
		}
		rel, err := filepath.Rel(src, e.Path)
		if err != nil {
			return total, fsError("walk", e.Path, err)
		}
		target := filepath.Join(dest, rel)
		if err := os.Chtimes(target, e.ModTime, e.ModTime); err != nil {
			return total, fsError("chtimes", target, err)
		}
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return total, fsError("chtimes", dest, err)
	}

	return total, nil
}

func copyFile(src, dest string, info fs.FileInfo) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fsError("open", src, err)
	}
	defer in.Close()

	perm := info.Mode().Perm()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return 0, fsError("create", dest, err)
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return n, fsError("write", dest, err)
	}
	if err := out.Close(); err != nil {
		return n, fsError("write", dest, err)
	}

	// OpenFile leaves the mode of an existing file alone.
	if err := os.Chmod(dest, perm); err != nil {
		return n, fsError("chmod", dest, err)
	}
	if err := os.Chtimes(dest, info.ModTime(), info.ModTime()); err != nil {
		return n, fsError("chtimes", dest, err)
	}

	return n, nil
}

func copySymlink(src, dest string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return fsError("readlink", src, err)
	}
	if err := os.Remove(dest); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fsError("remove", dest, err)
	}
	if err := os.Symlink(target, dest); err != nil {
		return fsError("symlink", dest, err)
	}
	return nil
}

func removeAsset(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return fsError("stat", path, err)
	}

	if info.IsDir() {
		err = os.RemoveAll(path)
	} else {
		err = os.Remove(path)
	}
	if err != nil {
		return fsError("remove", path, err)
	}
	return nil
}

func fsError(op, path string, err error) error {
	var fsErr *asset.FilesystemError
	if errors.As(err, &fsErr) {
		return err
	}
	return &asset.FilesystemError{Op: op, Path: path, Err: err}
}
