package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Logger receives every user-visible event of a sync run.
type Logger interface {
	Project(path string)
	LeftOnly(path string)
	RightOnly(path string)
	Diff(path string)
	Copy(src, dest string)
	Remove(path string)
	Error(operation, path string, err error)
}

// SyncLogger prints sync events the way the command line shows them.
type SyncLogger struct {
	Out       io.Writer
	ErrOut    io.Writer
	IsPreview bool
	IsQuiet   bool
	NoColor   bool

	once   sync.Once
	left   *color.Color
	right  *color.Color
	diff   *color.Color
	errCol *color.Color
}

func (l *SyncLogger) init() {
	l.once.Do(func() {
		if l.Out == nil {
			l.Out = os.Stdout
		}
		if l.ErrOut == nil {
			l.ErrOut = os.Stderr
		}
		l.left = color.New(color.FgGreen)
		l.right = color.New(color.FgYellow)
		l.diff = color.New(color.FgCyan)
		l.errCol = color.New(color.FgHiRed, color.Bold)
		if l.NoColor {
			for _, c := range []*color.Color{l.left, l.right, l.diff, l.errCol} {
				c.DisableColor()
			}
		}
	})
}

func (l *SyncLogger) Project(path string) {
	l.init()
	fmt.Fprintf(l.Out, "  With project %s:\n", path)
}

func (l *SyncLogger) LeftOnly(path string) {
	l.init()
	fmt.Fprintf(l.Out, "%s %s\n", l.left.Sprint("L:"), path)
}

func (l *SyncLogger) RightOnly(path string) {
	l.init()
	fmt.Fprintf(l.Out, "%s %s\n", l.right.Sprint("R:"), path)
}

func (l *SyncLogger) Diff(path string) {
	l.init()
	fmt.Fprintf(l.Out, "%s %s\n", l.diff.Sprint("D:"), path)
}

func (l *SyncLogger) Copy(src, dest string) {
	if l.IsQuiet {
		return
	}
	l.init()
	fmt.Fprintf(l.Out, "%sCopying asset:\n  From: %s\n  To: %s\n", l.prefix(), src, dest)
}

func (l *SyncLogger) Remove(path string) {
	if l.IsQuiet {
		return
	}
	l.init()
	fmt.Fprintf(l.Out, "%sRemoving asset:\n  %s\n", l.prefix(), path)
}

func (l *SyncLogger) Error(operation, path string, err error) {
	l.init()
	fmt.Fprintf(l.ErrOut, "%s %s failed for %s: %v\n", l.errCol.Sprint("Error:"), operation, path, err)
}

func (l *SyncLogger) prefix() string {
	if l.IsPreview {
		return "(preview) "
	}
	return ""
}

// NullLogger discards every event.
type NullLogger struct{}

func (NullLogger) Project(path string)                     {}
func (NullLogger) LeftOnly(path string)                    {}
func (NullLogger) RightOnly(path string)                   {}
func (NullLogger) Diff(path string)                        {}
func (NullLogger) Copy(src, dest string)                   {}
func (NullLogger) Remove(path string)                      {}
func (NullLogger) Error(operation, path string, err error) {}
