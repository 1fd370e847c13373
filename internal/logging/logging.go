package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/yuya-takeyama/unitysync/pkg/engine"
	"github.com/yuya-takeyama/unitysync/pkg/transfer"
)

// DefaultLevel is the level name used when none is configured.
const DefaultLevel = "error"

// ParseLevel converts a level name to a slog level. Names are matched
// case-insensitively; "warning" and "critical" are accepted as aliases.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "critical":
		return slog.LevelError, nil
	default:
		return slog.LevelError, fmt.Errorf("invalid log level %q", name)
	}
}

// NewHandler builds the diagnostic handler writing to w.
func NewHandler(w io.Writer, level slog.Level, noColor bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	})
}

// New returns a logger on w, coloured only when w is a terminal.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(w, level, NoColor(w)))
}

// NoColor reports whether output to w should be left uncoloured.
func NoColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	return !ok || !isatty.IsTerminal(f.Fd())
}

// Summary is what a pull or push run did.
type Summary struct {
	Pairs    int
	Skipped  int
	Invalid  int
	Copied   int
	Removed  int
	Bytes    int64
	Duration time.Duration
}

// NewSummary combines the engine counters with the executed transfers.
func NewSummary(stats engine.Stats, results []transfer.Result, duration time.Duration) Summary {
	s := Summary{
		Pairs:    stats.Pairs,
		Skipped:  stats.Skipped,
		Invalid:  stats.Invalid,
		Duration: duration,
	}
	for _, r := range results {
		switch r.Action {
		case transfer.ActionCopy:
			s.Copied++
			s.Bytes += r.Bytes
		case transfer.ActionRemove:
			s.Removed++
		}
	}
	return s
}

// Printer writes run summaries.
type Printer struct {
	out   io.Writer
	quiet bool
}

func NewPrinter(out io.Writer, quiet bool) *Printer {
	return &Printer{out: out, quiet: quiet}
}

// PrintSummary prints a summary of the sync operation
func (p *Printer) PrintSummary(s Summary) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, "=== Summary ===")
	fmt.Fprintf(p.out, "Assets: %d", s.Pairs)
	if s.Skipped > 0 || s.Invalid > 0 {
		fmt.Fprintf(p.out, " (%d skipped, %d invalid)", s.Skipped, s.Invalid)
	}
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "Copied: %d entries (%s)\n", s.Copied, humanize.IBytes(uint64(s.Bytes)))
	fmt.Fprintf(p.out, "Removed: %d entries\n", s.Removed)
	fmt.Fprintf(p.out, "Duration: %s\n", s.Duration.Round(time.Millisecond))
}
