package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/comparer"
	"github.com/yuya-takeyama/unitysync/pkg/logger"
	"github.com/yuya-takeyama/unitysync/pkg/policy"
)

type Config struct {
	// Mode selects how files present on both sides are compared.
	Mode comparer.Mode
	// Output receives the per-project headers.
	Output logger.Logger
	// Logger receives diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Stats counts what a run saw.
type Stats struct {
	Pairs     int
	Skipped   int
	Invalid   int
	LeftOnly  int
	RightOnly int
	Diff      int
}

// Engine reconciles asset pairs one after another with a single policy.
type Engine struct {
	mode   comparer.Mode
	output logger.Logger
	logger *slog.Logger
}

func New(cfg Config) *Engine {
	e := &Engine{
		mode:   cfg.Mode,
		output: cfg.Output,
		logger: cfg.Logger,
	}
	if e.output == nil {
		e.output = logger.NullLogger{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Run validates and reconciles every pair in order. Pairs that cannot be
// compared are skipped; the first filesystem error ends the run. The context
// is checked between pairs and between directory levels.
func (e *Engine) Run(ctx context.Context, pairs []asset.Pair, p policy.Policy) (Stats, error) {
	var stats Stats
	project := ""

	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		if i == 0 || pair.Project != project {
			project = pair.Project
			e.output.Project(project)
		}
		stats.Pairs++

		ok, err := p.Validate(pair)
		if err != nil {
			if errors.Is(err, asset.ErrInvalidPair) {
				e.logger.Warn("skipping asset", "asset", pair.Name, "error", err)
				stats.Invalid++
				continue
			}
			return stats, fmt.Errorf("%s %s: %w", p.Name(), pair.Name, err)
		}
		if !ok {
			e.logger.Info("asset not compared", "asset", pair.Name, "policy", p.Name())
			stats.Skipped++
			continue
		}

		cm, err := comparer.New(comparer.Options{
			Mode:     e.mode,
			Excludes: pair.Excludes,
			Logger:   e.logger,
		})
		if err != nil {
			return stats, fmt.Errorf("asset %s: %w", pair.Name, err)
		}

		err = cm.Walk(pair.Origin, pair.Local, func(c *comparer.Comparison) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.visit(c, p, &stats)
		})
		if err != nil {
			return stats, fmt.Errorf("%s %s: %w", p.Name(), pair.Name, err)
		}
	}

	return stats, nil
}

func (e *Engine) visit(c *comparer.Comparison, p policy.Policy, stats *Stats) error {
	e.logger.Debug("visiting comparison", "left", c.Left, "right", c.Right)

	for _, name := range dispatchable(c.LeftOnly) {
		stats.LeftOnly++
		if err := p.OnLeftOnly(c, name); err != nil {
			return err
		}
	}

	for _, name := range dispatchable(c.RightOnly) {
		stats.RightOnly++
		if err := p.OnRightOnly(c, name); err != nil {
			return err
		}
	}

	// Type mismatches go through OnDiff, which replaces the destination entry.
	diffs := append(dispatchable(c.DiffFiles), dispatchable(c.TypeMismatch)...)
	for _, name := range diffs {
		stats.Diff++
		if err := p.OnDiff(c, name); err != nil {
			return err
		}
	}

	return nil
}

// dispatchable returns the sorted names of set, leaving out sidecars whose
// primary is in the same set since the transfer carries them along.
func dispatchable(set mapset.Set[string]) []string {
	names := make([]string, 0, set.Cardinality())
	for _, name := range set.ToSlice() {
		if primary, ok := asset.IsSidecar(name); ok && set.Contains(primary) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
