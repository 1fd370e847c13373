package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/yuya-takeyama/unitysync/internal/config"
	"github.com/yuya-takeyama/unitysync/internal/lock"
	"github.com/yuya-takeyama/unitysync/internal/logging"
	"github.com/yuya-takeyama/unitysync/pkg/asset"
	"github.com/yuya-takeyama/unitysync/pkg/comparer"
	"github.com/yuya-takeyama/unitysync/pkg/engine"
	"github.com/yuya-takeyama/unitysync/pkg/logger"
	"github.com/yuya-takeyama/unitysync/pkg/manifest"
	"github.com/yuya-takeyama/unitysync/pkg/policy"
	"github.com/yuya-takeyama/unitysync/pkg/transfer"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

const (
	exitOK               = 0
	exitFailure          = 1
	exitManifestNotFound = 2
)

type command string

const (
	commandDiff command = "diff"
	commandPull command = "pull"
	commandPush command = "push"
)

func (c command) header() string {
	switch c {
	case commandPull:
		return "Pulling changes"
	case commandPush:
		return "Pushing changes"
	default:
		return "Comparing changes"
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line in args and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd(stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	// Filesystem failures were already reported by the sync logger.
	var fsErr *asset.FilesystemError
	if !errors.As(err, &fsErr) {
		red := color.New(color.FgHiRed, color.Bold)
		if logging.NoColor(stderr) {
			red.DisableColor()
		}
		fmt.Fprintf(stderr, "%s %v\n", red.Sprint("Error:"), err)
	}

	if errors.Is(err, manifest.ErrNotFound) {
		return exitManifestNotFound
	}
	return exitFailure
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "unitysync",
		Short: "Synchronize asset folders between Unity projects",
		Long: `unitysync keeps asset folders of a local Unity project in step with the
origin projects listed in its dependency file. Each asset's .meta file
travels with it.`,
		Version:       fmt.Sprintf("%s (commit: %s, built at: %s by %s)", version, commit, date, builtBy),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	config.AddPersistentFlags(rootCmd.PersistentFlags())

	diffCmd := &cobra.Command{
		Use:   "diff",
		Short: "Compares the origin projects with the local project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, commandDiff, stdout, stderr)
		},
	}

	pullCmd := &cobra.Command{
		Use:   "pull",
		Short: "Copies changes from the origin projects into the local project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, commandPull, stdout, stderr)
		},
	}
	config.AddSyncFlags(pullCmd.Flags(), "Removes files from the local folder that don't exist in the origin folder")

	pushCmd := &cobra.Command{
		Use:   "push",
		Short: "Copies local changes back into the origin projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, commandPush, stdout, stderr)
		},
	}
	config.AddSyncFlags(pushCmd.Flags(), "Removes files from the origin folder that don't exist in the local folder")

	rootCmd.AddCommand(diffCmd, pullCmd, pushCmd)
	return rootCmd
}

func run(cmd *cobra.Command, name command, stdout, stderr io.Writer) error {
	cfg, err := config.Load(cmd, viper.New())
	if err != nil {
		_ = cmd.Usage()
		return err
	}

	level, _ := logging.ParseLevel(cfg.LogLevel)
	log := logging.New(stderr, level)
	slog.SetDefault(log)

	fmt.Fprintln(stdout, name.header())

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	m, err := manifest.Discover(wd, cfg.DependFile)
	if err != nil {
		return err
	}
	log.Debug("loaded manifest", "path", m.Path, "projects", len(m.Projects))

	if name != commandDiff && !cfg.Preview {
		lk, err := lock.New(m.Path)
		if err != nil {
			return err
		}
		if err := lk.Lock(); err != nil {
			return err
		}
		defer func() {
			if err := lk.Unlock(); err != nil {
				log.Warn("failed to release lock", "path", lk.Path(), "error", err)
			}
		}()
	}

	out := &logger.SyncLogger{
		Out:       stdout,
		ErrOut:    stderr,
		IsPreview: cfg.Preview,
		IsQuiet:   cfg.Quiet,
		NoColor:   logging.NoColor(stdout),
	}
	tr := transfer.New(out, cfg.Preview)

	var p policy.Policy
	switch name {
	case commandPull:
		p = policy.NewPull(tr, cfg.Clean)
	case commandPush:
		p = policy.NewPush(tr, cfg.Clean)
	default:
		p = policy.NewReport(out)
	}

	mode := comparer.ModeShallow
	if cfg.Checksum {
		mode = comparer.ModeChecksum
	}
	eng := engine.New(engine.Config{
		Mode:   mode,
		Output: out,
		Logger: log,
	})

	start := time.Now()
	stats, runErr := eng.Run(cmd.Context(), m.Pairs(), p)
	log.Info("run finished",
		"command", string(name),
		"pairs", stats.Pairs,
		"skipped", stats.Skipped,
		"invalid", stats.Invalid,
		"duration", time.Since(start))

	if name == commandDiff || cfg.Preview {
		return runErr
	}

	if cfg.ResultJSONFile != "" {
		if err := writeSyncResult(cfg.ResultJSONFile, newSyncResult(tr.Results(), runErr)); err != nil {
			return errors.Join(runErr, fmt.Errorf("failed to write result JSON: %w", err))
		}
	}
	if runErr != nil {
		return runErr
	}

	logging.NewPrinter(stdout, cfg.Quiet).PrintSummary(logging.NewSummary(stats, tr.Results(), time.Since(start)))
	return nil
}
