package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/yuya-takeyama/unitysync/internal/logging"
	"github.com/yuya-takeyama/unitysync/pkg/manifest"
)

// EnvPrefix prefixes every environment variable read by the CLI.
const EnvPrefix = "UNITYSYNC"

// Keys are the flag names; viper binds them one to one.
const (
	KeyDependFile     = "dependfile"
	KeyLog            = "log"
	KeyChecksum       = "checksum"
	KeyQuiet          = "quiet"
	KeyClean          = "clean"
	KeyPreview        = "preview"
	KeyResultJSONFile = "result-json-file"
)

// Config holds the settings of one invocation.
type Config struct {
	DependFile     string
	LogLevel       string
	Checksum       bool
	Quiet          bool
	Clean          bool
	Preview        bool
	ResultJSONFile string
}

// AddPersistentFlags registers the flags shared by every subcommand.
func AddPersistentFlags(fs *pflag.FlagSet) {
	fs.String(KeyDependFile, manifest.DefaultName, "The name of the dependencies file, searched in the current and parent folders")
	fs.String(KeyLog, logging.DefaultLevel, "Log level (debug, info, warn, error)")
	fs.Bool(KeyChecksum, false, "Compare file contents instead of size and modification time")
	fs.Bool(KeyQuiet, false, "Suppress copy and remove announcements")
}

// AddSyncFlags registers the flags of the pull and push subcommands.
func AddSyncFlags(fs *pflag.FlagSet, cleanHelp string) {
	fs.Bool(KeyClean, false, cleanHelp)
	fs.Bool(KeyPreview, false, "Prints the actions that will be performed, but does not perform them")
	fs.String(KeyResultJSONFile, "", "Path to output result as JSON file")
}

// Load binds the flags of cmd to v and reads the resulting configuration.
// Flags left unset fall back to UNITYSYNC_* environment variables.
func Load(cmd *cobra.Command, v *viper.Viper) (*Config, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		DependFile:     v.GetString(KeyDependFile),
		LogLevel:       v.GetString(KeyLog),
		Checksum:       v.GetBool(KeyChecksum),
		Quiet:          v.GetBool(KeyQuiet),
		Clean:          v.GetBool(KeyClean),
		Preview:        v.GetBool(KeyPreview),
		ResultJSONFile: v.GetString(KeyResultJSONFile),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DependFile) == "" {
		return fmt.Errorf("%s must not be empty", KeyDependFile)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("--%s: %w", KeyLog, err)
	}
	return nil
}
