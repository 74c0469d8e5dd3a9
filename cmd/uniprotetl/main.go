package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nishad/uniprotetl/internal/config"
	apperrors "github.com/nishad/uniprotetl/internal/errors"
)

var (
	version = "0.0.1-alpha"
	commit  = "dev"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "uniprotetl",
	Short: "UniProtKB bulk ETL engine",
	Long: `uniprotetl loads UniProtKB protein XML releases into PostgreSQL,
either as a full load (atomic schema swap) or a delta load
(upsert/merge/tombstone against an existing production schema).`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	Example: `  # Pre-provision the production schema before the first load
  uniprotetl init

  # Full load of both datasets
  uniprotetl run --mode full --dataset all

  # Delta load of just Swiss-Prot
  uniprotetl run --mode delta --dataset swissprot

  # Show the current production release
  uniprotetl status`,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (defaults to "+configDefaultHint()+")")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newInitCmd())
}

func configDefaultHint() string {
	return "$XDG_CONFIG_HOME/uniprotetl/config.yaml"
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// exitConfig is the driver layer's exit code for a configuration or
// validation error (fatal before any DB work). Exit code 2, reserved for
// partial success across multiple datasets, is unreachable today since a
// failed dataset aborts the run rather than letting the others proceed.
const exitConfig = 1

func main() {
	if err := rootCmd.Execute(); err != nil {
		if kind := apperrors.GetKind(err); kind != apperrors.KindUnknown {
			fmt.Fprintf(os.Stderr, "uniprotetl: %v (%s)\n", err, kind)
		} else {
			fmt.Fprintf(os.Stderr, "uniprotetl: %v\n", err)
		}
		os.Exit(exitConfig)
	}
}
