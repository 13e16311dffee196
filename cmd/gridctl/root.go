package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-grid/internal/logging"
	"github.com/goliatone/go-grid/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile  string
	fixtures string
	verbose  bool

	cfg    config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "gridctl",
	Short: "Inspect and edit customizable grids",
	Long: `gridctl resolves the profile, columns and parameters a user sees on a
customizable grid, traces where each parameter comes from and seeds grid
storage from YAML fixtures.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Level = "debug"
		}
		if fixtures != "" {
			loaded.Storage.Fixtures = fixtures
		}
		built, err := logging.New(loaded.Logging.Level, loaded.Logging.Format)
		if err != nil {
			return fmt.Errorf("gridctl: logger: %w", err)
		}
		cfg = loaded
		logger = built
		return nil
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = logger.Sync()
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); GRID_ environment variables override it")
	rootCmd.PersistentFlags().StringVar(&fixtures, "fixtures", "", "YAML fixtures applied to storage on start")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
