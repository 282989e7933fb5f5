package cmd

import (
	"errors"
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/churnviz-cli/internal/config"
	"github.com/KaramelBytes/churnviz-cli/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration and logger, set in PersistentPreRunE
	cfg    *cfgpkg.Global
	logger *zap.Logger
)

// ErrPartial is returned by run when --fail-on-partial is set and at least
// one artifact failed.
var ErrPartial = errors.New("some artifacts were not generated")

var rootCmd = &cobra.Command{
	Use:   "churnviz",
	Short: "churnviz: render customer churn charts and statistics from a CSV",
	Long: `churnviz loads a customer churn dataset, validates it against the expected
schema, and renders a fixed catalog of charts plus a plain-text statistics
report into an output directory.

Run without a subcommand to behave like "churnviz run".`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd, args)
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleFail.Render("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.churnviz/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log encoding: json | console (overrides config)")
	addRunFlags(rootCmd)
}

// setup loads configuration and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = c
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	l, err := logging.New(logging.Options{Format: cfg.LogFormat, Debug: debug})
	if err != nil {
		return err
	}
	logger = l
	logger.Debug("config loaded", zap.String("file", cfgFile), zap.String("output_dir", cfg.OutputDir))
	return nil
}
