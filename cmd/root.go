// Package cmd provides the command-line interface for running Argus
// standalone and for linting pattern definition files.
package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"argus/bootstrap"
	"argus/config"
	"argus/detect"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
)

var (
	configFile string
	noColor    bool
)

// NewRootCmd builds the argus command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "argus",
		Short: "Rule-based monitoring and alerting engine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPatternsCmd())
	return rootCmd
}

// newRunCmd runs the engine until interrupted. The reactive path has
// no producer in standalone mode; this mode exists to exercise the
// proactive path and the query surface during development.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the engine until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return err
			}
			app.Start()
			app.WaitForShutdown()
			app.Shutdown()
			return nil
		},
	}
}

// newPatternsCmd groups pattern file tooling.
func newPatternsCmd() *cobra.Command {
	patternsCmd := &cobra.Command{
		Use:   "patterns",
		Short: "Work with anomaly pattern definition files",
	}
	patternsCmd.AddCommand(newLintCmd())
	return patternsCmd
}

// newLintCmd validates a pattern file exactly the way the registry
// does at startup: structural checks, paired window/threshold, regex
// safety and compilation.
func newLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint <file>",
		Short: "Validate a pattern definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := zap.NewNop().Sugar()

			loaded, err := detect.LoadPatternsFile(args[0], logger)
			if err != nil {
				errorColor.Fprintf(os.Stderr, "✗ %v\n", err)
				return fmt.Errorf("lint failed")
			}

			merged := detect.MergePatterns(detect.BuiltinPatterns(), loaded)
			if _, err := detect.NewPatternRegistry(merged, logger); err != nil {
				errorColor.Fprintf(os.Stderr, "✗ %v\n", err)
				return fmt.Errorf("lint failed")
			}

			infoColor.Printf("%d pattern(s) loaded from %s\n", len(loaded), args[0])
			successColor.Println("✓ all patterns valid")
			return nil
		},
	}
}
