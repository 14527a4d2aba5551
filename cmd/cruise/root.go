// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cruise-cli/internal/config"
	"cruise-cli/internal/issue"
	"cruise-cli/internal/scaffold"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string
	// citation prints the pipeline citation and exits
	citation bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "cruise",
		Short: "Launch the CRISPR screen analysis pipeline",
		Long: TitleStyle.Render("cruise") + SubtitleStyle.Render(" - CRISPR screen analysis pipeline launcher") + `

cruise prepares a working directory for the CCBR/CRUISE Nextflow
pipeline and launches it, either directly on the local host or as a
Slurm batch job.

Launcher settings live in 'config.cue' (CUE format) and are rendered
into the 'nextflow.config' that Nextflow consumes. Values such as
$USER and $(id -u) are passed through literally for the shell and
Nextflow to resolve at run time.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Run 'cruise init' in an empty project directory
  2. Adjust config.cue if needed
  3. Launch with: cruise run --profile docker

` + SubtitleStyle.Render("Examples:") + `
  cruise init                       Scaffold the current directory
  cruise run                        Launch with defaults
  cruise run --mode slurm           Submit as a Slurm job
  cruise run --profile singularity  Launch with the singularity profile
  cruise config show                Show current configuration`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if citation {
				bib, err := scaffold.Citation()
				if err != nil {
					return err
				}
				fmt.Print(bib)
				return nil
			}
			return cmd.Help()
		},
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/cruise/config.cue)")
	rootCmd.Flags().BoolVar(&citation, "citation", false, "print the citation in bibtex format and exit")

	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig wires the --config override before any subcommand loads
// configuration.
func initRootConfig() {
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}
}

// loadConfigOrWarn loads the configuration, surfacing load errors as a
// warning and falling back to the built-in defaults.
func loadConfigOrWarn() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return cfg
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
