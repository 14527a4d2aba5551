// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cruise-cli/internal/issue"
	"cruise-cli/internal/scaffold"

	"github.com/spf13/cobra"
)

var (
	initForce bool

	// initCmd scaffolds a pipeline run directory
	initCmd = &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a pipeline run directory",
		Long: `Scaffold a pipeline run directory.

This command writes the rendered nextflow.config, the base resource
configuration, and the citation record into the target directory
(default: the current directory), and creates the log directory for
launch logs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	written, err := scaffold.Init(dir, initForce)
	if err != nil {
		if errors.Is(err, scaffold.ErrScaffoldConflict) {
			rendered, _ := issue.Get(issue.ScaffoldConflictId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
		}
		return err
	}

	absDir, _ := filepath.Abs(dir)
	fmt.Printf("%s Initialized %s\n", SuccessStyle.Render("✓"), absDir)
	for _, rel := range written {
		fmt.Printf("  %s\n", CmdStyle.Render(rel))
	}
	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Review nextflow.config (regenerate it with 'cruise config render')")
	fmt.Println("  2. Run 'cruise run --profile docker' to launch locally")
	fmt.Println("  3. Run 'cruise run --mode slurm' to submit to the cluster")

	return nil
}
