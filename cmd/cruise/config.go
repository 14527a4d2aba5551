// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"time"

	"cruise-cli/internal/config"
	"cruise-cli/internal/issue"

	"github.com/spf13/cobra"
)

var (
	renderTrace bool

	// configCmd manages the launcher configuration
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage cruise configuration",
		Long: `Manage cruise configuration.

Configuration is stored in:
  - Linux: ~/.config/cruise/config.cue
  - macOS: ~/Library/Application Support/cruise/config.cue
  - Windows: %APPDATA%\cruise\config.cue

A config.cue in the current directory takes precedence.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render the configuration as nextflow.config",
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderConfig()
		},
	}
	renderCmd.Flags().BoolVar(&renderTrace, "trace", false, "include trace/report/timeline blocks stamped with the current time")

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})

	configCmd.AddCommand(renderCmd)
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	headerStyle := TitleStyle
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Println(headerStyle.Render("Current Configuration"))
	fmt.Println()

	cfgDir, dirErr := config.ConfigDir()
	if dirErr == nil && fileExistsCheck(cfgDir+"/config.cue") {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), cfgDir+"/config.cue")
	} else {
		fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s:\n", keyStyle.Render("process"))
	fmt.Printf("  cpus: %s\n", valueStyle.Render(cfg.Process.CPUs.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("dag"))
	fmt.Printf("  enabled: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.DAG.Enabled)))
	fmt.Printf("  overwrite: %s\n", valueStyle.Render(fmt.Sprintf("%v", cfg.DAG.Overwrite)))
	fmt.Printf("  file: %s\n", valueStyle.Render(cfg.DAG.File.String()))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("manifest"))
	fmt.Printf("  name: %s\n", valueStyle.Render(cfg.Manifest.Name))
	fmt.Printf("  author: %s\n", valueStyle.Render(cfg.Manifest.Author))
	fmt.Printf("  home_page: %s\n", valueStyle.Render(cfg.Manifest.HomePage))
	fmt.Printf("  description: %s\n", valueStyle.Render(cfg.Manifest.Description))
	fmt.Printf("  main_script: %s\n", valueStyle.Render(cfg.Manifest.MainScript))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("profiles"))
	for _, name := range cfg.ProfileNames() {
		fmt.Printf("  - %s\n", valueStyle.Render(name.String()))
	}

	return nil
}

func initConfigFile() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err = config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	fmt.Printf("%s Created default configuration at %s/config.cue\n", SuccessStyle.Render("✓"), cfgDir)
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s/config.cue\n", cfgDir)
	return nil
}

func renderConfig() error {
	cfg, err := config.Load()
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	opts := config.GenerateOptions{}
	if renderTrace {
		opts.Timestamp = config.TraceTimestamp(time.Now())
	}

	fmt.Print(config.GenerateNextflowConfig(cfg, opts))
	return nil
}

// fileExistsCheck checks if a file exists and is not a directory.
func fileExistsCheck(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
