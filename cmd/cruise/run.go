// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"cruise-cli/internal/config"
	"cruise-cli/internal/container"
	"cruise-cli/internal/issue"
	"cruise-cli/internal/nextflow"

	"github.com/spf13/cobra"
)

// GeneratedConfigName is the file the launcher renders for Nextflow before
// every launch. Edits belong in config.cue, not here.
const GeneratedConfigName = "nextflow.config"

var (
	runMain     string
	runRevision string
	runMode     string
	runProfiles []string
	runPreview  bool
	runStub     bool
	runResume   bool
	runDryRun   bool

	// runCmd launches the pipeline
	runCmd = &cobra.Command{
		Use:   "run [-- nextflow args...]",
		Short: "Launch the pipeline",
		Long: `Launch the Nextflow pipeline.

The launcher renders nextflow.config from config.cue, checks that the
requested container engines are available, and starts Nextflow either
in the foreground (--mode local) or as a Slurm batch job (--mode slurm).

Arguments after '--' are passed to 'nextflow run' verbatim:

  cruise run --profile docker -- --input samples.csv`,
		Args:               cobra.ArbitraryArgs,
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE:               runRun,
	}
)

func init() {
	runCmd.Flags().StringVar(&runMain, "main", "", "path to the pipeline entry script (default: mainScript from the manifest, or the repository name)")
	runCmd.Flags().StringVarP(&runRevision, "revision", "r", "", "pipeline revision (tag, branch, or commit) passed to nextflow -r")
	runCmd.Flags().StringVar(&runMode, "mode", string(nextflow.ModeLocal), "run mode: local or slurm")
	runCmd.Flags().StringSliceVar(&runProfiles, "profile", nil, "configuration profile(s) to apply, in order (repeatable or comma-separated)")
	runCmd.Flags().BoolVar(&runPreview, "preview", false, "pass -preview to nextflow (resolve the workflow without executing it)")
	runCmd.Flags().BoolVar(&runStub, "stub-run", false, "pass -stub-run to nextflow (execute process stubs)")
	runCmd.Flags().BoolVar(&runResume, "resume", false, "pass -resume to nextflow (continue from cached results)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the nextflow command line without launching")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	mode := nextflow.RunMode(runMode)
	if ok, errs := mode.IsValid(); !ok {
		return errs[0]
	}

	names, err := parseProfileFlags(runProfiles)
	if err != nil {
		return err
	}

	settings, err := cfg.Resolve(names...)
	if err != nil {
		if errors.Is(err, config.ErrUnknownProfile) {
			rendered, _ := issue.Get(issue.UnknownProfileId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
		}
		return err
	}

	mainPath := runMain
	if mainPath == "" {
		mainPath = defaultMainPath(cfg)
	}
	if err := nextflow.ValidateMainPath(mainPath, cfg.Manifest.Name); err != nil {
		rendered, _ := issue.Get(issue.MainScriptNotFoundId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	// One timestamp per invocation: the launch log and the rendered
	// trace/report/timeline names all carry it.
	now := time.Now()
	stamp := config.TraceTimestamp(now)

	nf := nextflow.New(nextflow.WithClock(func() time.Time { return now }))

	req := nextflow.RunRequest{
		MainPath:  mainPath,
		Revision:  runRevision,
		Mode:      mode,
		Profiles:  settings.Applied,
		Preview:   runPreview,
		StubRun:   runStub,
		Resume:    runResume,
		ExtraArgs: args,
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}

	if runDryRun {
		line, err := nf.PreviewCommand(req, stamp)
		if err != nil {
			return err
		}
		fmt.Println(CmdStyle.Render(line))
		return nil
	}

	if err := container.Preflight(ctx, settings); err != nil {
		if errors.Is(err, container.ErrEngineNotAvailable) {
			rendered, _ := issue.Get(issue.EngineNotAvailableId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
		}
		return err
	}

	if settings.Singularity.Enabled {
		cacheDir, err := container.EnsureCacheDir(settings.Singularity.CacheDir)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Println(VerboseStyle.Render("singularity cache: " + cacheDir))
		}
	}

	rendered := config.GenerateNextflowConfig(cfg, config.GenerateOptions{Timestamp: stamp})
	if err := os.WriteFile(GeneratedConfigName, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", GeneratedConfigName, err)
	}

	if verbose {
		line, previewErr := nf.PreviewCommand(req, stamp)
		if previewErr == nil {
			fmt.Println(VerboseStyle.Render("launching: " + line))
		}
	}

	result := nf.Run(ctx, req)
	if result.Error != nil {
		if errors.Is(result.Error, nextflow.ErrNextflowNotFound) {
			rendered, _ := issue.Get(issue.NextflowNotFoundId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
			return result.Error
		}
		if errors.Is(result.Error, nextflow.ErrSubmitFailed) {
			rendered, _ := issue.Get(issue.SubmitFailedId).Render("dark")
			fmt.Fprint(os.Stderr, rendered)
		}
		return &ExitError{Code: result.ExitCode, Err: result.Error}
	}
	if !result.ExitCode.IsSuccess() {
		return &ExitError{Code: result.ExitCode}
	}

	if mode == nextflow.ModeSlurm {
		fmt.Printf("%s Submitted %s via sbatch\n", SuccessStyle.Render("✓"), cfg.Manifest.Name)
	}
	return nil
}

// defaultMainPath picks the manifest's main script when it exists in the
// working directory, falling back to the repository name so Nextflow can
// fetch the pipeline itself.
func defaultMainPath(cfg *config.Config) string {
	if _, err := os.Stat(cfg.Manifest.MainScript); err == nil {
		return cfg.Manifest.MainScript
	}
	return cfg.Manifest.Name
}

// parseProfileFlags expands repeated and comma-separated --profile values
// into an ordered, validated name list.
func parseProfileFlags(values []string) ([]config.ProfileName, error) {
	var names []config.ProfileName
	for _, value := range values {
		parsed, err := config.ParseProfileNames(value)
		if err != nil {
			return nil, err
		}
		names = append(names, parsed...)
	}
	return names, nil
}
