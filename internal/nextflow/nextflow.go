// SPDX-License-Identifier: MPL-2.0

package nextflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"cruise-cli/internal/config"

	"mvdan.cc/sh/v3/syntax"
)

const (
	// ModeLocal runs the workflow in the foreground on this host.
	ModeLocal RunMode = "local"
	// ModeSlurm submits the workflow as a batch job via sbatch.
	ModeSlurm RunMode = "slurm"

	// logDir is where launch logs are written, relative to the launch directory.
	logDir = "log"
)

var (
	// ErrInvalidRunMode is the sentinel error wrapped by InvalidRunModeError.
	ErrInvalidRunMode = errors.New("invalid run mode")
	// ErrMainScriptNotFound is the sentinel error wrapped by MainScriptNotFoundError.
	ErrMainScriptNotFound = errors.New("main script not found")
	// ErrNextflowNotFound is returned when no nextflow binary is in PATH.
	ErrNextflowNotFound = errors.New("nextflow not found in PATH")
)

type (
	// RunMode selects how the workflow is launched.
	RunMode string

	// InvalidRunModeError is returned when a RunMode value is not recognized.
	// It wraps ErrInvalidRunMode for errors.Is() compatibility.
	InvalidRunModeError struct {
		Value RunMode
	}

	// MainScriptNotFoundError is returned when the --main path is neither an
	// existing file nor the pipeline's GitHub repository name.
	// It wraps ErrMainScriptNotFound for errors.Is() compatibility.
	MainScriptNotFoundError struct {
		Path string
	}

	// RunRequest captures all launch inputs as an immutable value.
	RunRequest struct {
		// MainPath is the pipeline entry script, or the GitHub repository
		// name to let Nextflow fetch the pipeline itself.
		MainPath string
		// Revision is the tag, branch, or commit passed with -r.
		Revision string
		// Mode selects local or slurm launching.
		Mode RunMode
		// Profiles are applied in order via -profile.
		Profiles []config.ProfileName
		// Preview asks Nextflow to print the processes without running them.
		Preview bool
		// StubRun executes process stubs instead of real commands.
		StubRun bool
		// Resume continues from cached task results.
		Resume bool
		// ExtraArgs are passed to `nextflow run` verbatim, after all
		// launcher-owned flags.
		ExtraArgs []string

		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
	}

	// Nextflow wraps the external runtime binary.
	Nextflow struct {
		binaryPath  string
		execCommand func(ctx context.Context, name string, arg ...string) *exec.Cmd
		now         func() time.Time
	}

	// Option configures a Nextflow wrapper.
	Option func(*Nextflow)
)

// Error implements the error interface for InvalidRunModeError.
func (e *InvalidRunModeError) Error() string {
	return fmt.Sprintf("invalid run mode %q (valid: local, slurm)", e.Value)
}

// Unwrap returns ErrInvalidRunMode for errors.Is() compatibility.
func (e *InvalidRunModeError) Unwrap() error { return ErrInvalidRunMode }

// String returns the string representation of the RunMode.
func (m RunMode) String() string { return string(m) }

// IsValid returns whether the RunMode is one of the defined modes,
// and a list of validation errors if it is not.
func (m RunMode) IsValid() (bool, []error) {
	switch m {
	case ModeLocal, ModeSlurm:
		return true, nil
	default:
		return false, []error{&InvalidRunModeError{Value: m}}
	}
}

// Error implements the error interface for MainScriptNotFoundError.
func (e *MainScriptNotFoundError) Error() string {
	return fmt.Sprintf("path to the pipeline main script not found: %s", e.Path)
}

// Unwrap returns ErrMainScriptNotFound for errors.Is() compatibility.
func (e *MainScriptNotFoundError) Unwrap() error { return ErrMainScriptNotFound }

// WithExecCommand injects a custom command constructor (for tests).
func WithExecCommand(fn func(ctx context.Context, name string, arg ...string) *exec.Cmd) Option {
	return func(n *Nextflow) {
		n.execCommand = fn
	}
}

// WithBinaryPath overrides the resolved nextflow binary path.
func WithBinaryPath(path string) Option {
	return func(n *Nextflow) {
		n.binaryPath = path
	}
}

// WithClock injects a custom time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(n *Nextflow) {
		n.now = now
	}
}

// New creates a Nextflow wrapper, resolving the binary from PATH.
func New(opts ...Option) *Nextflow {
	path, _ := exec.LookPath("nextflow")
	n := &Nextflow{
		binaryPath:  path,
		execCommand: exec.CommandContext,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Available reports whether a nextflow binary was found.
func (n *Nextflow) Available() bool {
	return n.binaryPath != ""
}

// BinaryPath returns the resolved nextflow binary path ("" when not found).
func (n *Nextflow) BinaryPath() string {
	return n.binaryPath
}

// Version returns the Nextflow version string.
func (n *Nextflow) Version(ctx context.Context) (string, error) {
	if !n.Available() {
		return "", ErrNextflowNotFound
	}

	cmd := n.execCommand(ctx, n.binaryPath, "-version")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to get nextflow version: %w", err)
	}

	// Output looks like:
	//
	//       N E X T F L O W
	//       version 24.10.0 build 5928
	//       ...
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "version" {
			return fields[1], nil
		}
	}
	return strings.TrimSpace(string(out)), nil
}

// ValidateMainPath checks the --main value the way the original wrapper
// does: the pipeline's GitHub repository name is always accepted (Nextflow
// fetches it), anything else must exist on disk.
func ValidateMainPath(mainPath, repoName string) error {
	if mainPath == repoName {
		return nil
	}
	if _, err := os.Stat(mainPath); err != nil {
		return &MainScriptNotFoundError{Path: mainPath}
	}
	return nil
}

// LogFilePath returns the launch log path for the given timestamp.
func LogFilePath(stamp string) string {
	return filepath.Join(logDir, fmt.Sprintf("nextflow_%s.log", stamp))
}

// Args builds the full nextflow argument slice for the request, with the
// launch log redirected to a stamped file under log/.
func (r RunRequest) Args(stamp string) []string {
	args := []string{"-log", LogFilePath(stamp), "run", r.MainPath}

	if r.Revision != "" {
		args = append(args, "-r", r.Revision)
	}
	if len(r.Profiles) > 0 {
		names := make([]string, len(r.Profiles))
		for i, p := range r.Profiles {
			names[i] = string(p)
		}
		args = append(args, "-profile", strings.Join(names, ","))
	}
	if r.Preview {
		args = append(args, "-preview")
	}
	if r.StubRun {
		args = append(args, "-stub-run")
	}
	if r.Resume {
		args = append(args, "-resume")
	}

	return append(args, r.ExtraArgs...)
}

// PreviewCommand renders the exact command line a request would execute,
// shell-quoted so it can be copied into a terminal verbatim.
func (n *Nextflow) PreviewCommand(req RunRequest, stamp string) (string, error) {
	binary := n.binaryPath
	if binary == "" {
		binary = "nextflow"
	}

	parts := append([]string{binary}, req.Args(stamp)...)
	quoted := make([]string, len(parts))
	for i, part := range parts {
		q, err := syntax.Quote(part, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("failed to quote argument %q: %w", part, err)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " "), nil
}

// Run launches the workflow. Local mode executes nextflow in the foreground
// and propagates its exit code; slurm mode generates a jobscript and submits
// it with sbatch. The launch log directory is created first so the -log
// redirect cannot fail on a fresh working directory.
func (n *Nextflow) Run(ctx context.Context, req RunRequest) *Result {
	if !n.Available() {
		return NewErrorResult(1, ErrNextflowNotFound)
	}

	if valid, errs := req.Mode.IsValid(); !valid {
		return NewErrorResult(1, errs[0])
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to create log directory: %w", err))
	}

	stamp := config.TraceTimestamp(n.now())

	if req.Mode == ModeSlurm {
		return n.submit(ctx, req, stamp)
	}

	cmd := n.execCommand(ctx, n.binaryPath, req.Args(stamp)...)
	cmd.Stdin = req.Stdin
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return NewExitCodeResult(ExitCode(exitErr.ExitCode()))
		}
		return NewErrorResult(1, fmt.Errorf("failed to execute nextflow: %w", err))
	}

	return NewSuccessResult()
}
