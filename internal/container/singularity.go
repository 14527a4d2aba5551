// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"cruise-cli/internal/config"
)

// SingularityEngine probes the Singularity CLI, falling back to Apptainer
// (the renamed upstream project) when no singularity binary is installed.
type SingularityEngine struct {
	*BaseCLIEngine

	name string
}

// NewSingularityEngine creates a new Singularity engine.
func NewSingularityEngine(opts ...BaseCLIEngineOption) *SingularityEngine {
	name := "singularity"
	path, err := exec.LookPath("singularity")
	if err != nil {
		if apptainer, aerr := exec.LookPath("apptainer"); aerr == nil {
			name = "apptainer"
			path = apptainer
		}
	}
	return &SingularityEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, opts...),
		name:          name,
	}
}

// Name returns the engine name (singularity, or apptainer when that is what
// was found on the host).
func (e *SingularityEngine) Name() string {
	return e.name
}

// Available checks if Singularity is available. Unlike Docker there is no
// daemon, so a responsive binary is sufficient.
func (e *SingularityEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "--version")
	return cmd.Run() == nil
}

// Version returns the Singularity version.
func (e *SingularityEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "--version")
	if err != nil {
		return "", fmt.Errorf("failed to get %s version: %w", e.name, err)
	}
	// Output is "singularity-ce version 4.1.0" or "apptainer version 1.3.0".
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return "", fmt.Errorf("unexpected %s version output %q", e.name, out)
	}
	return fields[len(fields)-1], nil
}

// ResolveCacheDir expands environment references ($USER) in the configured
// cache directory. This is the only place the deferred substitution is
// resolved, and it happens at launch time against the launcher's own
// environment.
func ResolveCacheDir(dir config.CacheDirPath) string {
	return os.ExpandEnv(string(dir))
}

// EnsureCacheDir resolves the configured cache directory and creates it if
// missing. A zero-value dir is a no-op (the engine picks its own default).
func EnsureCacheDir(dir config.CacheDirPath) (string, error) {
	if dir == "" {
		return "", nil
	}

	resolved := ResolveCacheDir(dir)
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return "", fmt.Errorf("failed to create singularity cache dir: %w", err)
	}
	return resolved, nil
}
