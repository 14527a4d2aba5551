// SPDX-License-Identifier: MPL-2.0

package nextflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	// JobScriptName is the sbatch submission script written into the launch
	// directory for slurm mode.
	JobScriptName = "submit_slurm.sh"

	// jobName labels the submission in the slurm queue.
	jobName = "cruise"
)

// ErrSubmitFailed is returned when sbatch rejects the submission.
var ErrSubmitFailed = errors.New("sbatch submission failed")

// GenerateJobScript renders the sbatch jobscript for the given nextflow
// command line. The head node only shepherds the workflow; the real work is
// dispatched by Nextflow itself, so the resource requests stay small.
func GenerateJobScript(commandLine string) string {
	var sb strings.Builder

	sb.WriteString("#!/usr/bin/env bash\n")
	sb.WriteString(fmt.Sprintf("#SBATCH -J %q\n", jobName))
	sb.WriteString("#SBATCH --cpus-per-task=2\n")
	sb.WriteString("#SBATCH --mem=4g\n")
	sb.WriteString("#SBATCH --time=1-00:00:00\n")
	sb.WriteString("#SBATCH --output=log/slurm_%j.log\n")
	sb.WriteString("\n")
	sb.WriteString("command -v module >/dev/null 2>&1 && module load nextflow\n")
	sb.WriteString("\n")
	sb.WriteString(commandLine)
	sb.WriteString("\n")

	return sb.String()
}

// submit writes the jobscript and hands it to sbatch.
func (n *Nextflow) submit(ctx context.Context, req RunRequest, stamp string) *Result {
	commandLine, err := n.PreviewCommand(req, stamp)
	if err != nil {
		return NewErrorResult(1, err)
	}

	script := GenerateJobScript(commandLine)
	if err := os.WriteFile(JobScriptName, []byte(script), 0o755); err != nil {
		return NewErrorResult(1, fmt.Errorf("failed to write jobscript: %w", err))
	}

	sbatch, err := exec.LookPath("sbatch")
	if err != nil {
		return NewErrorResult(1, fmt.Errorf("%w: sbatch not found in PATH", ErrSubmitFailed))
	}

	cmd := n.execCommand(ctx, sbatch, JobScriptName)
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return NewErrorResult(ExitCode(exitErr.ExitCode()), ErrSubmitFailed)
		}
		return NewErrorResult(1, fmt.Errorf("%w: %v", ErrSubmitFailed, err))
	}

	return NewSuccessResult()
}
