// SPDX-License-Identifier: MPL-2.0

package nextflow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cruise-cli/internal/testutil"
)

func TestGenerateJobScript(t *testing.T) {
	script := GenerateJobScript("nextflow -log log/nextflow_stamp.log run main.nf")

	if !strings.HasPrefix(script, "#!/usr/bin/env bash\n") {
		t.Error("expected a bash shebang")
	}

	checks := []string{
		`#SBATCH -J "cruise"`,
		"#SBATCH --cpus-per-task=2",
		"#SBATCH --mem=4g",
		"#SBATCH --time=1-00:00:00",
		"#SBATCH --output=log/slurm_%j.log",
		"command -v module >/dev/null 2>&1 && module load nextflow",
		"nextflow -log log/nextflow_stamp.log run main.nf",
	}
	for _, want := range checks {
		if !strings.Contains(script, want) {
			t.Errorf("jobscript missing %q\n\nfull script:\n%s", want, script)
		}
	}
}

func TestGenerateJobScript_CommandLast(t *testing.T) {
	script := GenerateJobScript("nextflow run main.nf")

	lines := strings.Split(strings.TrimRight(script, "\n"), "\n")
	if lines[len(lines)-1] != "nextflow run main.nf" {
		t.Errorf("expected the command on the last line, got %q", lines[len(lines)-1])
	}
}

func TestRun_SlurmWritesJobScript(t *testing.T) {
	skipWithoutUnixTools(t)
	tmpDir := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, tmpDir))

	// The fake stands in for sbatch; the submission itself succeeds.
	nf := New(
		WithBinaryPath("nextflow"),
		WithExecCommand(fakeExec("true")),
	)

	// sbatch must resolve for submission to proceed; fake it on PATH.
	binDir := filepath.Join(tmpDir, "bin")
	testutil.MustMkdirAll(t, binDir, 0o755)
	testutil.MustWriteFile(t, filepath.Join(binDir, "sbatch"), []byte("#!/bin/sh\nexit 0\n"), 0o755)
	t.Cleanup(testutil.MustSetenv(t, "PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH")))

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: ModeSlurm})
	if result.Error != nil {
		t.Fatalf("Run() returned error: %v", result.Error)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, JobScriptName))
	if err != nil {
		t.Fatalf("expected a jobscript at %s: %v", JobScriptName, err)
	}

	script := string(data)
	if !strings.Contains(script, "run main.nf") {
		t.Errorf("jobscript missing the nextflow command:\n%s", script)
	}
	if !strings.Contains(script, "#SBATCH") {
		t.Errorf("jobscript missing #SBATCH directives:\n%s", script)
	}
}

func TestRun_SlurmWithoutSbatch(t *testing.T) {
	skipWithoutUnixTools(t)
	tmpDir := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, tmpDir))

	// An empty PATH guarantees sbatch cannot resolve.
	t.Cleanup(testutil.MustSetenv(t, "PATH", tmpDir))

	nf := New(
		WithBinaryPath("nextflow"),
		WithExecCommand(fakeExec("true")),
	)

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: ModeSlurm})
	if result.Error == nil {
		t.Fatal("expected an error result without sbatch")
	}
	if !errors.Is(result.Error, ErrSubmitFailed) {
		t.Errorf("expected ErrSubmitFailed, got %v", result.Error)
	}
}
