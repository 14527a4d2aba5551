// SPDX-License-Identifier: MPL-2.0

package nextflow

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"cruise-cli/internal/config"
	"cruise-cli/internal/testutil"
)

// fakeExec returns a command constructor that ignores the requested binary
// and runs the given command instead.
func fakeExec(name string, arg ...string) func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
	return func(ctx context.Context, _ string, _ ...string) *exec.Cmd {
		return exec.CommandContext(ctx, name, arg...)
	}
}

func skipWithoutUnixTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake commands rely on unix tools")
	}
}

func TestRunMode_IsValid(t *testing.T) {
	tests := []struct {
		mode  RunMode
		valid bool
	}{
		{ModeLocal, true},
		{ModeSlurm, true},
		{"", false},
		{"cloud", false},
	}

	for _, tt := range tests {
		valid, errs := tt.mode.IsValid()
		if valid != tt.valid {
			t.Errorf("RunMode(%q).IsValid() = %v, want %v", tt.mode, valid, tt.valid)
		}
		if !tt.valid && !errors.Is(errs[0], ErrInvalidRunMode) {
			t.Errorf("expected ErrInvalidRunMode, got %v", errs[0])
		}
	}
}

func TestLogFilePath(t *testing.T) {
	got := LogFilePath("2024-03-15_09-05-30")
	want := filepath.Join("log", "nextflow_2024-03-15_09-05-30.log")
	if got != want {
		t.Errorf("LogFilePath() = %q, want %q", got, want)
	}
}

func TestRunRequest_Args_Minimal(t *testing.T) {
	req := RunRequest{MainPath: "main.nf", Mode: ModeLocal}

	got := req.Args("stamp")
	want := []string{"-log", filepath.Join("log", "nextflow_stamp.log"), "run", "main.nf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestRunRequest_Args_Full(t *testing.T) {
	req := RunRequest{
		MainPath:  "CCBR/CRUISE",
		Revision:  "v1.0.0",
		Mode:      ModeLocal,
		Profiles:  []config.ProfileName{config.ProfileDocker, config.ProfileDebug},
		Preview:   true,
		StubRun:   true,
		Resume:    true,
		ExtraArgs: []string{"--input", "samples.csv"},
	}

	got := req.Args("stamp")
	want := []string{
		"-log", filepath.Join("log", "nextflow_stamp.log"),
		"run", "CCBR/CRUISE",
		"-r", "v1.0.0",
		"-profile", "docker,debug",
		"-preview",
		"-stub-run",
		"-resume",
		"--input", "samples.csv",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}
}

func TestRunRequest_Args_ExtraArgsLast(t *testing.T) {
	req := RunRequest{
		MainPath:  "main.nf",
		Mode:      ModeLocal,
		ExtraArgs: []string{"-with-tower"},
	}

	args := req.Args("stamp")
	if args[len(args)-1] != "-with-tower" {
		t.Errorf("expected passthrough args to come last, got %v", args)
	}
}

func TestValidateMainPath_RepoNameAlwaysAccepted(t *testing.T) {
	if err := ValidateMainPath("CCBR/CRUISE", "CCBR/CRUISE"); err != nil {
		t.Errorf("expected the repository name to be accepted, got %v", err)
	}
}

func TestValidateMainPath_ExistingFile(t *testing.T) {
	tmpDir := t.TempDir()
	script := filepath.Join(tmpDir, "main.nf")
	testutil.MustWriteFile(t, script, []byte("workflow {}\n"), 0o644)

	if err := ValidateMainPath(script, "CCBR/CRUISE"); err != nil {
		t.Errorf("expected an existing script to be accepted, got %v", err)
	}
}

func TestValidateMainPath_Missing(t *testing.T) {
	err := ValidateMainPath(filepath.Join(t.TempDir(), "missing.nf"), "CCBR/CRUISE")
	if err == nil {
		t.Fatal("expected an error for a missing script")
	}
	if !errors.Is(err, ErrMainScriptNotFound) {
		t.Errorf("expected ErrMainScriptNotFound, got %v", err)
	}
}

func TestPreviewCommand(t *testing.T) {
	nf := New(WithBinaryPath("/usr/local/bin/nextflow"))
	req := RunRequest{
		MainPath: "main.nf",
		Mode:     ModeLocal,
		Profiles: []config.ProfileName{config.ProfileDocker},
	}

	line, err := nf.PreviewCommand(req, "stamp")
	if err != nil {
		t.Fatalf("PreviewCommand() returned error: %v", err)
	}

	if !strings.HasPrefix(line, "/usr/local/bin/nextflow -log ") {
		t.Errorf("expected the line to start with the binary and -log, got %q", line)
	}
	if !strings.Contains(line, "run main.nf") {
		t.Errorf("expected 'run main.nf' in %q", line)
	}
	if !strings.Contains(line, "-profile docker") {
		t.Errorf("expected '-profile docker' in %q", line)
	}
}

func TestPreviewCommand_QuotesArguments(t *testing.T) {
	nf := New(WithBinaryPath("nextflow"))
	req := RunRequest{
		MainPath:  "main.nf",
		Mode:      ModeLocal,
		ExtraArgs: []string{"--outdir", "my results"},
	}

	line, err := nf.PreviewCommand(req, "stamp")
	if err != nil {
		t.Fatalf("PreviewCommand() returned error: %v", err)
	}
	if !strings.Contains(line, `'my results'`) && !strings.Contains(line, `"my results"`) {
		t.Errorf("expected the spaced argument to be quoted, got %q", line)
	}
}

func TestPreviewCommand_NoBinaryFallsBackToName(t *testing.T) {
	nf := New(WithBinaryPath(""))
	req := RunRequest{MainPath: "main.nf", Mode: ModeLocal}

	line, err := nf.PreviewCommand(req, "stamp")
	if err != nil {
		t.Fatalf("PreviewCommand() returned error: %v", err)
	}
	if !strings.HasPrefix(line, "nextflow ") {
		t.Errorf("expected a bare 'nextflow' prefix, got %q", line)
	}
}

func TestRun_NextflowNotFound(t *testing.T) {
	nf := New(WithBinaryPath(""))

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: ModeLocal})
	if result.Error == nil {
		t.Fatal("expected an error result")
	}
	if !errors.Is(result.Error, ErrNextflowNotFound) {
		t.Errorf("expected ErrNextflowNotFound, got %v", result.Error)
	}
	if result.ExitCode != 1 {
		t.Errorf("expected exit code 1, got %d", result.ExitCode)
	}
}

func TestRun_InvalidMode(t *testing.T) {
	nf := New(WithBinaryPath("nextflow"))

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: "cloud"})
	if result.Error == nil {
		t.Fatal("expected an error result")
	}
	if !errors.Is(result.Error, ErrInvalidRunMode) {
		t.Errorf("expected ErrInvalidRunMode, got %v", result.Error)
	}
}

func TestRun_Success(t *testing.T) {
	skipWithoutUnixTools(t)
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	nf := New(
		WithBinaryPath("nextflow"),
		WithExecCommand(fakeExec("true")),
	)

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: ModeLocal})
	if result.Error != nil {
		t.Fatalf("Run() returned error: %v", result.Error)
	}
	if !result.ExitCode.IsSuccess() {
		t.Errorf("expected a success exit code, got %d", result.ExitCode)
	}
}

func TestRun_PropagatesExitCode(t *testing.T) {
	skipWithoutUnixTools(t)
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	nf := New(
		WithBinaryPath("nextflow"),
		WithExecCommand(fakeExec("false")),
	)

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: ModeLocal})
	if result.ExitCode != 1 {
		t.Errorf("expected the child's exit code 1, got %d", result.ExitCode)
	}
	if result.Error != nil {
		t.Errorf("expected no wrapping error for a plain exit status, got %v", result.Error)
	}
}

func TestRun_CreatesLogDir(t *testing.T) {
	skipWithoutUnixTools(t)
	tmpDir := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, tmpDir))

	nf := New(
		WithBinaryPath("nextflow"),
		WithExecCommand(fakeExec("true")),
	)

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: ModeLocal})
	if result.Error != nil {
		t.Fatalf("Run() returned error: %v", result.Error)
	}

	if !dirExists(filepath.Join(tmpDir, "log")) {
		t.Error("expected the log directory to be created")
	}
}

func TestRun_StampComesFromClock(t *testing.T) {
	skipWithoutUnixTools(t)
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	fixed := time.Date(2024, 3, 15, 9, 5, 30, 0, time.UTC)
	var gotArgs []string
	nf := New(
		WithBinaryPath("nextflow"),
		WithClock(func() time.Time { return fixed }),
		WithExecCommand(func(ctx context.Context, _ string, arg ...string) *exec.Cmd {
			gotArgs = arg
			return exec.CommandContext(ctx, "true")
		}),
	)

	result := nf.Run(context.Background(), RunRequest{MainPath: "main.nf", Mode: ModeLocal})
	if result.Error != nil {
		t.Fatalf("Run() returned error: %v", result.Error)
	}

	want := filepath.Join("log", "nextflow_2024-03-15_09-05-30.log")
	if len(gotArgs) < 2 || gotArgs[0] != "-log" || gotArgs[1] != want {
		t.Errorf("expected -log %s, got args %v", want, gotArgs)
	}
}

func TestVersion(t *testing.T) {
	skipWithoutUnixTools(t)

	nf := New(
		WithBinaryPath("nextflow"),
		WithExecCommand(fakeExec("printf", "      N E X T F L O W\n      version 24.10.0 build 5928\n")),
	)

	version, err := nf.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() returned error: %v", err)
	}
	if version != "24.10.0" {
		t.Errorf("Version() = %q, want 24.10.0", version)
	}
}

func TestExitCode(t *testing.T) {
	if valid, _ := ExitCode(0).IsValid(); !valid {
		t.Error("expected 0 to be a valid exit code")
	}
	if valid, _ := ExitCode(255).IsValid(); !valid {
		t.Error("expected 255 to be a valid exit code")
	}
	if valid, _ := ExitCode(256).IsValid(); valid {
		t.Error("expected 256 to be invalid")
	}
	if !ExitCode(0).IsSuccess() {
		t.Error("expected 0 to be success")
	}
	if ExitCode(1).IsSuccess() {
		t.Error("expected 1 to be failure")
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
