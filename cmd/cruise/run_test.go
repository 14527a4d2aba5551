// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"cruise-cli/internal/config"
	"cruise-cli/internal/testutil"
)

func TestParseProfileFlags(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		want    []config.ProfileName
		wantErr bool
	}{
		{"none", nil, nil, false},
		{"repeated", []string{"docker", "debug"}, []config.ProfileName{"docker", "debug"}, false},
		{"comma separated", []string{"docker,debug"}, []config.ProfileName{"docker", "debug"}, false},
		{"mixed", []string{"docker,debug", "singularity"}, []config.ProfileName{"docker", "debug", "singularity"}, false},
		{"invalid name", []string{"docker,,debug"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseProfileFlags(tt.values)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseProfileFlags(%v) returned error: %v", tt.values, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseProfileFlags(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestDefaultMainPath_LocalScript(t *testing.T) {
	tmpDir := t.TempDir()
	t.Cleanup(testutil.MustChdir(t, tmpDir))
	testutil.MustWriteFile(t, filepath.Join(tmpDir, "main.nf"), []byte("workflow {}\n"), 0o644)

	cfg := config.DefaultConfig()
	if got := defaultMainPath(cfg); got != "main.nf" {
		t.Errorf("defaultMainPath() = %q, want main.nf", got)
	}
}

func TestDefaultMainPath_FallsBackToRepoName(t *testing.T) {
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))

	cfg := config.DefaultConfig()
	if got := defaultMainPath(cfg); got != "CCBR/CRUISE" {
		t.Errorf("defaultMainPath() = %q, want CCBR/CRUISE", got)
	}
}

func TestRunCommand_Flags(t *testing.T) {
	for _, name := range []string{"main", "revision", "mode", "profile", "preview", "stub-run", "resume", "dry-run"} {
		if runCmd.Flags().Lookup(name) == nil {
			t.Errorf("run command missing --%s flag", name)
		}
	}

	if got := runCmd.Flags().Lookup("mode").DefValue; got != "local" {
		t.Errorf("--mode default = %q, want local", got)
	}
}

func TestRunCommand_UnknownProfileFailsEarly(t *testing.T) {
	setupTestConfig(t)

	runProfiles = []string{"nonexistent"}
	t.Cleanup(func() { runProfiles = nil })

	err := runRun(runCmd, nil)
	if err == nil {
		t.Fatal("expected an error for an unknown profile")
	}
	if !errors.Is(err, config.ErrUnknownProfile) {
		t.Errorf("expected ErrUnknownProfile, got %v", err)
	}
}

// setupTestConfig points config loading at an empty temp dir so tests run
// against the built-in defaults.
func setupTestConfig(t *testing.T) {
	t.Helper()
	config.SetConfigDirOverride(t.TempDir())
	t.Cleanup(config.Reset)
	t.Cleanup(testutil.MustChdir(t, t.TempDir()))
}
