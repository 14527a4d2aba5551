// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cruise-cli/internal/config"
	"cruise-cli/internal/testutil"
)

func TestSingularityEngine_Available_NoBinary(t *testing.T) {
	engine := NewSingularityEngine(WithBinaryPath(""))

	if engine.Available() {
		t.Error("expected Available() to be false without a binary")
	}
}

func TestSingularityEngine_Available(t *testing.T) {
	skipWithoutUnixTools(t)

	engine := NewSingularityEngine(WithBinaryPath("singularity"), WithExecCommand(fakeExec("true")))
	if !engine.Available() {
		t.Error("expected Available() to be true when the binary responds")
	}
}

func TestSingularityEngine_Version(t *testing.T) {
	skipWithoutUnixTools(t)

	tests := []struct {
		name   string
		output string
		want   string
	}{
		{"singularity-ce", "singularity-ce version 4.1.0", "4.1.0"},
		{"apptainer", "apptainer version 1.3.0", "1.3.0"},
		{"bare version", "3.8.7", "3.8.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewSingularityEngine(
				WithBinaryPath("singularity"),
				WithExecCommand(fakeExec("echo", tt.output)),
			)

			version, err := engine.Version(context.Background())
			if err != nil {
				t.Fatalf("Version() returned error: %v", err)
			}
			if version != tt.want {
				t.Errorf("Version() = %q, want %q", version, tt.want)
			}
		})
	}
}

func TestResolveCacheDir(t *testing.T) {
	t.Cleanup(testutil.MustSetenv(t, "USER", "testuser"))

	got := ResolveCacheDir("/data/$USER/.singularity")
	if got != "/data/testuser/.singularity" {
		t.Errorf("ResolveCacheDir() = %q, want /data/testuser/.singularity", got)
	}
}

func TestResolveCacheDir_NoReferences(t *testing.T) {
	got := ResolveCacheDir("/opt/cache")
	if got != "/opt/cache" {
		t.Errorf("ResolveCacheDir() = %q, want /opt/cache", got)
	}
}

func TestEnsureCacheDir(t *testing.T) {
	tmpDir := t.TempDir()
	t.Cleanup(testutil.MustSetenv(t, "USER", "testuser"))

	dir, err := EnsureCacheDir(cacheDirUnder(tmpDir))
	if err != nil {
		t.Fatalf("EnsureCacheDir() returned error: %v", err)
	}

	want := filepath.Join(tmpDir, "testuser", ".singularity")
	if dir != want {
		t.Errorf("EnsureCacheDir() = %q, want %q", dir, want)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("expected the cache dir to exist: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected the cache path to be a directory")
	}
}

func TestEnsureCacheDir_Empty(t *testing.T) {
	dir, err := EnsureCacheDir("")
	if err != nil {
		t.Fatalf("EnsureCacheDir(\"\") returned error: %v", err)
	}
	if dir != "" {
		t.Errorf("expected an empty result for an unset cache dir, got %q", dir)
	}
}

// cacheDirUnder builds a cache dir value with a deferred $USER reference
// rooted in the given directory.
func cacheDirUnder(root string) config.CacheDirPath {
	return config.CacheDirPath(filepath.Join(root, "$USER", ".singularity"))
}
