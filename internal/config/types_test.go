// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Process.CPUs != 2 {
		t.Errorf("expected default process cpus to be 2, got %d", cfg.Process.CPUs)
	}

	if cfg.Process.Echo {
		t.Error("expected default process echo to be false")
	}

	if !cfg.DAG.Enabled {
		t.Error("expected dag to be enabled by default")
	}

	if !cfg.DAG.Overwrite {
		t.Error("expected dag overwrite to be true by default")
	}

	if cfg.DAG.File != "assets/dag.png" {
		t.Errorf("expected dag file to be assets/dag.png, got %q", cfg.DAG.File)
	}

	if cfg.Manifest.Name != "CCBR/CRUISE" {
		t.Errorf("expected manifest name to be CCBR/CRUISE, got %q", cfg.Manifest.Name)
	}

	if cfg.Manifest.Author != "CCBR" {
		t.Errorf("expected manifest author to be CCBR, got %q", cfg.Manifest.Author)
	}

	if cfg.Manifest.HomePage != "https://github.com/CCBR/CRUISE" {
		t.Errorf("expected manifest home page to be the CRUISE repository, got %q", cfg.Manifest.HomePage)
	}

	if cfg.Manifest.Description != "CRISPR screen analysis pipeline" {
		t.Errorf("unexpected manifest description %q", cfg.Manifest.Description)
	}

	if cfg.Manifest.MainScript != "main.nf" {
		t.Errorf("expected manifest main script to be main.nf, got %q", cfg.Manifest.MainScript)
	}

	if len(cfg.Profiles) != 3 {
		t.Fatalf("expected 3 default profiles, got %d", len(cfg.Profiles))
	}
}

func TestDefaultConfig_DebugProfile(t *testing.T) {
	cfg := DefaultConfig()

	debug, ok := cfg.Profiles[string(ProfileDebug)]
	if !ok {
		t.Fatal("expected a debug profile")
	}
	if debug.Process == nil {
		t.Fatal("expected the debug profile to carry a process section")
	}
	if debug.Process.Echo == nil || !*debug.Process.Echo {
		t.Error("expected debug profile to enable process echo")
	}
	if debug.Process.BeforeScript == nil || *debug.Process.BeforeScript != "echo $HOSTNAME" {
		t.Errorf("expected debug beforeScript to be 'echo $HOSTNAME', got %v", debug.Process.BeforeScript)
	}
	if debug.Docker != nil || debug.Singularity != nil {
		t.Error("expected debug profile to leave container sections untouched")
	}
}

func TestDefaultConfig_DockerProfile(t *testing.T) {
	cfg := DefaultConfig()

	docker, ok := cfg.Profiles[string(ProfileDocker)]
	if !ok {
		t.Fatal("expected a docker profile")
	}
	if docker.Docker == nil {
		t.Fatal("expected the docker profile to carry a docker section")
	}
	if !docker.Docker.Enabled {
		t.Error("expected docker profile to enable docker")
	}
	// The $(...) substitutions must stay literal until container launch.
	if docker.Docker.RunOptions != "-u $(id -u):$(id -g)" {
		t.Errorf("expected docker run options '-u $(id -u):$(id -g)', got %q", docker.Docker.RunOptions)
	}
}

func TestDefaultConfig_SingularityProfile(t *testing.T) {
	cfg := DefaultConfig()

	singularity, ok := cfg.Profiles[string(ProfileSingularity)]
	if !ok {
		t.Fatal("expected a singularity profile")
	}
	if singularity.Singularity == nil {
		t.Fatal("expected the singularity profile to carry a singularity section")
	}
	if !singularity.Singularity.Enabled {
		t.Error("expected singularity profile to enable singularity")
	}
	if !singularity.Singularity.AutoMounts {
		t.Error("expected singularity profile to enable auto mounts")
	}
	// $USER stays literal; only the launch-time resolver expands it.
	if singularity.Singularity.CacheDir != "/data/$USER/.singularity" {
		t.Errorf("expected cache dir '/data/$USER/.singularity', got %q", singularity.Singularity.CacheDir)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()

	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("expected the default config to be valid, got %v", errs)
	}
}

func TestProfileName_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		value ProfileName
		valid bool
	}{
		{"canonical", ProfileDocker, true},
		{"site defined", "biowulf", true},
		{"empty", "", false},
		{"whitespace", "a profile", false},
		{"comma", "docker,debug", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := tt.value.IsValid()
			if valid != tt.valid {
				t.Errorf("ProfileName(%q).IsValid() = %v, want %v", tt.value, valid, tt.valid)
			}
			if !tt.valid {
				if len(errs) == 0 {
					t.Fatal("expected validation errors for an invalid name")
				}
				if !errors.Is(errs[0], ErrInvalidProfileName) {
					t.Errorf("expected ErrInvalidProfileName, got %v", errs[0])
				}
			}
		})
	}
}

func TestCPUCount_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		value CPUCount
		valid bool
	}{
		{"default", 2, true},
		{"one", 1, true},
		{"zero", 0, false},
		{"negative", -4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := tt.value.IsValid()
			if valid != tt.valid {
				t.Errorf("CPUCount(%d).IsValid() = %v, want %v", tt.value, valid, tt.valid)
			}
			if !tt.valid && !errors.Is(errs[0], ErrInvalidCPUCount) {
				t.Errorf("expected ErrInvalidCPUCount, got %v", errs[0])
			}
		})
	}
}

func TestRunOptions_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		value RunOptions
		valid bool
	}{
		{"empty is valid", "", true},
		{"default flags", "-u $(id -u):$(id -g)", true},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, errs := tt.value.IsValid()
			if valid != tt.valid {
				t.Errorf("RunOptions(%q).IsValid() = %v, want %v", tt.value, valid, tt.valid)
			}
			if !tt.valid && !errors.Is(errs[0], ErrInvalidRunOptions) {
				t.Errorf("expected ErrInvalidRunOptions, got %v", errs[0])
			}
		})
	}
}

func TestConfig_IsValid_CollectsProfileErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profiles["bad"] = Profile{
		Process: &ProcessProfile{CPUs: ptrTo(CPUCount(0))},
	}

	valid, errs := cfg.IsValid()
	if valid {
		t.Fatal("expected a config with a bad profile to be invalid")
	}
	if len(errs) != 1 {
		t.Fatalf("expected a single wrapping error, got %d", len(errs))
	}
	if !errors.Is(errs[0], ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", errs[0])
	}

	var ce *InvalidConfigError
	if !errors.As(errs[0], &ce) {
		t.Fatalf("expected InvalidConfigError, got %T", errs[0])
	}
	if len(ce.FieldErrors) == 0 {
		t.Error("expected field errors to be collected")
	}
}

func TestManifestConfig_IsValid(t *testing.T) {
	manifest := ManifestConfig{}

	valid, errs := manifest.IsValid()
	if valid {
		t.Fatal("expected an empty manifest to be invalid")
	}
	if !errors.Is(errs[0], ErrInvalidManifest) {
		t.Errorf("expected ErrInvalidManifest, got %v", errs[0])
	}
}
