// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ProfileDebug enables verbose process output for local troubleshooting.
	ProfileDebug ProfileName = "debug"
	// ProfileDocker runs pipeline processes in Docker containers.
	ProfileDocker ProfileName = "docker"
	// ProfileSingularity runs pipeline processes in Singularity containers.
	ProfileSingularity ProfileName = "singularity"
)

var (
	// ErrInvalidProfileName is the sentinel error wrapped by InvalidProfileNameError.
	ErrInvalidProfileName = errors.New("invalid profile name")
	// ErrInvalidCPUCount is the sentinel error wrapped by InvalidCPUCountError.
	ErrInvalidCPUCount = errors.New("invalid cpu count")
	// ErrInvalidRunOptions is the sentinel error wrapped by InvalidRunOptionsError.
	ErrInvalidRunOptions = errors.New("invalid container run options")
	// ErrInvalidCacheDirPath is the sentinel error wrapped by InvalidCacheDirPathError.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidArtifactPath is the sentinel error wrapped by InvalidArtifactPathError.
	ErrInvalidArtifactPath = errors.New("invalid artifact path")
	// ErrInvalidManifest is the sentinel error wrapped by InvalidManifestError.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrInvalidProfile is the sentinel error wrapped by InvalidProfileError.
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ProfileName identifies a named override block selectable at launch time.
	// Profile names are passed to Nextflow comma-joined, so a valid name must
	// be non-empty and contain no whitespace or commas.
	ProfileName string

	// InvalidProfileNameError is returned when a ProfileName value is empty
	// or contains separator characters. It wraps ErrInvalidProfileName.
	InvalidProfileNameError struct {
		Value ProfileName
	}

	// CPUCount is a per-process CPU request. Valid values are positive.
	CPUCount int

	// InvalidCPUCountError is returned when a CPUCount is not positive.
	// It wraps ErrInvalidCPUCount.
	InvalidCPUCountError struct {
		Value CPUCount
	}

	// RunOptions is an opaque string of container-launch flags handed to the
	// engine verbatim (e.g. "-u $(id -u):$(id -g)"). The zero value is valid
	// and means no extra flags. The $(...) substitutions are resolved by the
	// shell at container launch, never by this package.
	RunOptions string

	// InvalidRunOptionsError is returned when a RunOptions value is non-empty
	// but whitespace-only. It wraps ErrInvalidRunOptions.
	InvalidRunOptionsError struct {
		Value RunOptions
	}

	// CacheDirPath is a filesystem path for the Singularity image cache.
	// It may contain environment references such as $USER, which are kept
	// literal until launch time. The zero value is valid and means the
	// engine default.
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only. It wraps ErrInvalidCacheDirPath.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// ArtifactPath is a workflow output file path, relative to the launch
	// directory unless absolute. A valid path is non-empty.
	ArtifactPath string

	// InvalidArtifactPathError is returned when an ArtifactPath value is
	// empty or whitespace-only. It wraps ErrInvalidArtifactPath.
	InvalidArtifactPathError struct {
		Value ArtifactPath
	}

	// InvalidManifestError is returned when a ManifestConfig has invalid
	// fields. It wraps ErrInvalidManifest and collects field-level errors.
	InvalidManifestError struct {
		FieldErrors []error
	}

	// InvalidProfileError is returned when a Profile has invalid fields.
	// It wraps ErrInvalidProfile and collects field-level errors.
	InvalidProfileError struct {
		Name        ProfileName
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and collects field-level errors from all
	// sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// ProcessConfig holds baseline resource settings applied to every
	// pipeline process unless a profile overrides them.
	ProcessConfig struct {
		// CPUs is the default CPU request per process.
		CPUs CPUCount `json:"cpus" mapstructure:"cpus"`
		// Echo forwards process stdout to the launcher terminal.
		Echo bool `json:"echo" mapstructure:"echo"`
		// BeforeScript is a shell snippet Nextflow runs before each task script.
		BeforeScript string `json:"before_script,omitempty" mapstructure:"before_script"`
	}

	// ProcessProfile is a partial ProcessConfig used inside profiles.
	// Nil fields inherit the base value.
	ProcessProfile struct {
		CPUs         *CPUCount `json:"cpus,omitempty" mapstructure:"cpus"`
		Echo         *bool     `json:"echo,omitempty" mapstructure:"echo"`
		BeforeScript *string   `json:"before_script,omitempty" mapstructure:"before_script"`
	}

	// DockerConfig configures Docker-based execution.
	DockerConfig struct {
		// Enabled turns on Docker for all pipeline processes.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// RunOptions are extra flags for every `docker run` invocation.
		RunOptions RunOptions `json:"run_options,omitempty" mapstructure:"run_options"`
	}

	// SingularityConfig configures Singularity-based execution.
	SingularityConfig struct {
		// Enabled turns on Singularity for all pipeline processes.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// AutoMounts bind-mounts host paths referenced by the workflow.
		AutoMounts bool `json:"auto_mounts" mapstructure:"auto_mounts"`
		// CacheDir stores downloaded container images. Environment
		// references ($USER) stay literal until launch time.
		CacheDir CacheDirPath `json:"cache_dir,omitempty" mapstructure:"cache_dir"`
	}

	// DAGConfig configures the workflow-graph visualization Nextflow writes
	// after a run.
	DAGConfig struct {
		// Enabled turns DAG rendering on.
		Enabled bool `json:"enabled" mapstructure:"enabled"`
		// Overwrite replaces an existing DAG file instead of failing.
		Overwrite bool `json:"overwrite" mapstructure:"overwrite"`
		// File is the output image path.
		File ArtifactPath `json:"file" mapstructure:"file"`
	}

	// ManifestConfig is the static descriptive metadata of the pipeline.
	ManifestConfig struct {
		// Name is the pipeline identifier (also its GitHub repository).
		Name string `json:"name" mapstructure:"name"`
		// Author is the publishing organization or person.
		Author string `json:"author" mapstructure:"author"`
		// HomePage is the project documentation URL.
		HomePage string `json:"home_page" mapstructure:"home_page"`
		// Description is a one-line summary of the pipeline.
		Description string `json:"description" mapstructure:"description"`
		// MainScript is the entry-point file Nextflow loads.
		MainScript string `json:"main_script" mapstructure:"main_script"`
	}

	// Profile is a named set of override settings activated at launch time.
	// Any combination of sections may be present; absent sections leave the
	// base configuration untouched. Profiles compose: later selections win
	// on overlapping keys, with no conflict detection beyond last-wins.
	Profile struct {
		Process     *ProcessProfile    `json:"process,omitempty" mapstructure:"process"`
		Docker      *DockerConfig      `json:"docker,omitempty" mapstructure:"docker"`
		Singularity *SingularityConfig `json:"singularity,omitempty" mapstructure:"singularity"`
	}

	// Config is the full pipeline configuration: base settings plus the
	// named profiles that can override them.
	Config struct {
		// Process holds the process-wide resource defaults.
		Process ProcessConfig `json:"process" mapstructure:"process"`
		// Docker holds the base Docker settings (disabled unless a profile
		// enables them).
		Docker DockerConfig `json:"docker" mapstructure:"docker"`
		// Singularity holds the base Singularity settings.
		Singularity SingularityConfig `json:"singularity" mapstructure:"singularity"`
		// DAG configures workflow-graph output.
		DAG DAGConfig `json:"dag" mapstructure:"dag"`
		// Manifest is the pipeline metadata.
		Manifest ManifestConfig `json:"manifest" mapstructure:"manifest"`
		// Profiles maps profile names to their override blocks.
		Profiles map[string]Profile `json:"profiles" mapstructure:"profiles"`
	}
)

// String returns the string representation of the ProfileName.
func (n ProfileName) String() string { return string(n) }

// IsValid returns whether the ProfileName is non-empty and free of
// whitespace and commas, and a list of validation errors if it is not.
func (n ProfileName) IsValid() (bool, []error) {
	s := string(n)
	if strings.TrimSpace(s) == "" || strings.ContainsAny(s, ", \t\n") {
		return false, []error{&InvalidProfileNameError{Value: n}}
	}
	return true, nil
}

// Error implements the error interface for InvalidProfileNameError.
func (e *InvalidProfileNameError) Error() string {
	return fmt.Sprintf("invalid profile name %q: must be non-empty without spaces or commas", e.Value)
}

// Unwrap returns ErrInvalidProfileName for errors.Is() compatibility.
func (e *InvalidProfileNameError) Unwrap() error { return ErrInvalidProfileName }

// String returns the decimal string representation of the CPUCount.
func (c CPUCount) String() string { return strconv.Itoa(int(c)) }

// IsValid returns whether the CPUCount is positive, and a list of
// validation errors if it is not.
func (c CPUCount) IsValid() (bool, []error) {
	if c <= 0 {
		return false, []error{&InvalidCPUCountError{Value: c}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCPUCountError.
func (e *InvalidCPUCountError) Error() string {
	return fmt.Sprintf("invalid cpu count %d: must be positive", e.Value)
}

// Unwrap returns ErrInvalidCPUCount for errors.Is() compatibility.
func (e *InvalidCPUCountError) Unwrap() error { return ErrInvalidCPUCount }

// String returns the string representation of the RunOptions.
func (o RunOptions) String() string { return string(o) }

// IsValid returns whether the RunOptions value is valid. The zero value is
// valid; non-zero values must not be whitespace-only.
func (o RunOptions) IsValid() (bool, []error) {
	if o == "" {
		return true, nil
	}
	if strings.TrimSpace(string(o)) == "" {
		return false, []error{&InvalidRunOptionsError{Value: o}}
	}
	return true, nil
}

// Error implements the error interface for InvalidRunOptionsError.
func (e *InvalidRunOptionsError) Error() string {
	return fmt.Sprintf("invalid container run options %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidRunOptions for errors.Is() compatibility.
func (e *InvalidRunOptionsError) Unwrap() error { return ErrInvalidRunOptions }

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// IsValid returns whether the CacheDirPath is valid. The zero value is
// valid (engine default); non-zero values must not be whitespace-only.
func (p CacheDirPath) IsValid() (bool, []error) {
	if p == "" {
		return true, nil
	}
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidCacheDirPathError.
func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q: non-empty value must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheDirPath for errors.Is() compatibility.
func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// String returns the string representation of the ArtifactPath.
func (p ArtifactPath) String() string { return string(p) }

// IsValid returns whether the ArtifactPath is non-empty, and a list of
// validation errors if it is not.
func (p ArtifactPath) IsValid() (bool, []error) {
	if strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidArtifactPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface for InvalidArtifactPathError.
func (e *InvalidArtifactPathError) Error() string {
	return fmt.Sprintf("invalid artifact path %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidArtifactPath for errors.Is() compatibility.
func (e *InvalidArtifactPathError) Unwrap() error { return ErrInvalidArtifactPath }

// IsValid returns whether the ProcessConfig has valid fields.
func (c ProcessConfig) IsValid() (bool, []error) {
	return c.CPUs.IsValid()
}

// IsValid returns whether the DockerConfig has valid fields.
func (c DockerConfig) IsValid() (bool, []error) {
	return c.RunOptions.IsValid()
}

// IsValid returns whether the SingularityConfig has valid fields.
func (c SingularityConfig) IsValid() (bool, []error) {
	return c.CacheDir.IsValid()
}

// IsValid returns whether the DAGConfig has valid fields. The booleans need
// no validation; the output file path must be present.
func (c DAGConfig) IsValid() (bool, []error) {
	return c.File.IsValid()
}

// IsValid returns whether the ManifestConfig has valid fields. Name and
// MainScript are required; the remaining fields are free-form strings.
func (c ManifestConfig) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, fmt.Errorf("manifest name must be non-empty"))
	}
	if strings.TrimSpace(c.MainScript) == "" {
		errs = append(errs, fmt.Errorf("manifest main script must be non-empty"))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidManifestError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidManifestError.
func (e *InvalidManifestError) Error() string {
	return fmt.Sprintf("invalid manifest: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidManifest for errors.Is() compatibility.
func (e *InvalidManifestError) Unwrap() error { return ErrInvalidManifest }

// IsValid returns whether the Profile has valid fields. Each present
// section is validated; absent sections are always valid.
func (p Profile) IsValid() (bool, []error) {
	var errs []error
	if p.Process != nil && p.Process.CPUs != nil {
		if valid, fieldErrs := p.Process.CPUs.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if p.Docker != nil {
		if valid, fieldErrs := p.Docker.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if p.Singularity != nil {
		if valid, fieldErrs := p.Singularity.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidProfileError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidProfileError.
func (e *InvalidProfileError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("invalid profile %q: %d field error(s)", e.Name, len(e.FieldErrors))
	}
	return fmt.Sprintf("invalid profile: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidProfile for errors.Is() compatibility.
func (e *InvalidProfileError) Unwrap() error { return ErrInvalidProfile }

// IsValid returns whether the Config has valid fields. It delegates to every
// sub-component, including each declared profile by name.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	for _, section := range []interface{ IsValid() (bool, []error) }{
		c.Process, c.Docker, c.Singularity, c.DAG, c.Manifest,
	} {
		if valid, fieldErrs := section.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
	}
	for name, profile := range c.Profiles {
		if valid, fieldErrs := ProfileName(name).IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
		if valid, fieldErrs := profile.IsValid(); !valid {
			for _, fe := range fieldErrs {
				var pe *InvalidProfileError
				if errors.As(fe, &pe) {
					pe.Name = ProfileName(name)
				}
			}
			errs = append(errs, fieldErrs...)
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// ptrTo returns a pointer to v, for building profile override literals.
func ptrTo[T any](v T) *T { return &v }

// DefaultConfig returns the canonical CRUISE pipeline configuration.
func DefaultConfig() *Config {
	return &Config{
		Process: ProcessConfig{
			CPUs: 2,
		},
		DAG: DAGConfig{
			Enabled:   true,
			Overwrite: true,
			File:      "assets/dag.png",
		},
		Manifest: ManifestConfig{
			Name:        "CCBR/CRUISE",
			Author:      "CCBR",
			HomePage:    "https://github.com/CCBR/CRUISE",
			Description: "CRISPR screen analysis pipeline",
			MainScript:  "main.nf",
		},
		Profiles: map[string]Profile{
			string(ProfileDebug): {
				Process: &ProcessProfile{
					Echo:         ptrTo(true),
					BeforeScript: ptrTo("echo $HOSTNAME"),
				},
			},
			string(ProfileDocker): {
				Docker: &DockerConfig{
					Enabled:    true,
					RunOptions: "-u $(id -u):$(id -g)",
				},
			},
			string(ProfileSingularity): {
				Singularity: &SingularityConfig{
					Enabled:    true,
					AutoMounts: true,
					CacheDir:   "/data/$USER/.singularity",
				},
			},
		},
	}
}
