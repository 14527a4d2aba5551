// SPDX-License-Identifier: EPL-2.0

// Package container probes the container engines the pipeline profiles rely
// on (Docker and Singularity/Apptainer). The launcher never drives containers
// itself; Nextflow does. This package only answers "is the engine this
// profile needs actually usable on this host" before a run is started, so
// that a missing engine fails fast at launch instead of minutes into the
// workflow.
package container

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cruise-cli/internal/config"

	"mvdan.cc/sh/v3/syntax"
)

var (
	// ErrEngineNotAvailable is the sentinel error wrapped by EngineNotAvailableError.
	ErrEngineNotAvailable = errors.New("container engine not available")
	// ErrMalformedRunOptions is the sentinel error wrapped by MalformedRunOptionsError.
	ErrMalformedRunOptions = errors.New("malformed container run options")
)

type (
	// Engine is a container runtime the launcher can probe.
	Engine interface {
		// Name returns the engine name (docker or singularity).
		Name() string
		// Available checks if the engine is usable on this host.
		Available() bool
		// Version returns the engine version.
		Version(ctx context.Context) (string, error)
	}

	// EngineNotAvailableError is returned when a profile requires an engine
	// that cannot be used on this host. It wraps ErrEngineNotAvailable.
	EngineNotAvailableError struct {
		Engine  string
		Profile config.ProfileName
	}

	// MalformedRunOptionsError is returned when configured run options do
	// not split into shell fields. It wraps ErrMalformedRunOptions.
	MalformedRunOptionsError struct {
		Options config.RunOptions
		Cause   error
	}
)

// Error implements the error interface for EngineNotAvailableError.
func (e *EngineNotAvailableError) Error() string {
	return fmt.Sprintf("profile %q requires %s, which is not available on this host", e.Profile, e.Engine)
}

// Unwrap returns ErrEngineNotAvailable for errors.Is() compatibility.
func (e *EngineNotAvailableError) Unwrap() error { return ErrEngineNotAvailable }

// Error implements the error interface for MalformedRunOptionsError.
func (e *MalformedRunOptionsError) Error() string {
	return fmt.Sprintf("container run options %q do not parse as shell fields: %v", e.Options, e.Cause)
}

// Unwrap returns ErrMalformedRunOptions for errors.Is() compatibility.
func (e *MalformedRunOptionsError) Unwrap() error { return ErrMalformedRunOptions }

// SplitRunOptions splits an opaque run-options string into the argument
// fields the engine will receive. The string is tokenized with shell word
// rules but never expanded: command substitutions like $(id -u) survive as
// literal source text for the engine's own shell to resolve.
func SplitRunOptions(opts config.RunOptions) ([]string, error) {
	if opts == "" {
		return nil, nil
	}

	parser := syntax.NewParser()
	printer := syntax.NewPrinter()

	var fields []string
	var printErr error
	err := parser.Words(strings.NewReader(string(opts)), func(w *syntax.Word) bool {
		var buf strings.Builder
		if printErr = printer.Print(&buf, w); printErr != nil {
			return false
		}
		fields = append(fields, buf.String())
		return true
	})
	if err == nil {
		err = printErr
	}
	if err != nil {
		return nil, &MalformedRunOptionsError{Options: opts, Cause: err}
	}
	return fields, nil
}

// Preflight verifies that every engine the resolved settings rely on is
// usable, and that configured Docker run options at least tokenize. It is a
// launch-time gate: a clean pass does not guarantee the run will succeed,
// only that it will not fail on a missing engine.
func Preflight(ctx context.Context, settings *config.Settings) error {
	if settings.Docker.Enabled {
		if _, err := SplitRunOptions(settings.Docker.RunOptions); err != nil {
			return err
		}
		engine := NewDockerEngine()
		if !engine.Available() {
			return &EngineNotAvailableError{Engine: engine.Name(), Profile: profileFor(settings, config.ProfileDocker)}
		}
	}

	if settings.Singularity.Enabled {
		engine := NewSingularityEngine()
		if !engine.Available() {
			return &EngineNotAvailableError{Engine: engine.Name(), Profile: profileFor(settings, config.ProfileSingularity)}
		}
	}

	return nil
}

// profileFor names the applied profile to blame in an error message,
// falling back to the canonical name when the setting came from the base
// config rather than a profile.
func profileFor(settings *config.Settings, canonical config.ProfileName) config.ProfileName {
	for _, name := range settings.Applied {
		if name == canonical {
			return name
		}
	}
	if len(settings.Applied) > 0 {
		return settings.Applied[len(settings.Applied)-1]
	}
	return canonical
}
