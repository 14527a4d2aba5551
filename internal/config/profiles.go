// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrUnknownProfile is the sentinel error wrapped by UnknownProfileError.
var ErrUnknownProfile = errors.New("unknown profile")

type (
	// UnknownProfileError is returned when a selected profile name has no
	// declared override block. It wraps ErrUnknownProfile and carries the
	// declared names for the error message.
	UnknownProfileError struct {
		Name  ProfileName
		Known []ProfileName
	}

	// Settings is the effective configuration after applying the selected
	// profiles over the base config. It carries plain (non-optional) values
	// only; profile composition has already happened.
	Settings struct {
		Process     ProcessConfig
		Docker      DockerConfig
		Singularity SingularityConfig
		DAG         DAGConfig
		Manifest    ManifestConfig

		// Applied lists the profiles that produced these settings, in
		// application order.
		Applied []ProfileName
	}
)

// Error implements the error interface for UnknownProfileError.
func (e *UnknownProfileError) Error() string {
	names := make([]string, len(e.Known))
	for i, n := range e.Known {
		names[i] = string(n)
	}
	return fmt.Sprintf("unknown profile %q (declared: %s)", e.Name, strings.Join(names, ", "))
}

// Unwrap returns ErrUnknownProfile for errors.Is() compatibility.
func (e *UnknownProfileError) Unwrap() error { return ErrUnknownProfile }

// ProfileNames returns the declared profile names: the canonical profiles
// first in their conventional order, then any extra site-defined profiles
// sorted alphabetically.
func (c *Config) ProfileNames() []ProfileName {
	canonical := []ProfileName{ProfileDebug, ProfileDocker, ProfileSingularity}

	var names []ProfileName
	for _, n := range canonical {
		if _, ok := c.Profiles[string(n)]; ok {
			names = append(names, n)
		}
	}

	extras := maps.Keys(c.Profiles)
	slices.Sort(extras)
	for _, n := range extras {
		if !slices.Contains(canonical, ProfileName(n)) {
			names = append(names, ProfileName(n))
		}
	}

	return names
}

// Resolve applies the named profiles over the base configuration, in order,
// and returns the effective settings. Later profiles win on overlapping keys;
// there is no conflict detection beyond last-wins. An unselected resolution
// (no names) returns the base settings unchanged.
func (c *Config) Resolve(names ...ProfileName) (*Settings, error) {
	s := &Settings{
		Process:     c.Process,
		Docker:      c.Docker,
		Singularity: c.Singularity,
		DAG:         c.DAG,
		Manifest:    c.Manifest,
	}

	for _, name := range names {
		profile, ok := c.Profiles[string(name)]
		if !ok {
			return nil, &UnknownProfileError{Name: name, Known: c.ProfileNames()}
		}
		s.apply(profile)
		s.Applied = append(s.Applied, name)
	}

	return s, nil
}

// apply folds one profile's override sections into the settings.
func (s *Settings) apply(p Profile) {
	if p.Process != nil {
		if p.Process.CPUs != nil {
			s.Process.CPUs = *p.Process.CPUs
		}
		if p.Process.Echo != nil {
			s.Process.Echo = *p.Process.Echo
		}
		if p.Process.BeforeScript != nil {
			s.Process.BeforeScript = *p.Process.BeforeScript
		}
	}
	if p.Docker != nil {
		s.Docker = *p.Docker
	}
	if p.Singularity != nil {
		s.Singularity = *p.Singularity
	}
}

// ParseProfileNames splits a comma-separated profile selection (the form
// Nextflow itself accepts for -profile) and validates each name.
func ParseProfileNames(selection string) ([]ProfileName, error) {
	if strings.TrimSpace(selection) == "" {
		return nil, nil
	}

	var names []ProfileName
	for _, part := range strings.Split(selection, ",") {
		name := ProfileName(strings.TrimSpace(part))
		if valid, errs := name.IsValid(); !valid {
			return nil, errs[0]
		}
		names = append(names, name)
	}
	return names, nil
}
