// SPDX-License-Identifier: MPL-2.0

// Package config models the CRUISE pipeline configuration: execution profiles
// (debug, docker, singularity), process resource defaults, DAG visualization
// output, and the pipeline manifest.
//
// The canonical values ship as DefaultConfig(). Site overrides are loaded with
// Viper from a CUE file (~/.config/cruise/config.cue on Linux and the XDG
// equivalents elsewhere, or ./config.cue) validated against an embedded CUE
// schema (config_schema.cue). CRUISE_* environment variables override file
// values.
//
// Values that Nextflow resolves at run time, such as the $USER segment of the
// Singularity cache directory and the $(id -u):$(id -g) Docker run options,
// are stored and rendered literally; nothing in this package expands them.
package config
