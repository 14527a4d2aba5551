// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for cruise.
//
// This package implements the Cobra command hierarchy for the cruise CLI,
// including the root command and subcommands for launching the pipeline,
// scaffolding a run directory, and managing configuration.
package cmd
