// SPDX-License-Identifier: MPL-2.0

// Package nextflow wraps the external Nextflow runtime the way the launcher
// needs it: binary discovery, `nextflow run` argument construction, and the
// two launch modes (local foreground execution, slurm batch submission).
//
// One timestamp is computed per invocation and threaded through the launch
// log name and the rendered tracing configuration, so every artifact of a
// run carries the same stamp.
package nextflow
