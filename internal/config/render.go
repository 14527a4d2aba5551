// SPDX-License-Identifier: MPL-2.0

package config

import (
	"fmt"
	"strings"
	"time"
)

// GenerateOptions controls nextflow.config rendering.
type GenerateOptions struct {
	// Timestamp stamps the trace/report/timeline artifact names so repeated
	// runs do not clobber each other. When empty, the tracing blocks are
	// omitted entirely.
	Timestamp string
}

// TraceTimestamp formats t the way the pipeline stamps its run artifacts.
// The string is computed once per invocation and shared between the launch
// log and the rendered tracing configuration.
func TraceTimestamp(t time.Time) string {
	return t.Format("2006-01-02_15-04-05")
}

// GenerateNextflowConfig renders the configuration in Nextflow's own
// configuration syntax. Every key/value of the model is transcribed exactly:
// $USER in the Singularity cache dir, $(id -u):$(id -g) in the Docker run
// options, and ${params.tracedir} in the tracing paths are emitted literally
// for Nextflow to resolve at run time.
func GenerateNextflowConfig(cfg *Config, opts GenerateOptions) string {
	var sb strings.Builder

	sb.WriteString("// Generated by the cruise launcher. Edit config.cue instead of this file.\n\n")

	sb.WriteString("profiles {\n")
	for _, name := range cfg.ProfileNames() {
		profile := cfg.Profiles[string(name)]
		sb.WriteString(fmt.Sprintf("    %s {\n", name))
		if profile.Process != nil {
			if profile.Process.CPUs != nil {
				sb.WriteString(fmt.Sprintf("        process.cpus = %d\n", *profile.Process.CPUs))
			}
			if profile.Process.Echo != nil {
				sb.WriteString(fmt.Sprintf("        process.echo = %v\n", *profile.Process.Echo))
			}
			if profile.Process.BeforeScript != nil {
				sb.WriteString(fmt.Sprintf("        process.beforeScript = '%s'\n", *profile.Process.BeforeScript))
			}
		}
		if profile.Docker != nil {
			sb.WriteString(fmt.Sprintf("        docker.enabled = %v\n", profile.Docker.Enabled))
			if profile.Docker.RunOptions != "" {
				sb.WriteString(fmt.Sprintf("        docker.runOptions = '%s'\n", profile.Docker.RunOptions))
			}
		}
		if profile.Singularity != nil {
			sb.WriteString(fmt.Sprintf("        singularity.enabled = %v\n", profile.Singularity.Enabled))
			sb.WriteString(fmt.Sprintf("        singularity.autoMounts = %v\n", profile.Singularity.AutoMounts))
			if profile.Singularity.CacheDir != "" {
				sb.WriteString(fmt.Sprintf("        singularity.cacheDir = \"%s\"\n", profile.Singularity.CacheDir))
			}
		}
		sb.WriteString("    }\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\nprocess {\n")
	sb.WriteString(fmt.Sprintf("    cpus = %d\n", cfg.Process.CPUs))
	if cfg.Process.Echo {
		sb.WriteString("    echo = true\n")
	}
	if cfg.Process.BeforeScript != "" {
		sb.WriteString(fmt.Sprintf("    beforeScript = '%s'\n", cfg.Process.BeforeScript))
	}
	sb.WriteString("}\n")

	sb.WriteString("\ndag {\n")
	sb.WriteString(fmt.Sprintf("    enabled = %v\n", cfg.DAG.Enabled))
	sb.WriteString(fmt.Sprintf("    overwrite = %v\n", cfg.DAG.Overwrite))
	sb.WriteString(fmt.Sprintf("    file = '%s'\n", cfg.DAG.File))
	sb.WriteString("}\n")

	if opts.Timestamp != "" {
		sb.WriteString("\nparams {\n")
		sb.WriteString("    tracedir = \"pipeline_info\"\n")
		sb.WriteString("}\n")

		for _, block := range []struct {
			name string
			file string
		}{
			{"trace", fmt.Sprintf("trace_%s.txt", opts.Timestamp)},
			{"report", fmt.Sprintf("report_%s.html", opts.Timestamp)},
			{"timeline", fmt.Sprintf("timeline_%s.html", opts.Timestamp)},
		} {
			sb.WriteString(fmt.Sprintf("\n%s {\n", block.name))
			sb.WriteString("    enabled = true\n")
			sb.WriteString("    overwrite = true\n")
			sb.WriteString(fmt.Sprintf("    file = \"${params.tracedir}/%s\"\n", block.file))
			sb.WriteString("}\n")
		}
	}

	sb.WriteString("\nmanifest {\n")
	sb.WriteString(fmt.Sprintf("    name = \"%s\"\n", cfg.Manifest.Name))
	sb.WriteString(fmt.Sprintf("    author = \"%s\"\n", cfg.Manifest.Author))
	sb.WriteString(fmt.Sprintf("    homePage = \"%s\"\n", cfg.Manifest.HomePage))
	sb.WriteString(fmt.Sprintf("    description = \"%s\"\n", cfg.Manifest.Description))
	sb.WriteString(fmt.Sprintf("    mainScript = \"%s\"\n", cfg.Manifest.MainScript))
	sb.WriteString("}\n")

	return sb.String()
}
