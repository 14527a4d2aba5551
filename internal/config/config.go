// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cruise-cli/internal/issue"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "cruise"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// envPrefix namespaces environment overrides (CRUISE_PROCESS_CPUS, ...).
	envPrefix = "CRUISE"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the cruise configuration directory using platform
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application
// Support, and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	// If a custom config file path is set via --config flag, use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		localCuePath := ConfigFileName + "." + ConfigFileExt

		switch {
		case fileExists(cuePath):
			resolvedPath = cuePath
		case fileExists(localCuePath):
			resolvedPath = localCuePath
		}
		// If no config file was found, ship with defaults (no error).

		if resolvedPath != "" {
			if err := loadCUEIntoViper(v, resolvedPath); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(resolvedPath).
					WithSuggestion("Check that the file contains valid CUE syntax").
					WithSuggestion("Verify the configuration values match the expected schema").
					Wrap(err).
					BuildError()
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check profile blocks for empty names or non-positive cpu counts").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// setDefaults seeds Viper with the canonical pipeline configuration so that
// a missing or partial config file still yields a complete Config.
func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("process.cpus", int(defaults.Process.CPUs))
	v.SetDefault("process.echo", defaults.Process.Echo)

	v.SetDefault("dag.enabled", defaults.DAG.Enabled)
	v.SetDefault("dag.overwrite", defaults.DAG.Overwrite)
	v.SetDefault("dag.file", string(defaults.DAG.File))

	v.SetDefault("manifest.name", defaults.Manifest.Name)
	v.SetDefault("manifest.author", defaults.Manifest.Author)
	v.SetDefault("manifest.home_page", defaults.Manifest.HomePage)
	v.SetDefault("manifest.description", defaults.Manifest.Description)
	v.SetDefault("manifest.main_script", defaults.Manifest.MainScript)

	debug := defaults.Profiles[string(ProfileDebug)]
	v.SetDefault("profiles.debug.process.echo", *debug.Process.Echo)
	v.SetDefault("profiles.debug.process.before_script", *debug.Process.BeforeScript)

	docker := defaults.Profiles[string(ProfileDocker)]
	v.SetDefault("profiles.docker.docker.enabled", docker.Docker.Enabled)
	v.SetDefault("profiles.docker.docker.run_options", string(docker.Docker.RunOptions))

	singularity := defaults.Profiles[string(ProfileSingularity)]
	v.SetDefault("profiles.singularity.singularity.enabled", singularity.Singularity.Enabled)
	v.SetDefault("profiles.singularity.singularity.auto_mounts", singularity.Singularity.AutoMounts)
	v.SetDefault("profiles.singularity.singularity.cache_dir", string(singularity.Singularity.CacheDir))
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// The decode target is map[string]any (not a struct) so that the file merges
// over Viper defaults field by field; validation uses Concrete(false) because
// every schema field is optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkFileSize(data, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig creates a default config file if it doesn't exist
func CreateDefaultConfig() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	if _, err := os.Stat(cfgPath); err == nil {
		return nil // File exists
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration, suitable
// as a starting point for site overrides.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// CRUISE launcher configuration file\n")
	sb.WriteString("// See https://github.com/CCBR/CRUISE for documentation.\n\n")

	sb.WriteString("process: {\n")
	sb.WriteString(fmt.Sprintf("\tcpus: %d\n", cfg.Process.CPUs))
	if cfg.Process.Echo {
		sb.WriteString("\techo: true\n")
	}
	if cfg.Process.BeforeScript != "" {
		sb.WriteString(fmt.Sprintf("\tbefore_script: %q\n", cfg.Process.BeforeScript))
	}
	sb.WriteString("}\n")

	sb.WriteString("\ndag: {\n")
	sb.WriteString(fmt.Sprintf("\tenabled: %v\n", cfg.DAG.Enabled))
	sb.WriteString(fmt.Sprintf("\toverwrite: %v\n", cfg.DAG.Overwrite))
	sb.WriteString(fmt.Sprintf("\tfile: %q\n", cfg.DAG.File))
	sb.WriteString("}\n")

	sb.WriteString("\nmanifest: {\n")
	sb.WriteString(fmt.Sprintf("\tname: %q\n", cfg.Manifest.Name))
	sb.WriteString(fmt.Sprintf("\tauthor: %q\n", cfg.Manifest.Author))
	sb.WriteString(fmt.Sprintf("\thome_page: %q\n", cfg.Manifest.HomePage))
	sb.WriteString(fmt.Sprintf("\tdescription: %q\n", cfg.Manifest.Description))
	sb.WriteString(fmt.Sprintf("\tmain_script: %q\n", cfg.Manifest.MainScript))
	sb.WriteString("}\n")

	sb.WriteString("\nprofiles: {\n")
	for _, name := range cfg.ProfileNames() {
		profile := cfg.Profiles[string(name)]
		sb.WriteString(fmt.Sprintf("\t%q: {\n", name))
		if profile.Process != nil {
			sb.WriteString("\t\tprocess: {\n")
			if profile.Process.CPUs != nil {
				sb.WriteString(fmt.Sprintf("\t\t\tcpus: %d\n", *profile.Process.CPUs))
			}
			if profile.Process.Echo != nil {
				sb.WriteString(fmt.Sprintf("\t\t\techo: %v\n", *profile.Process.Echo))
			}
			if profile.Process.BeforeScript != nil {
				sb.WriteString(fmt.Sprintf("\t\t\tbefore_script: %q\n", *profile.Process.BeforeScript))
			}
			sb.WriteString("\t\t}\n")
		}
		if profile.Docker != nil {
			sb.WriteString("\t\tdocker: {\n")
			sb.WriteString(fmt.Sprintf("\t\t\tenabled: %v\n", profile.Docker.Enabled))
			if profile.Docker.RunOptions != "" {
				sb.WriteString(fmt.Sprintf("\t\t\trun_options: %q\n", profile.Docker.RunOptions))
			}
			sb.WriteString("\t\t}\n")
		}
		if profile.Singularity != nil {
			sb.WriteString("\t\tsingularity: {\n")
			sb.WriteString(fmt.Sprintf("\t\t\tenabled: %v\n", profile.Singularity.Enabled))
			sb.WriteString(fmt.Sprintf("\t\t\tauto_mounts: %v\n", profile.Singularity.AutoMounts))
			if profile.Singularity.CacheDir != "" {
				sb.WriteString(fmt.Sprintf("\t\t\tcache_dir: %q\n", profile.Singularity.CacheDir))
			}
			sb.WriteString("\t\t}\n")
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	return sb.String()
}
