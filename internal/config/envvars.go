package config

import (
	"os"
	"strconv"
	"strings"
)

// EnvVarMapping defines the mapping between environment variables and config paths.
var EnvVarMapping = map[string]string{
	"PACKLINT_WORK_DIR":         "work_dir",
	"PACKLINT_CLASSIFIER":       "classifier",
	"PACKLINT_EXCLUDES":         "excludes",
	"PACKLINT_FAIL_ON_WARNINGS": "fail_on_warnings",
	"PACKLINT_SKIP_IF_PLANNED":  "skip_if_planned",
	"PACKLINT_PIPELINE_FILE":    "pipeline_file",
	// State settings
	"PACKLINT_STATE_ENABLED": "state.enabled",
	"PACKLINT_STATE_PATH":    "state.path",
	// Watch settings
	"PACKLINT_WATCH_DEBOUNCE_MS": "watch.debounce_ms",
}

// ApplyEnvVars applies environment variable overrides to a config.
// Returns a list of paths that were overridden.
func ApplyEnvVars(cfg *Config) []string {
	var overridden []string

	for envVar, configPath := range EnvVarMapping {
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}

		if applyEnvVar(cfg, configPath, value) {
			overridden = append(overridden, configPath)
		}
	}

	return overridden
}

// applyEnvVar applies a single environment variable to the config.
// Returns true if the value was applied.
func applyEnvVar(cfg *Config, path string, value string) bool {
	switch path {
	case "work_dir":
		cfg.WorkDir = value
	case "classifier":
		cfg.Classifier = value
	case "excludes":
		cfg.Excludes = splitList(value)
	case "fail_on_warnings":
		cfg.FailOnWarnings = parseBool(value)
	case "skip_if_planned":
		cfg.SkipIfPlanned = parseBool(value)
	case "pipeline_file":
		cfg.PipelineFile = value
	case "state.enabled":
		cfg.State.Enabled = parseBool(value)
	case "state.path":
		cfg.State.Path = value
	case "watch.debounce_ms":
		if v, err := strconv.Atoi(value); err == nil {
			cfg.Watch.DebounceMs = v
		}
	default:
		return false
	}
	return true
}

// parseBool parses a boolean environment value, accepting 1/0, true/false,
// yes/no, on/off.
func parseBool(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// splitList splits a comma-separated environment value, trimming spaces
// and dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
