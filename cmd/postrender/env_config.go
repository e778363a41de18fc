package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-postrender/internal/config"
)

// envPrefix namespaces every recognized environment variable.
const envPrefix = "POSTRENDER_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath    string        // POSTRENDER_CONFIG: config file name or path
	Timeout       time.Duration // POSTRENDER_TIMEOUT: per-page timeout
	Workers       int           // POSTRENDER_WORKERS: parallel workers
	InputDir      string        // POSTRENDER_INPUT_DIR: default input directory
	OutputDir     string        // POSTRENDER_OUTPUT_DIR: default output directory
	BaseURL       string        // POSTRENDER_BASE_URL: site base URL
	Diagrams      string        // POSTRENDER_DIAGRAMS: none, script, browser
	MermaidScript string        // POSTRENDER_MERMAID_SCRIPT: mermaid.js URL or file
	AssetPath     string        // POSTRENDER_ASSET_PATH: custom asset directory
}

// knownEnvVars lists valid POSTRENDER_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"POSTRENDER_CONFIG":         true,
	"POSTRENDER_TIMEOUT":        true,
	"POSTRENDER_WORKERS":        true,
	"POSTRENDER_INPUT_DIR":      true,
	"POSTRENDER_OUTPUT_DIR":     true,
	"POSTRENDER_BASE_URL":       true,
	"POSTRENDER_DIAGRAMS":       true,
	"POSTRENDER_MERMAID_SCRIPT": true,
	"POSTRENDER_ASSET_PATH":     true,
	"POSTRENDER_CONTAINER":      true, // doctor override
	"POSTRENDER_TEST_MERMAID":   true, // integration tests
}

// loadEnvConfig reads configuration from environment variables.
// Unparsable durations and counts are ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:    getenv("POSTRENDER_CONFIG"),
		InputDir:      getenv("POSTRENDER_INPUT_DIR"),
		OutputDir:     getenv("POSTRENDER_OUTPUT_DIR"),
		BaseURL:       getenv("POSTRENDER_BASE_URL"),
		Diagrams:      getenv("POSTRENDER_DIAGRAMS"),
		MermaidScript: getenv("POSTRENDER_MERMAID_SCRIPT"),
		AssetPath:     getenv("POSTRENDER_ASSET_PATH"),
	}

	if timeout := getenv("POSTRENDER_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if workers := getenv("POSTRENDER_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized POSTRENDER_*
// variable, catching typos like POSTRENDER_OUTPUTDIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overrides config values with the variables that are set.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setIf := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setIf(&cfg.Input.DefaultDir, env.InputDir)
	setIf(&cfg.Output.DefaultDir, env.OutputDir)
	setIf(&cfg.BaseURL, env.BaseURL)
	setIf(&cfg.Diagrams.Mode, env.Diagrams)
	setIf(&cfg.Diagrams.Script, env.MermaidScript)
	setIf(&cfg.Assets.BasePath, env.AssetPath)
}
