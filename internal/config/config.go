package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alnah/go-postrender/internal/fileutil"
	"github.com/alnah/go-postrender/internal/pipeline"
	"github.com/alnah/go-postrender/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxPathLength     = 4096 // Linux PATH_MAX
	MaxURLLength      = 2048 // Browser limit
	MaxSelectorLength = 200  // Compound selector chain
	MaxColorLength    = 64   // "rgba(255, 255, 255, 0.92)"
)

// Diagram rendering modes.
const (
	DiagramsNone    = "none"
	DiagramsScript  = "script"
	DiagramsBrowser = "browser"
)

// Config holds all configuration for page enhancement.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	BaseURL   string          `yaml:"baseURL"`
	Selectors SelectorsConfig `yaml:"selectors"`
	Features  FeaturesConfig  `yaml:"features"`
	Zoom      ZoomConfig      `yaml:"zoom"`
	Diagrams  DiagramsConfig  `yaml:"diagrams"`
	Assets    AssetsConfig    `yaml:"assets"`
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default input directory (empty = must specify)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = in place)
}

// SelectorsConfig overrides the markup contract. Empty fields keep the defaults.
type SelectorsConfig struct {
	TOCMountID      string `yaml:"tocMountID"`
	ArticleRoot     string `yaml:"articleRoot"`
	Footnotes       string `yaml:"footnotes"`
	FootnoteRef     string `yaml:"footnoteRef"`
	FootnoteBackref string `yaml:"footnoteBackref"`
	Paginator       string `yaml:"paginator"`
	PaginatorLink   string `yaml:"paginatorLink"`
	BackToTopID     string `yaml:"backToTopID"`
	DiagramCode     string `yaml:"diagramCode"`
}

// FeaturesConfig turns individual enhancements off.
type FeaturesConfig struct {
	Disabled []string `yaml:"disabled"` // Enhancement names, e.g. "zoom", "runtime"
}

// ZoomConfig defines the image zoom overlay.
type ZoomConfig struct {
	Margin     *int   `yaml:"margin"`     // Pixels around the zoomed image (default: 24)
	Background string `yaml:"background"` // Overlay color (default: "rgba(0, 0, 0, 0.92)")
}

// DiagramsConfig defines how diagram blocks are rendered.
type DiagramsConfig struct {
	Mode   string `yaml:"mode"`   // "none", "script", "browser" (default: "script")
	Script string `yaml:"script"` // browser mode: mermaid.js URL or file
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // Empty = use embedded assets
	Runtime  string `yaml:"runtime"`  // Runtime asset name (default: "postrender")
}

// PipelineSelectors converts the overrides for the pipeline.
func (s SelectorsConfig) PipelineSelectors() pipeline.Selectors {
	return pipeline.Selectors{
		TOCMountID:      s.TOCMountID,
		ArticleRoot:     s.ArticleRoot,
		Footnotes:       s.Footnotes,
		FootnoteRef:     s.FootnoteRef,
		FootnoteBackref: s.FootnoteBackref,
		Paginator:       s.Paginator,
		PaginatorLink:   s.PaginatorLink,
		BackToTopID:     s.BackToTopID,
		DiagramCode:     s.DiagramCode,
	}
}

// ZoomOptions returns the overlay options with defaults applied.
func (z ZoomConfig) ZoomOptions() pipeline.ZoomOptions {
	opts := pipeline.DefaultZoomOptions()
	if z.Margin != nil {
		opts.Margin = *z.Margin
	}
	if z.Background != "" {
		opts.Background = z.Background
	}
	return opts
}

// Validate checks field lengths and values. Called automatically by
// LoadConfig, but available for consumers who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	if c.BaseURL != "" {
		if err := validateFieldLength("baseURL", c.BaseURL, MaxURLLength); err != nil {
			return err
		}
		u, err := url.Parse(c.BaseURL)
		if err != nil || !u.IsAbs() {
			return fmt.Errorf("%w: baseURL must be an absolute URL, got %q", ErrInvalidValue, c.BaseURL)
		}
	}

	// Selectors
	sel := c.Selectors
	for _, f := range []struct{ name, value string }{
		{"selectors.tocMountID", sel.TOCMountID},
		{"selectors.articleRoot", sel.ArticleRoot},
		{"selectors.footnotes", sel.Footnotes},
		{"selectors.footnoteRef", sel.FootnoteRef},
		{"selectors.footnoteBackref", sel.FootnoteBackref},
		{"selectors.paginator", sel.Paginator},
		{"selectors.paginatorLink", sel.PaginatorLink},
		{"selectors.backToTopID", sel.BackToTopID},
		{"selectors.diagramCode", sel.DiagramCode},
	} {
		if err := validateFieldLength(f.name, f.value, MaxSelectorLength); err != nil {
			return err
		}
	}
	if err := sel.PipelineSelectors().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	// Features
	known := append(pipeline.StepNames(), pipeline.StepRuntime)
	for i, name := range c.Features.Disabled {
		if !slices.Contains(known, name) {
			return fmt.Errorf("%w: features.disabled[%d]: unknown enhancement %q (must be one of %s)",
				ErrInvalidValue, i, name, strings.Join(known, ", "))
		}
	}

	// Zoom
	if err := validateFieldLength("zoom.background", c.Zoom.Background, MaxColorLength); err != nil {
		return err
	}
	if err := c.Zoom.ZoomOptions().Validate(); err != nil {
		return fmt.Errorf("zoom: %w", err)
	}

	// Diagrams
	if c.Diagrams.Mode != "" {
		switch strings.ToLower(c.Diagrams.Mode) {
		case DiagramsNone, DiagramsScript, DiagramsBrowser:
			// valid
		default:
			return fmt.Errorf("%w: diagrams.mode: %q (must be none, script, or browser)", ErrInvalidValue, c.Diagrams.Mode)
		}
	}
	if err := validateFieldLength("diagrams.script", c.Diagrams.Script, MaxURLLength); err != nil {
		return err
	}

	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns the stock configuration: every enhancement on,
// diagrams left to the page's own mermaid script, embedded assets.
func DefaultConfig() *Config {
	return &Config{
		Diagrams: DiagramsConfig{Mode: DiagramsScript},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-postrender/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileutil.FileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-postrender", name+ext)
			if fileutil.FileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}
