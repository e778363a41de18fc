package postrender

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alnah/go-postrender/internal/pipeline"
	"github.com/alnah/go-postrender/internal/theme"
)

// Enhancement names, in run order. Use them with WithDisabled.
const (
	EnhanceTOC         = pipeline.StepTOC
	EnhanceSidenotes   = pipeline.StepSidenotes
	EnhanceBackToTop   = pipeline.StepBackToTop
	EnhanceKeyboardNav = pipeline.StepKeyboardNav
	EnhanceZoom        = pipeline.StepZoom
	EnhanceDiagrams    = pipeline.StepDiagrams
	EnhanceRuntime     = pipeline.StepRuntime
)

// Enhancements lists every name accepted by WithDisabled.
func Enhancements() []string {
	return append(pipeline.StepNames(), pipeline.StepRuntime)
}

// Pipeline types shared with callers.
type (
	// Selectors names the markup the enhancements attach to.
	Selectors = pipeline.Selectors
	// Flags are the page-level presentational signals.
	Flags = pipeline.Flags
	// Heading is one entry of the mounted table of contents.
	Heading = pipeline.HeadingRecord
	// Sidenote is one footnote reference rewritten inline.
	Sidenote = pipeline.SidenoteUnit
	// PaginationLinks are the previous and next targets of the page.
	PaginationLinks = pipeline.PaginationLinks
	// Report records what every enhancement did.
	Report = pipeline.Report
	// Outcome is one entry of a Report.
	Outcome = pipeline.Outcome

	// ZoomOptions configure the image zoom overlay.
	ZoomOptions = pipeline.ZoomOptions
	// ZoomLibrary is the image zoom capability of a page.
	ZoomLibrary = pipeline.ZoomLibrary
	// MediumZoom publishes zoom options for the medium-zoom library.
	MediumZoom = pipeline.MediumZoom
	// NoZoom only marks images.
	NoZoom = pipeline.NoZoom

	// DiagramRenderer renders diagram blocks.
	DiagramRenderer = pipeline.DiagramRenderer
	// DiagramBlock is one diagram container and its source.
	DiagramBlock = pipeline.DiagramBlock
	// MermaidScript hands diagram blocks to mermaid.js in the browser.
	MermaidScript = pipeline.MermaidScript
	// NoDiagrams leaves diagram blocks untouched.
	NoDiagrams = pipeline.NoDiagrams
	// Page is the document handed to renderers.
	Page = pipeline.Page
	// Theme holds the diagram theme variables.
	Theme = theme.Theme
)

// DefaultSelectors returns the markup contract of the stock theme.
func DefaultSelectors() Selectors { return pipeline.DefaultSelectors() }

// DefaultZoomOptions returns the stock overlay settings.
func DefaultZoomOptions() ZoomOptions { return pipeline.DefaultZoomOptions() }

// Input is one rendered page to enhance.
type Input struct {
	HTML    string // Full document or body fragment
	BaseURL string // Optional absolute URL the page is served from
}

// Validate checks that the input is usable.
func (in Input) Validate() error {
	if strings.TrimSpace(in.HTML) == "" {
		return ErrEmptyHTML
	}
	_, err := in.baseURL()
	return err
}

// baseURL parses BaseURL; an empty value yields nil.
func (in Input) baseURL() (*url.URL, error) {
	if in.BaseURL == "" {
		return nil, nil
	}
	u, err := url.Parse(in.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: %q is not absolute", ErrInvalidBaseURL, in.BaseURL)
	}
	return u, nil
}

// Result is an enhanced page.
type Result struct {
	HTML       []byte
	Flags      Flags
	TOC        []Heading
	Sidenotes  []Sidenote
	Pagination PaginationLinks
	Report     Report
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// enhancerConfig holds internal configuration for Enhancer.
type enhancerConfig struct {
	timeout     time.Duration
	log         *zap.Logger
	selectors   Selectors
	zoomOpts    ZoomOptions
	zoomLib     ZoomLibrary
	diagrams    DiagramRenderer
	assetPath   string
	runtimeName string
	noRuntime   bool
	disabled    []string
}

// defaultTimeout bounds one Enhance call.
const defaultTimeout = 30 * time.Second

// WithTimeout sets the per-page timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("postrender: WithTimeout duration must be positive")
	}
	return func(e *Enhancer) {
		e.cfg.timeout = d
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Enhancer) {
		if log != nil {
			e.cfg.log = log
		}
	}
}

// WithSelectors overrides the markup contract. Empty fields keep the defaults.
func WithSelectors(s Selectors) Option {
	return func(e *Enhancer) {
		e.cfg.selectors = s
	}
}

// WithZoom sets the zoom overlay options.
func WithZoom(opts ZoomOptions) Option {
	return func(e *Enhancer) {
		e.cfg.zoomOpts = opts
	}
}

// WithZoomLibrary replaces the zoom capability. Defaults to MediumZoom.
func WithZoomLibrary(lib ZoomLibrary) Option {
	return func(e *Enhancer) {
		e.cfg.zoomLib = lib
	}
}

// WithDiagramRenderer replaces the diagram renderer. Defaults to MermaidScript.
// The Enhancer closes renderers implementing io.Closer.
func WithDiagramRenderer(r DiagramRenderer) Option {
	return func(e *Enhancer) {
		e.cfg.diagrams = r
	}
}

// WithAssetPath loads the runtime from a custom directory, falling back to
// the embedded assets.
func WithAssetPath(path string) Option {
	return func(e *Enhancer) {
		e.cfg.assetPath = path
	}
}

// WithAssetLoader loads the runtime through a custom loader.
// Takes precedence over WithAssetPath.
func WithAssetLoader(loader AssetLoader) Option {
	return func(e *Enhancer) {
		e.publicAssetLoader = loader
	}
}

// WithRuntime selects the runtime bundle by name. Defaults to DefaultRuntime.
func WithRuntime(name string) Option {
	return func(e *Enhancer) {
		e.cfg.runtimeName = name
	}
}

// WithoutRuntime skips runtime injection, for pages that ship their own.
func WithoutRuntime() Option {
	return func(e *Enhancer) {
		e.cfg.noRuntime = true
	}
}

// WithDisabled turns off the named enhancements. See Enhancements.
func WithDisabled(names ...string) Option {
	return func(e *Enhancer) {
		e.cfg.disabled = append(e.cfg.disabled, names...)
	}
}
