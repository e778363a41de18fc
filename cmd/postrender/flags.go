package main

import (
	"io"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-postrender"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// featureFlags turns individual enhancements off.
type featureFlags struct {
	noTOC         bool
	noSidenotes   bool
	noBackToTop   bool
	noKeyboardNav bool
	noZoom        bool
	noDiagrams    bool
	noRuntime     bool
}

// diagramFlags holds diagram rendering flags.
type diagramFlags struct {
	mode   string // none, script, browser
	script string // mermaid.js URL or file for browser mode
}

// assetFlags holds runtime asset flags.
type assetFlags struct {
	assetPath string
	runtime   string
}

// enhanceFlags holds all flags for the enhance command.
type enhanceFlags struct {
	common   commonFlags
	output   string
	workers  int
	timeout  string
	baseURL  string
	features featureFlags
	diagrams diagramFlags
	assets   assetFlags
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing and debug logs")
}

// addFeatureFlags adds the enhancement switches to a FlagSet.
func addFeatureFlags(fs *flag.FlagSet, f *featureFlags) {
	fs.BoolVar(&f.noTOC, "no-toc", false, "disable the table of contents")
	fs.BoolVar(&f.noSidenotes, "no-sidenotes", false, "disable sidenotes")
	fs.BoolVar(&f.noBackToTop, "no-back-to-top", false, "disable the back-to-top control")
	fs.BoolVar(&f.noKeyboardNav, "no-keyboard-nav", false, "disable keyboard pagination")
	fs.BoolVar(&f.noZoom, "no-zoom", false, "disable image zoom")
	fs.BoolVar(&f.noDiagrams, "no-diagrams", false, "disable diagram rendering")
	fs.BoolVar(&f.noRuntime, "no-runtime", false, "do not inject the runtime style and script")
}

// addDiagramFlags adds diagram flags to a FlagSet.
func addDiagramFlags(fs *flag.FlagSet, f *diagramFlags) {
	fs.StringVar(&f.mode, "diagrams", "", "diagram rendering: none, script, browser")
	fs.StringVar(&f.script, "mermaid-script", "", "mermaid.js URL or file (browser mode)")
}

// addAssetFlags adds asset flags to a FlagSet.
func addAssetFlags(fs *flag.FlagSet, f *assetFlags) {
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
	fs.StringVar(&f.runtime, "runtime", "", "runtime bundle name (default: "+postrender.DefaultRuntime+")")
}

// buildEnhanceFlagSet registers every enhance flag on a new FlagSet.
func buildEnhanceFlagSet(f *enhanceFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("enhance", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory (default: in place)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "per-page timeout (e.g., 30s, 2m)")
	fs.StringVar(&f.baseURL, "base-url", "", "absolute URL the input directory is served from")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addFeatureFlags(fs, &f.features)
	addDiagramFlags(fs, &f.diagrams)
	addAssetFlags(fs, &f.assets)

	return fs
}

// parseEnhanceFlags parses enhance command flags and returns positional args.
// Usage and parse errors are written to w.
func parseEnhanceFlags(args []string, w io.Writer) (*enhanceFlags, []string, error) {
	f := &enhanceFlags{}
	fs := buildEnhanceFlagSet(f)
	fs.SetOutput(w)
	fs.Usage = func() { printEnhanceUsage(w) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	return f, fs.Args(), nil
}

// disabled lists the enhancements switched off by flags.
func (f featureFlags) disabled() []string {
	var names []string
	for _, sw := range []struct {
		on   bool
		name string
	}{
		{f.noTOC, postrender.EnhanceTOC},
		{f.noSidenotes, postrender.EnhanceSidenotes},
		{f.noBackToTop, postrender.EnhanceBackToTop},
		{f.noKeyboardNav, postrender.EnhanceKeyboardNav},
		{f.noZoom, postrender.EnhanceZoom},
		{f.noDiagrams, postrender.EnhanceDiagrams},
		{f.noRuntime, postrender.EnhanceRuntime},
	} {
		if sw.on {
			names = append(names, sw.name)
		}
	}
	return names
}
