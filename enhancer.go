package postrender

import (
	"context"
	"fmt"
	"io"
	"slices"

	"go.uber.org/zap"

	"github.com/alnah/go-postrender/internal/assets"
	"github.com/alnah/go-postrender/internal/pipeline"
)

// Compile-time interface implementation checks.
var (
	_ pipeline.Enhancement     = (*pipeline.TOCBuilder)(nil)
	_ pipeline.Enhancement     = (*pipeline.SidenoteTransformer)(nil)
	_ pipeline.Enhancement     = (*pipeline.BackToTop)(nil)
	_ pipeline.Enhancement     = (*pipeline.KeyboardNav)(nil)
	_ pipeline.Enhancement     = (*pipeline.ZoomActivation)(nil)
	_ pipeline.Enhancement     = (*pipeline.DiagramRendering)(nil)
	_ pipeline.Enhancement     = (*pipeline.RuntimeInjection)(nil)
	_ pipeline.ZoomLibrary     = pipeline.MediumZoom{}
	_ pipeline.DiagramRenderer = pipeline.MermaidScript{}
	_ pipeline.DiagramRenderer = (*BrowserDiagramRenderer)(nil)
)

// Enhancer runs the enhancement pipeline over rendered pages.
// Create with NewEnhancer(), use Enhance() per page, and Close() when done.
// An Enhancer is not safe for concurrent use; see EnhancerPool.
type Enhancer struct {
	cfg               enhancerConfig
	assetLoader       assets.AssetLoader // internal loader, nil = embedded
	publicAssetLoader AssetLoader        // public loader (from WithAssetLoader)
	runtime           *assets.Runtime
	log               *zap.Logger
}

// NewEnhancer creates an Enhancer with default configuration.
// Returns error if an option is invalid or the runtime cannot be loaded.
func NewEnhancer(opts ...Option) (*Enhancer, error) {
	e := &Enhancer{
		cfg: enhancerConfig{
			timeout:     defaultTimeout,
			log:         zap.NewNop(),
			zoomOpts:    pipeline.DefaultZoomOptions(),
			zoomLib:     pipeline.MediumZoom{},
			diagrams:    pipeline.MermaidScript{},
			runtimeName: assets.DefaultRuntimeName,
		},
	}

	for _, opt := range opts {
		opt(e)
	}
	e.log = e.cfg.log.Named("enhancer")

	if err := e.cfg.selectors.Validate(); err != nil {
		return nil, err
	}
	if err := e.cfg.zoomOpts.Validate(); err != nil {
		return nil, err
	}
	known := Enhancements()
	for _, name := range e.cfg.disabled {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEnhancement, name)
		}
	}
	if e.cfg.zoomLib == nil {
		e.cfg.zoomLib = pipeline.NoZoom{}
	}
	if e.cfg.diagrams == nil {
		e.cfg.diagrams = pipeline.NoDiagrams{}
	}

	// Handle WithAssetPath: resolve to internal loader
	if e.cfg.assetPath != "" {
		resolver, err := assets.NewAssetResolver(e.cfg.assetPath)
		if err != nil {
			return nil, convertAssetError(err)
		}
		e.assetLoader = resolver
		e.log.Debug("runtime assets",
			zap.String("path", e.cfg.assetPath),
			zap.Bool("custom", resolver.HasCustomLoader()))
	}

	// Handle WithAssetLoader (public interface): wrap to internal interface
	if e.publicAssetLoader != nil {
		e.assetLoader = &publicToInternalAdapter{pub: e.publicAssetLoader}
	}

	if !e.cfg.noRuntime && !e.isDisabled(EnhanceRuntime) {
		var rt *assets.Runtime
		var err error
		if e.assetLoader == nil {
			rt, err = assets.LoadRuntime(e.cfg.runtimeName)
		} else {
			rt, err = assets.LoadRuntimeFrom(e.assetLoader, e.cfg.runtimeName)
		}
		if err != nil {
			return nil, fmt.Errorf("loading runtime %q: %w", e.cfg.runtimeName, convertAssetError(err))
		}
		e.runtime = rt
	}

	return e, nil
}

// Enhance runs every enabled enhancement once over input.
// Enhancement failures are recorded in Result.Report and never abort the
// page; the returned error is reserved for unusable input, cancellation,
// and serialization failures.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (e *Enhancer) Enhance(ctx context.Context, input Input) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if err := input.Validate(); err != nil {
		return nil, err
	}
	base, _ := input.baseURL()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.timeout)
	defer cancel()

	doc, err := pipeline.ParseDocument(input.HTML)
	if err != nil {
		return nil, err
	}

	page, err := pipeline.NewPage(doc.Root, e.cfg.selectors, e.cfg.log.Named("pipeline"))
	if err != nil {
		return nil, err
	}
	page.BaseURL = base

	runner := pipeline.NewRunner(e.cfg.log.Named("runner"), e.steps()...)
	if e.runtime != nil {
		runner.Finally(pipeline.NewRuntimeInjection(e.runtime.Style, e.runtime.Script))
	}

	report, err := runner.Run(ctx, page)
	if err != nil {
		return nil, err
	}

	out, err := doc.Render()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTMLRender, err)
	}

	if rerr := report.Err(); rerr != nil {
		e.log.Warn("page enhanced with failures", zap.Error(rerr))
	} else {
		e.log.Debug("page enhanced", zap.Bool("toc", page.Flags().HasTOC), zap.Int("sidenotes", len(page.Sidenotes())))
	}

	return &Result{
		HTML:       []byte(out),
		Flags:      page.Flags(),
		TOC:        page.TOC(),
		Sidenotes:  page.Sidenotes(),
		Pagination: page.Pagination(),
		Report:     report,
	}, nil
}

// Close releases resources held by the diagram renderer, such as a
// headless Chrome browser.
func (e *Enhancer) Close() error {
	if c, ok := e.cfg.diagrams.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// steps builds the enabled enhancements in their fixed order.
func (e *Enhancer) steps() []pipeline.Enhancement {
	all := pipeline.Standard(e.cfg.zoomLib, e.cfg.zoomOpts, e.cfg.diagrams, e.cfg.log.Named("diagrams"))
	steps := make([]pipeline.Enhancement, 0, len(all))
	for _, s := range all {
		if !e.isDisabled(s.Name()) {
			steps = append(steps, s)
		}
	}
	return steps
}

func (e *Enhancer) isDisabled(name string) bool {
	return slices.Contains(e.cfg.disabled, name)
}
