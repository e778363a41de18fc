package postrender

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
	"github.com/alnah/go-postrender/internal/fileutil"
	"github.com/alnah/go-postrender/internal/process"
)

// AttrDiagramProcessed tells the client-side mermaid runtime to leave a
// prerendered container alone.
const AttrDiagramProcessed = "data-processed"

// diagramIDPrefix prefixes the ids mermaid uses for its temporary nodes.
const diagramIDPrefix = "postrender-diagram-"

// JavaScript run inside the rendering page.
const (
	initMermaidJS = `(vars) => mermaid.initialize({
		startOnLoad: false,
		securityLevel: "strict",
		theme: "base",
		themeVariables: vars,
	})`

	renderMermaidJS = `async (id, src) => (await mermaid.render(id, src)).svg`

	blankDocument = `<!DOCTYPE html><html><head><meta charset="utf-8"></head><body></body></html>`
)

// diagramResult is the outcome of rendering one diagram source.
type diagramResult struct {
	SVG string
	Err error
}

// diagramEngine turns diagram sources into SVG markup.
// Abstracted to test the renderer without a browser.
type diagramEngine interface {
	Start() error
	RenderSVG(ctx context.Context, th Theme, sources []string) ([]diagramResult, error)
	Close() error
}

// Compile-time interface checks
var _ diagramEngine = (*rodEngine)(nil)

// BrowserConfig configures a BrowserDiagramRenderer.
type BrowserConfig struct {
	MermaidScript string        // mermaid.js URL or local file, required
	Timeout       time.Duration // per page, defaults to 30s
	Logger        *zap.Logger
}

// BrowserDiagramRenderer prerenders diagrams to inline SVG in headless
// Chrome, so pages show them without running mermaid in the reader's browser.
// Blocks that fail to render stay as mermaid containers for the client.
// Not safe for concurrent use.
type BrowserDiagramRenderer struct {
	engine diagramEngine
	log    *zap.Logger
}

// NewBrowserDiagramRenderer creates a renderer. The browser starts lazily on
// first use; call Close to release it.
func NewBrowserDiagramRenderer(cfg BrowserConfig) (*BrowserDiagramRenderer, error) {
	if cfg.MermaidScript == "" {
		return nil, fmt.Errorf("%w: mermaid script is required", ErrDiagramRender)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	engine := &rodEngine{timeout: cfg.Timeout}
	if fileutil.IsURL(cfg.MermaidScript) {
		engine.scriptURL = cfg.MermaidScript
	} else {
		content, err := os.ReadFile(cfg.MermaidScript) // #nosec G304 -- user-provided path
		if err != nil {
			return nil, fmt.Errorf("reading mermaid script: %w", err)
		}
		engine.scriptContent = string(content)
	}

	return &BrowserDiagramRenderer{engine: engine, log: cfg.Logger.Named("browser")}, nil
}

// Available implements DiagramRenderer. The renderer brings its own mermaid.
func (r *BrowserDiagramRenderer) Available(*html.Node) bool { return true }

// Launch starts the browser now instead of on the first diagram.
// Returns ErrBrowserConnect when Chrome cannot be started.
func (r *BrowserDiagramRenderer) Launch() error {
	return r.engine.Start()
}

// Render replaces each block's source with the rendered SVG.
// Returns ErrDiagramRender only when no block could be rendered.
func (r *BrowserDiagramRenderer) Render(ctx context.Context, _ *Page, blocks []DiagramBlock, th Theme) error {
	if len(blocks) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sources := make([]string, len(blocks))
	for i, b := range blocks {
		sources[i] = b.Source
	}

	results, err := r.engine.RenderSVG(ctx, th, sources)
	if err != nil {
		return err
	}
	return r.apply(blocks, results)
}

// apply writes the rendered SVG into the blocks that succeeded.
func (r *BrowserDiagramRenderer) apply(blocks []DiagramBlock, results []diagramResult) error {
	var failed int
	for i, b := range blocks {
		if i >= len(results) {
			failed++
			continue
		}
		res := results[i]
		if res.Err == nil && res.SVG == "" {
			res.Err = errors.New("empty SVG")
		}
		if res.Err == nil {
			res.Err = dom.SetInnerHTML(b.Node, res.SVG)
		}
		if res.Err != nil {
			failed++
			r.log.Debug("diagram left for the client", zap.Int("block", i), zap.Error(res.Err))
			continue
		}
		dom.SetAttr(b.Node, AttrDiagramProcessed, "true")
	}

	if failed == len(blocks) {
		return fmt.Errorf("%w: none of %d diagrams rendered", ErrDiagramRender, len(blocks))
	}
	if failed > 0 {
		r.log.Debug("some diagrams not prerendered", zap.Int("failed", failed), zap.Int("total", len(blocks)))
	}
	return nil
}

// Close releases browser resources.
func (r *BrowserDiagramRenderer) Close() error {
	return r.engine.Close()
}

// rodEngine renders diagrams with go-rod.
// Rod automatically downloads Chromium on first run if not found.
type rodEngine struct {
	scriptURL     string
	scriptContent string
	timeout       time.Duration

	launcher *launcher.Launcher
	browser  *rod.Browser
}

// Start lazily launches and connects to the browser.
func (e *rodEngine) Start() error {
	if e.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("ROD_NO_SANDBOX") == "1" || os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}
	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		killLauncher(l)
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	e.launcher = l
	e.browser = browser
	return nil
}

// RenderSVG loads mermaid into a blank page and renders every source there.
// A failing source does not stop the others.
func (e *rodEngine) RenderSVG(ctx context.Context, th Theme, sources []string) ([]diagramResult, error) {
	if err := e.Start(); err != nil {
		return nil, err
	}

	page, err := e.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	defer page.Close()

	// Wait with timeout from context or default
	timeout := e.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	p := page.Context(ctx).Timeout(timeout)

	if err := p.SetDocumentContent(blankDocument); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if err := p.AddScriptTag(e.scriptURL, e.scriptContent); err != nil {
		return nil, fmt.Errorf("%w: loading mermaid: %v", ErrPageLoad, err)
	}
	if _, err := p.Eval(initMermaidJS, th); err != nil {
		return nil, fmt.Errorf("%w: initializing mermaid: %v", ErrDiagramRender, err)
	}

	results := make([]diagramResult, len(sources))
	for i, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		obj, err := p.Eval(renderMermaidJS, diagramIDPrefix+strconv.Itoa(i), src)
		if err != nil {
			results[i].Err = err
			continue
		}
		results[i].SVG = obj.Value.Str()
	}
	return results, nil
}

// Close releases browser resources.
func (e *rodEngine) Close() error {
	if e.browser == nil {
		return nil
	}
	err := e.browser.Close()
	killLauncher(e.launcher)
	e.browser = nil
	e.launcher = nil
	return err
}

// killLauncher makes sure no Chrome helper process outlives the engine.
func killLauncher(l *launcher.Launcher) {
	if l == nil {
		return
	}
	process.KillProcessGroup(l.PID())
	l.Kill()
}
