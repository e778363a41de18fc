package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
	"github.com/alnah/go-postrender/internal/theme"
)

// Diagram markup and body data keys.
const (
	ClassDiagram     = "mermaid"
	DataMermaidTheme = "mermaid-theme" // resolved theme, used when a property is unset
	DataMermaidVars  = "mermaid-vars"  // theme variable -> custom property
	DataMermaidCode  = "mermaid-code"  // selector of the blocks left for the browser
)

// DiagramBlock is a diagram container produced from a code block.
type DiagramBlock struct {
	Node   *html.Node // div.mermaid now standing in the document
	Source string
}

// DiagramRenderer is the diagram rendering capability of the page.
type DiagramRenderer interface {
	// Available reports whether diagrams can be rendered for doc.
	Available(doc *html.Node) bool
	// Render lays out blocks. Failures are reported but never fatal.
	Render(ctx context.Context, p *Page, blocks []DiagramBlock, th theme.Theme) error
}

// NoDiagrams is the DiagramRenderer of pages without a diagram library.
type NoDiagrams struct{}

// Available implements DiagramRenderer.
func (NoDiagrams) Available(*html.Node) bool { return false }

// Render implements DiagramRenderer.
func (NoDiagrams) Render(context.Context, *Page, []DiagramBlock, theme.Theme) error { return nil }

// ClientRenderer is a DiagramRenderer whose library runs in the reader's
// browser. DiagramRendering leaves the code blocks in place and publishes
// what the runtime script needs to convert them once the library has loaded.
type ClientRenderer interface {
	DiagramRenderer
	Publish(p *Page, codeSelector string, th theme.Theme) error
}

// MermaidScript lets the page's own mermaid script render in the browser.
// Whether mermaid is loaded is only known there, so the runtime script checks
// for it before converting any block.
type MermaidScript struct{}

// Available implements DiagramRenderer.
func (MermaidScript) Available(*html.Node) bool { return true }

// Render publishes the theme for blocks that are already converted.
func (m MermaidScript) Render(_ context.Context, p *Page, _ []DiagramBlock, th theme.Theme) error {
	return m.Publish(p, "", th)
}

// Publish writes the theme, the custom properties it comes from and the
// block selector on body. An empty selector publishes only the theme.
func (MermaidScript) Publish(p *Page, codeSelector string, th theme.Theme) error {
	data, err := json.Marshal(th)
	if err != nil {
		return fmt.Errorf("encoding diagram theme: %w", err)
	}
	props, err := json.Marshal(theme.Properties())
	if err != nil {
		return fmt.Errorf("encoding diagram properties: %w", err)
	}
	if !p.setBodyData(DataMermaidTheme, string(data)) {
		return fmt.Errorf("diagram theme: %w", dom.ErrNilNode)
	}
	p.setBodyData(DataMermaidVars, string(props))
	if codeSelector != "" {
		p.setBodyData(DataMermaidCode, codeSelector)
	}
	return nil
}

// DiagramRendering turns diagram code blocks into renderer-owned containers.
type DiagramRendering struct {
	renderer DiagramRenderer
	themes   *theme.Reader
}

// NewDiagramRendering creates a DiagramRendering. A nil renderer means NoDiagrams.
func NewDiagramRendering(renderer DiagramRenderer, log *zap.Logger) *DiagramRendering {
	if renderer == nil {
		renderer = NoDiagrams{}
	}
	return &DiagramRendering{renderer: renderer, themes: theme.NewReader(log)}
}

// Name implements Enhancement.
func (d *DiagramRendering) Name() string { return StepDiagrams }

// Apply converts the code blocks and hands them to the renderer. A client
// renderer gets the blocks untouched plus the published theme. Without a
// renderer the blocks stay as they are.
func (d *DiagramRendering) Apply(ctx context.Context, p *Page) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	codes := cascadia.QueryAll(p.Doc, p.sel.diagramCode)
	if len(codes) == 0 {
		return false, nil
	}

	if c, ok := d.renderer.(ClientRenderer); ok {
		th := theme.Resolve(d.themes.FromDocument(p.Doc))
		if err := c.Publish(p, p.sel.raw.DiagramCode, th); err != nil {
			p.log.Warn("diagram theme not published", zap.Error(err))
			return false, nil
		}
		return true, nil
	}
	if !d.renderer.Available(p.Doc) {
		return false, nil
	}

	blocks := make([]DiagramBlock, 0, len(codes))
	for _, code := range codes {
		pre := code.Parent
		if pre == nil || pre.Type != html.ElementNode {
			continue
		}
		src := dom.TextContent(code)
		div := dom.Element("div", "class", ClassDiagram)
		div.AppendChild(dom.Text(src))
		if err := dom.ReplaceWith(pre, div); err != nil {
			continue
		}
		blocks = append(blocks, DiagramBlock{Node: div, Source: src})
	}
	if len(blocks) == 0 {
		return false, nil
	}

	th := theme.Resolve(d.themes.FromDocument(p.Doc))
	d.render(ctx, p, blocks, th)
	return true, nil
}

// render calls the renderer and swallows whatever goes wrong inside it.
func (d *DiagramRendering) render(ctx context.Context, p *Page, blocks []DiagramBlock, th theme.Theme) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("diagram renderer panicked", zap.Any("panic", r))
		}
	}()
	if err := d.renderer.Render(ctx, p, blocks, th); err != nil {
		p.log.Warn("diagram rendering failed", zap.Int("blocks", len(blocks)), zap.Error(err))
	}
}
