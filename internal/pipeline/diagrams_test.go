package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
	"github.com/alnah/go-postrender/internal/theme"
)

// recordingRenderer captures what DiagramRendering hands over.
type recordingRenderer struct {
	available bool
	err       error
	panicVal  any
	blocks    []DiagramBlock
	theme     theme.Theme
}

func (r *recordingRenderer) Available(*html.Node) bool { return r.available }

func (r *recordingRenderer) Render(_ context.Context, _ *Page, blocks []DiagramBlock, th theme.Theme) error {
	if r.panicVal != nil {
		panic(r.panicVal)
	}
	r.blocks = blocks
	r.theme = th
	return r.err
}

func TestDiagramRendering_ConvertsBlocks(t *testing.T) {
	t.Parallel()

	article := `<pre><code class="language-mermaid">graph TD
  A --&gt; B</code></pre>` +
		`<pre><code class="language-go">package x</code></pre>` +
		`<code class="language-mermaid">inline stays</code>`
	p := newTestPage(t, articlePage("", article, ""))

	r := &recordingRenderer{available: true}
	applied, err := NewDiagramRendering(r, nil).Apply(context.Background(), p)
	if err != nil || !applied {
		t.Fatalf("Apply() = %v, %v, want true, nil", applied, err)
	}

	if len(r.blocks) != 1 {
		t.Fatalf("renderer got %d blocks, want 1", len(r.blocks))
	}
	if r.blocks[0].Source != "graph TD\n  A --> B" {
		t.Errorf("Source = %q", r.blocks[0].Source)
	}
	if !dom.HasClass(r.blocks[0].Node, ClassDiagram) || r.blocks[0].Node.Parent == nil {
		t.Error("block node is not an attached div.mermaid")
	}

	out := renderPage(t, p)
	if strings.Contains(out, "language-mermaid\">graph") {
		t.Error("mermaid pre block still present")
	}
	if !strings.Contains(out, `<pre><code class="language-go">`) {
		t.Error("non-diagram code block changed")
	}
	if !strings.Contains(out, `<code class="language-mermaid">inline stays</code>`) {
		t.Error("code outside pre changed")
	}
	if r.theme != theme.Default() {
		t.Errorf("theme = %+v, want defaults for a page without variables", r.theme)
	}
}

func TestDiagramRendering_RendererUnavailable(t *testing.T) {
	t.Parallel()

	p := newTestPage(t, articlePage("", `<pre><code class="language-mermaid">graph</code></pre>`, ""))
	before := renderPage(t, p)

	for _, r := range []DiagramRenderer{nil, NoDiagrams{}, &recordingRenderer{}} {
		applied, err := NewDiagramRendering(r, nil).Apply(context.Background(), p)
		if applied || err != nil {
			t.Errorf("Apply(%T) = %v, %v, want false, nil", r, applied, err)
		}
	}
	if after := renderPage(t, p); after != before {
		t.Error("blocks converted without a renderer")
	}
}

func TestDiagramRendering_NoBlocks(t *testing.T) {
	t.Parallel()

	p := newTestPage(t, articlePage("", `<p>none</p>`, ""))
	applied, err := NewDiagramRendering(MermaidScript{}, nil).Apply(context.Background(), p)
	if applied || err != nil {
		t.Errorf("Apply() = %v, %v, want false, nil", applied, err)
	}
	if _, ok := dom.Attr(p.Body(), "data-"+DataMermaidTheme); ok {
		t.Error("theme published without diagrams")
	}
}

func TestDiagramRendering_SuppressesRendererFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		r    *recordingRenderer
	}{
		{name: "error", r: &recordingRenderer{available: true, err: errors.New("parse error on line 1")}},
		{name: "panic", r: &recordingRenderer{available: true, panicVal: "boom"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := newTestPage(t, articlePage("", `<pre><code class="language-mermaid">graph</code></pre>`, ""))
			applied, err := NewDiagramRendering(tt.r, nil).Apply(context.Background(), p)
			if err != nil {
				t.Errorf("Apply() error = %v, want suppressed", err)
			}
			if !applied {
				t.Error("blocks were converted, applied should be true")
			}
			if !strings.Contains(renderPage(t, p), `<div class="mermaid">graph</div>`) {
				t.Error("converted block missing after renderer failure")
			}
		})
	}
}

func TestMermaidScript_PublishesTheme(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html><html><head><style>:root { --accent: #123456; --bg: #fdfdfd; }</style>` +
		`<script src="/js/bundle.min.js"></script></head><body><main id="main" class="post"><article class="content">` +
		`<pre><code class="language-mermaid">graph</code></pre></article></main></body></html>`
	p := newTestPage(t, page)

	applied, err := NewDiagramRendering(MermaidScript{}, nil).Apply(context.Background(), p)
	if err != nil || !applied {
		t.Fatalf("Apply() = %v, %v, want true, nil", applied, err)
	}

	raw, ok := dom.Attr(p.Body(), "data-"+DataMermaidTheme)
	if !ok {
		t.Fatal("data-mermaid-theme not written")
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("theme is not JSON: %v", err)
	}
	want := map[string]string{
		"primaryBorderColor": "#123456",
		"background":         "#fdfdfd",
		"primaryColor":       "#E6D4C3",
		"fontFamily":         "sans-serif",
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("themeVariables[%q] = %q, want %q", k, got[k], v)
		}
	}

	// the browser reads live custom properties first
	var vars map[string]string
	if err := json.Unmarshal([]byte(dom.AttrOr(p.Body(), "data-"+DataMermaidVars, "")), &vars); err != nil {
		t.Fatalf("data-mermaid-vars is not JSON: %v", err)
	}
	if vars["primaryBorderColor"] != "--accent" || vars["background"] != "--bg" {
		t.Errorf("data-mermaid-vars = %v", vars)
	}
	if got := dom.AttrOr(p.Body(), "data-"+DataMermaidCode, ""); got != DefaultSelectors().DiagramCode {
		t.Errorf("data-mermaid-code = %q, want %q", got, DefaultSelectors().DiagramCode)
	}

	// conversion waits until the browser knows mermaid is there
	out := renderPage(t, p)
	if !strings.Contains(out, `<pre><code class="language-mermaid">graph</code></pre>`) {
		t.Error("code block converted before the browser checked for mermaid")
	}
	if strings.Contains(out, `class="mermaid"`) {
		t.Error("diagram container written server side")
	}
}

func TestMermaidScript_Render(t *testing.T) {
	t.Parallel()

	p := newTestPage(t, articlePage("", "", ""))
	if err := (MermaidScript{}).Render(context.Background(), p, nil, theme.Default()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if _, ok := dom.Attr(p.Body(), "data-"+DataMermaidTheme); !ok {
		t.Error("data-mermaid-theme not written")
	}
	if _, ok := dom.Attr(p.Body(), "data-"+DataMermaidCode); ok {
		t.Error("block selector written without one")
	}

	bodyless := &Page{Doc: &html.Node{Type: html.DocumentNode}}
	if err := (MermaidScript{}).Publish(bodyless, "", theme.Default()); !errors.Is(err, dom.ErrNilNode) {
		t.Errorf("Publish() without body error = %v, want ErrNilNode", err)
	}
}
