package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/andybalholm/cascadia"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/alnah/go-postrender/internal/dom"
)

const fixtureMarkdown = `Opening paragraph with a note.[^1]

## Getting Started

Some text, and a second note.[^symbol]

### Install the CLI

![diagram](arch.png)

` + "```mermaid" + `
graph LR
  A --> B
` + "```" + `

## Wrapping Up

Done.

[^1]: First note.
[^symbol]: Second note with *emphasis*.
`

// renderFixture turns Markdown into a page laid out like a static site theme.
func renderFixture(t *testing.T, md string) string {
	t.Helper()

	conv := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Footnote),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	var buf bytes.Buffer
	if err := conv.Convert([]byte(md), &buf); err != nil {
		t.Fatalf("goldmark Convert() error = %v", err)
	}

	// the libraries come from a bundle, so no script src names them
	return `<!DOCTYPE html><html><head><title>Fixture</title>` +
		`<link rel="stylesheet" href="/css/main.css">` +
		`<script src="/js/bundle.min.js"></script></head><body>` +
		`<aside id="left-toc"></aside>` +
		`<main id="main" class="post"><article class="content">` + buf.String() + `</article></main>` +
		`<nav class="paginator"><a class="link" href="#">Prev</a><a class="link" href="/posts/next/">Next</a></nav>` +
		`<a id="back-to-top" href="#">Top</a>` +
		`</body></html>`
}

func TestStandardPipeline_GoldmarkArticle(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument(renderFixture(t, fixtureMarkdown))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	// goldmark wraps its footnotes in a div rather than a section
	p, err := NewPage(doc.Root, Selectors{Footnotes: "div.footnotes"}, nil)
	if err != nil {
		t.Fatalf("NewPage() error = %v", err)
	}

	r := NewRunner(nil, Standard(MediumZoom{}, DefaultZoomOptions(), MermaidScript{}, nil)...).
		Finally(NewRuntimeInjection("/* style */", "/* script */"))
	report, err := r.Run(context.Background(), p)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Err() != nil {
		t.Fatalf("report errors = %v", report.Err())
	}
	for _, name := range append(StepNames(), StepRuntime) {
		if !report.Applied(name) {
			t.Errorf("%s not applied", name)
		}
	}

	toc := p.TOC()
	wantTOC := []HeadingRecord{
		{Level: 2, AnchorID: "getting-started", DisplayText: "Getting Started"},
		{Level: 3, AnchorID: "install-the-cli", DisplayText: "Install the CLI"},
		{Level: 2, AnchorID: "wrapping-up", DisplayText: "Wrapping Up"},
	}
	if len(toc) != len(wantTOC) {
		t.Fatalf("TOC() = %+v, want %+v", toc, wantTOC)
	}
	for i := range toc {
		if toc[i] != wantTOC[i] {
			t.Errorf("TOC()[%d] = %+v, want %+v", i, toc[i], wantTOC[i])
		}
	}

	units := p.Sidenotes()
	if len(units) != 2 {
		t.Fatalf("Sidenotes() = %+v, want 2 units", units)
	}
	if units[0].ToggleID != "sn1" || units[1].ToggleID != "sn2" {
		t.Errorf("toggle ids = %q, %q, want sn1, sn2", units[0].ToggleID, units[1].ToggleID)
	}
	if units[1].BodyHTML != `<span class="sidenote-p">Second note with <em>emphasis</em>.</span>` {
		t.Errorf("second unit body = %q", units[1].BodyHTML)
	}

	if got := p.Flags(); !got.HasTOC || !got.HasSidenotes {
		t.Errorf("Flags() = %+v, want both set", got)
	}

	out, err := doc.Render()
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	for _, want := range []string{
		`class="has-toc has-sidenotes"`,
		`data-nav-next="/posts/next/"`,
		`data-zoom-margin="24"`,
		`data-mermaid-theme=`,
		`data-mermaid-vars=`,
		`data-mermaid-code=`,
		`<code class="language-mermaid">graph LR`,
		`data-zoomable=""`,
		`data-postrender="back-to-top"`,
		`<style data-postrender-runtime="">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q", want)
		}
	}
	if strings.Contains(out, "data-nav-prev") {
		t.Error("placeholder previous link published")
	}
	if strings.Contains(out, `class="footnote-ref"`) {
		t.Error("footnote references left in the article")
	}
	if dom.ElementByID(doc.Root, "fnref:1") != nil {
		t.Error("reference wrapper still present")
	}

	// a browser reading the output sees each panel filled, inside its paragraph
	reparsed, err := ParseDocument(out)
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	panels := cascadia.QueryAll(reparsed.Root, cascadia.MustCompile("p > span.sidenote"))
	if len(panels) != len(units) {
		t.Fatalf("reparsed page has %d panels inside paragraphs, want %d", len(panels), len(units))
	}
	for i, panel := range panels {
		if got, _ := dom.InnerHTML(panel); got != units[i].BodyHTML {
			t.Errorf("reparsed panel %d = %q, want %q", i, got, units[i].BodyHTML)
		}
	}
}
