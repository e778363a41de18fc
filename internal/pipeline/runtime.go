package pipeline

import (
	"context"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
)

// AttrRuntime marks the injected runtime nodes.
const AttrRuntime = "data-postrender-runtime"

// RuntimeInjection adds the runtime style and script that bring the
// enhanced markup to life in the browser. It injects at most once per page.
type RuntimeInjection struct {
	Style  string
	Script string
}

// NewRuntimeInjection creates a RuntimeInjection.
func NewRuntimeInjection(style, script string) *RuntimeInjection {
	return &RuntimeInjection{Style: style, Script: script}
}

// Name implements Enhancement.
func (r *RuntimeInjection) Name() string { return StepRuntime }

// Apply inserts the style into head and the script at the end of body.
// Without head the style goes first in body, and without body both go
// to the document itself.
func (r *RuntimeInjection) Apply(ctx context.Context, p *Page) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if r.Style == "" && r.Script == "" {
		return false, nil
	}
	if HasRuntime(p.Doc) {
		return false, nil
	}

	body := p.Body()
	if r.Style != "" {
		style := rawElement("style", sanitizeCSS(r.Style))
		switch head := dom.Head(p.Doc); {
		case head != nil:
			head.AppendChild(style)
		case body != nil:
			body.InsertBefore(style, body.FirstChild)
		default:
			p.Doc.InsertBefore(style, p.Doc.FirstChild)
		}
	}
	if r.Script != "" {
		script := rawElement("script", sanitizeScript(r.Script))
		if body != nil {
			body.AppendChild(script)
		} else {
			p.Doc.AppendChild(script)
		}
	}
	return true, nil
}

// HasRuntime reports whether doc already carries the runtime.
func HasRuntime(doc *html.Node) bool {
	return dom.First(doc, func(n *html.Node) bool {
		_, ok := dom.Attr(n, AttrRuntime)
		return n.Type == html.ElementNode && ok
	}) != nil
}

func rawElement(tag, content string) *html.Node {
	n := dom.Element(tag, AttrRuntime, "")
	n.AppendChild(dom.Text(content))
	return n
}

// sanitizeCSS escapes sequences that could break out of a <style> block.
func sanitizeCSS(css string) string {
	return strings.ReplaceAll(css, "</", `<\/`)
}

// sanitizeScript escapes sequences that could break out of a <script> block.
func sanitizeScript(js string) string {
	js = strings.ReplaceAll(js, "</", `<\/`)
	return strings.ReplaceAll(js, "<!--", `<\!--`)
}
