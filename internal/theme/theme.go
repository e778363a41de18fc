// Package theme reads the site color palette from CSS custom properties
// and maps it onto diagram theme variables.
package theme

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
)

// Theme holds the diagram theme variables. JSON names follow the
// themeVariables keys understood by mermaid.
type Theme struct {
	FontFamily         string `json:"fontFamily"`
	PrimaryColor       string `json:"primaryColor"`
	PrimaryTextColor   string `json:"primaryTextColor"`
	PrimaryBorderColor string `json:"primaryBorderColor"`
	LineColor          string `json:"lineColor"`
	Background         string `json:"background"`
	MainBkg            string `json:"mainBkg"`
	TextColor          string `json:"textColor"`
}

// binding ties a theme field to the custom property it is read from.
type binding struct {
	key      string // JSON name of the field
	field    func(*Theme) *string
	property string
	fallback string
}

var bindings = []binding{
	{"fontFamily", func(t *Theme) *string { return &t.FontFamily }, "--font-sans", "sans-serif"},
	{"primaryColor", func(t *Theme) *string { return &t.PrimaryColor }, "--accent2", "#E6D4C3"},
	{"primaryTextColor", func(t *Theme) *string { return &t.PrimaryTextColor }, "--fg1", "#000000"},
	{"primaryBorderColor", func(t *Theme) *string { return &t.PrimaryBorderColor }, "--accent", "#FF9101"},
	{"lineColor", func(t *Theme) *string { return &t.LineColor }, "--fg-muted", "#8a8a8a"},
	{"background", func(t *Theme) *string { return &t.Background }, "--bg", "#ffffff"},
	{"mainBkg", func(t *Theme) *string { return &t.MainBkg }, "--bg_code", "#f3f3f2"},
	{"textColor", func(t *Theme) *string { return &t.TextColor }, "--fg1", "#000000"},
}

// Properties maps each theme variable to the custom property it is read
// from, so a browser can resolve the computed value itself.
func Properties() map[string]string {
	props := make(map[string]string, len(bindings))
	for _, b := range bindings {
		props[b.key] = b.property
	}
	return props
}

// Default returns the theme used when no variable is declared.
func Default() Theme {
	return Resolve(nil)
}

// Variables maps custom property names ("--accent") to their raw values.
type Variables map[string]string

// Get returns the trimmed value of name, or fallback when it is unset or empty.
func (v Variables) Get(name, fallback string) string {
	if val := strings.TrimSpace(v[name]); val != "" {
		return val
	}
	return fallback
}

// Resolve builds a Theme from vars, falling back per variable.
func Resolve(vars Variables) Theme {
	var t Theme
	for _, b := range bindings {
		*b.field(&t) = vars.Get(b.property, b.fallback)
	}
	return t
}

// Reader extracts custom properties declared on the document root.
type Reader struct {
	log *zap.Logger
}

// NewReader creates a Reader. A nil logger is replaced by a no-op one.
func NewReader(log *zap.Logger) *Reader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Reader{log: log.Named("theme")}
}

// FromDocument collects the root custom properties of every <style> block
// in document order, then those of the html element's style attribute.
// Later declarations override earlier ones.
func (r *Reader) FromDocument(doc *html.Node) Variables {
	vars := make(Variables)
	var inline Variables
	dom.Walk(doc, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch n.Data {
		case "style":
			r.merge(vars, r.Stylesheet([]byte(dom.TextContent(n))))
			return false
		case "html":
			if style, ok := dom.Attr(n, "style"); ok {
				inline = r.Inline([]byte(style))
			}
		}
		return true
	})
	r.merge(vars, inline)
	return vars
}

func (r *Reader) merge(dst, src Variables) {
	for k, v := range src {
		dst[k] = v
	}
}

// Stylesheet returns the custom properties declared in :root or html rules.
// At-rule blocks such as @media are skipped.
func (r *Reader) Stylesheet(data []byte) Variables {
	vars := make(Variables)
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)

	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				r.log.Debug("CSS parse error", zap.Error(err))
			}
			return vars
		case css.BeginAtRuleGrammar:
			r.skipBlock(parser)
		case css.BeginRulesetGrammar:
			root := targetsRoot(data, parser.Values())
			r.declarations(parser, vars, root)
		}
	}
}

// Inline returns the custom properties of a style attribute value.
func (r *Reader) Inline(data []byte) Variables {
	vars := make(Variables)
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), true)
	r.declarations(parser, vars, true)
	return vars
}

// declarations consumes a declaration list, storing custom properties when keep is set.
func (r *Reader) declarations(parser *css.Parser, vars Variables, keep bool) {
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar, css.EndRulesetGrammar:
			return
		case css.CustomPropertyGrammar:
			if !keep {
				continue
			}
			var sb strings.Builder
			for _, v := range parser.Values() {
				sb.Write(v.Data)
			}
			vars[string(data)] = strings.TrimSpace(sb.String())
		}
	}
}

func (r *Reader) skipBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			return
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// targetsRoot reports whether a selector group names :root or html.
func targetsRoot(data []byte, values []css.Token) bool {
	var sb strings.Builder
	sb.Write(data)
	for _, v := range values {
		sb.Write(v.Data)
	}
	for sel := range strings.SplitSeq(sb.String(), ",") {
		switch strings.ToLower(strings.TrimSpace(sel)) {
		case ":root", "html":
			return true
		}
	}
	return false
}
