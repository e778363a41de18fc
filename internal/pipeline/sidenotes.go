package pipeline

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/andybalholm/cascadia"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-postrender/internal/dom"
)

const (
	footnoteIDPrefix = "fn:"
	sidenoteIDPrefix = "sn"
	fallbackLabel    = "*"
)

// footnoteItems matches the definitions inside a footnotes container.
var footnoteItems = cascadia.MustCompile(`ol > li[id^="` + footnoteIDPrefix + `"]`)

// FootnoteDefinition is one cleaned entry of the footnotes list.
type FootnoteDefinition struct {
	ID          string // "fn:<token>"
	ContentHTML string

	content *html.Node // cleaned clone, its children are the content
}

// Token returns the id without its "fn:" prefix.
func (d FootnoteDefinition) Token() string {
	return strings.TrimPrefix(d.ID, footnoteIDPrefix)
}

// SidenoteUnit describes one inline toggle and panel pair.
type SidenoteUnit struct {
	ToggleID string
	Label    string
	BodyHTML string
	TargetID string // definition the unit was built from
}

// CollectDefinitions returns the cleaned definitions of a footnotes container
// keyed by id. The first definition wins when ids repeat. Elements matching
// backrefs are dropped from the content.
func CollectDefinitions(container *html.Node, backrefs cascadia.Matcher) map[string]FootnoteDefinition {
	defs := make(map[string]FootnoteDefinition)
	if container == nil {
		return defs
	}

	for _, li := range cascadia.QueryAll(container, footnoteItems) {
		id := dom.AttrOr(li, "id", "")
		if _, seen := defs[id]; seen {
			continue
		}
		content := cleanDefinition(li, backrefs)
		inner, err := dom.InnerHTML(content)
		if err != nil {
			continue
		}
		defs[id] = FootnoteDefinition{ID: id, ContentHTML: inner, content: content}
	}
	return defs
}

var paragraphSelector = cascadia.MustCompile("p")

// cleanDefinition clones li, drops its back-reference links and trims the
// whitespace the links leave behind.
func cleanDefinition(li *html.Node, backrefs cascadia.Matcher) *html.Node {
	c := dom.Clone(li)
	if backrefs != nil {
		for _, a := range cascadia.QueryAll(c, backrefs) {
			dom.Remove(a)
		}
	}
	for _, p := range cascadia.QueryAll(c, paragraphSelector) {
		trimTrailingText(p)
	}
	trimTrailingText(c)
	trimLeadingText(c)
	return c
}

func trimTrailingText(n *html.Node) {
	for last := n.LastChild; last != nil && last.Type == html.TextNode; last = n.LastChild {
		last.Data = strings.TrimRightFunc(last.Data, unicode.IsSpace)
		if last.Data != "" {
			return
		}
		n.RemoveChild(last)
	}
}

func trimLeadingText(n *html.Node) {
	for first := n.FirstChild; first != nil && first.Type == html.TextNode; first = n.FirstChild {
		first.Data = strings.TrimLeftFunc(first.Data, unicode.IsSpace)
		if first.Data != "" {
			return
		}
		n.RemoveChild(first)
	}
}

// idRegistry hands out toggle ids that are unique within the page.
type idRegistry struct {
	taken map[string]bool
}

func newIDRegistry(doc *html.Node) *idRegistry {
	return &idRegistry{taken: dom.IDs(doc)}
}

// claim returns want if it is free, otherwise a variant derived from token.
func (r *idRegistry) claim(want, token string) string {
	id := want
	if r.taken[id] {
		s := slug.Make(token)
		if s == "" {
			s = "note"
		}
		id = sidenoteIDPrefix + "-" + s
		for i := 2; r.taken[id]; i++ {
			id = sidenoteIDPrefix + "-" + s + "-" + strconv.Itoa(i)
		}
	}
	r.taken[id] = true
	return id
}

// buildUnit creates the label, toggle and panel nodes of one sidenote.
func buildUnit(u SidenoteUnit, def FootnoteDefinition) []*html.Node {
	label := dom.Element("label",
		"for", u.ToggleID,
		"class", "sidenote-number",
		"tabindex", "0",
		"role", "button",
	)
	label.AppendChild(dom.Text(u.Label))

	toggle := dom.Element("input",
		"type", "checkbox",
		"id", u.ToggleID,
		"class", "margin-toggle",
	)

	panel := dom.Element("span", "class", "sidenote")
	dom.MoveChildren(panel, dom.Clone(def.content))
	phrasing(panel)

	return []*html.Node{label, toggle, panel}
}

// blockTags are the elements whose start tag closes an open <p>, plus the
// table parts that only parse inside a table.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"caption": true, "center": true, "col": true, "colgroup": true,
	"dd": true, "details": true, "dialog": true, "dir": true, "div": true,
	"dl": true, "dt": true, "fieldset": true, "figcaption": true, "figure": true,
	"footer": true, "form": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hgroup": true,
	"hr": true, "li": true, "listing": true, "main": true, "menu": true,
	"nav": true, "ol": true, "p": true, "pre": true, "section": true,
	"summary": true, "table": true, "tbody": true, "td": true, "tfoot": true,
	"th": true, "thead": true, "tr": true, "ul": true, "xmp": true,
}

// phrasing rewrites the block elements below panel as spans classed
// "sidenote-<tag>", so the panel can sit inside the reader's paragraph and
// parse back to the same tree. Sibling paragraphs are separated by <br>.
func phrasing(panel *html.Node) {
	for c := panel.FirstChild; c != nil; c = c.NextSibling {
		if dom.IsElement(c, "p") && dom.IsElement(previousElement(c), "p") {
			panel.InsertBefore(dom.Element("br"), c)
		}
	}
	dom.Walk(panel, func(n *html.Node) bool {
		if n != panel && n.Type == html.ElementNode && blockTags[n.Data] {
			dom.AddClass(n, "sidenote-"+n.Data)
			n.Data = "span"
			n.DataAtom = atom.Span
		}
		return true
	})
}

// previousElement returns the element before n, skipping blank text.
func previousElement(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		switch {
		case s.Type == html.ElementNode:
			return s
		case s.Type == html.TextNode && strings.TrimSpace(s.Data) == "":
			continue
		default:
			return nil
		}
	}
	return nil
}

// SidenoteTransformer rewrites footnote references into inline side notes.
type SidenoteTransformer struct{}

// NewSidenoteTransformer creates a SidenoteTransformer.
func NewSidenoteTransformer() *SidenoteTransformer {
	return &SidenoteTransformer{}
}

// Name implements Enhancement.
func (s *SidenoteTransformer) Name() string { return StepSidenotes }

// Apply replaces every resolvable reference wrapper with a sidenote unit.
// Unresolvable references are skipped and left as they were.
func (s *SidenoteTransformer) Apply(ctx context.Context, p *Page) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	container := cascadia.Query(p.Doc, p.sel.footnotes)
	if container == nil {
		p.log.Debug("no footnotes container")
		return false, nil
	}
	defs := CollectDefinitions(container, p.sel.backrefs)
	if len(defs) == 0 {
		p.log.Debug("footnotes container has no definitions")
		return false, nil
	}

	refs := cascadia.QueryAll(p.Doc, p.sel.footnoteRefs)
	if len(refs) == 0 {
		p.log.Debug("footnotes without inline references")
		return false, nil
	}

	ids := newIDRegistry(p.Doc)
	var units []SidenoteUnit
	for _, ref := range refs {
		href := dom.AttrOr(ref, "href", "")
		wrapper := dom.Closest(ref, "sup")
		if wrapper == nil {
			p.log.Debug("footnote reference outside sup", zap.String("href", href))
			continue
		}
		target := strings.TrimPrefix(href, "#")
		def, ok := defs[target]
		if !ok {
			p.log.Debug("dangling footnote reference", zap.String("href", href))
			continue
		}
		if def.ContentHTML == "" {
			p.log.Debug("empty footnote definition", zap.String("href", href))
			continue
		}

		text := strings.TrimSpace(dom.TextContent(ref))
		label, seed := text, text
		if text == "" {
			label, seed = fallbackLabel, def.Token()
		}

		unit := SidenoteUnit{
			ToggleID: ids.claim(sidenoteIDPrefix+seed, def.Token()),
			Label:    label,
			TargetID: def.ID,
		}
		nodes := buildUnit(unit, def)
		body, err := dom.InnerHTML(nodes[len(nodes)-1])
		if err != nil {
			p.log.Debug("sidenote not rendered", zap.String("href", href), zap.Error(err))
			continue
		}
		unit.BodyHTML = body
		if err := dom.ReplaceWith(wrapper, nodes...); err != nil {
			p.log.Debug("sidenote not placed", zap.String("href", href), zap.Error(err))
			continue
		}
		units = append(units, unit)
	}

	p.sidenotes = append(p.sidenotes, units...)
	p.markSidenotes()
	p.log.Debug("sidenotes placed", zap.Int("units", len(units)), zap.Int("references", len(refs)))
	return true, nil
}
