package pipeline

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
)

// ErrInvalidSelector is returned when a configured selector does not parse.
var ErrInvalidSelector = errors.New("invalid selector")

// Body classes written when a page-level feature is present.
const (
	ClassHasTOC       = "has-toc"
	ClassHasSidenotes = "has-sidenotes"
)

// Selectors names the markup the enhancements attach to.
// Empty fields fall back to DefaultSelectors.
type Selectors struct {
	TOCMountID      string // id of the element hosting the TOC
	ArticleRoot     string // scan boundary for headings and images
	Footnotes       string // footnotes section
	FootnoteRef     string // class of inline reference anchors
	FootnoteBackref string // class of back-reference links inside definitions
	Paginator       string // pagination container
	PaginatorLink   string // class of prev/next anchors inside the paginator
	BackToTopID     string // id of the back-to-top control
	DiagramCode     string // code blocks rendered as diagrams
}

// DefaultSelectors returns the markup contract of the stock theme.
func DefaultSelectors() Selectors {
	return Selectors{
		TOCMountID:      "left-toc",
		ArticleRoot:     "#main.post article.content",
		Footnotes:       "section.footnotes",
		FootnoteRef:     "footnote-ref",
		FootnoteBackref: "footnote-backref",
		Paginator:       ".paginator",
		PaginatorLink:   "link",
		BackToTopID:     "back-to-top",
		DiagramCode:     "pre > code.language-mermaid",
	}
}

// withDefaults fills empty fields from DefaultSelectors.
func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	fill(&s.TOCMountID, d.TOCMountID)
	fill(&s.ArticleRoot, d.ArticleRoot)
	fill(&s.Footnotes, d.Footnotes)
	fill(&s.FootnoteRef, d.FootnoteRef)
	fill(&s.FootnoteBackref, d.FootnoteBackref)
	fill(&s.Paginator, d.Paginator)
	fill(&s.PaginatorLink, d.PaginatorLink)
	fill(&s.BackToTopID, d.BackToTopID)
	fill(&s.DiagramCode, d.DiagramCode)
	return s
}

// compiledSelectors holds the parsed form of Selectors.
type compiledSelectors struct {
	raw          Selectors
	articleRoot  cascadia.Selector
	footnotes    cascadia.Selector
	footnoteRefs cascadia.Selector // a.<FootnoteRef>[href^="#fn:"]
	backrefs     cascadia.Selector // .<FootnoteBackref>
	paginator    cascadia.Selector
	diagramCode  cascadia.Selector
}

// compile validates the selectors and returns their parsed form.
func (s Selectors) compile() (compiledSelectors, error) {
	s = s.withDefaults()
	c := compiledSelectors{raw: s}

	for _, f := range []struct {
		dst   *cascadia.Selector
		field string
		sel   string
	}{
		{&c.articleRoot, "articleRoot", s.ArticleRoot},
		{&c.footnotes, "footnotes", s.Footnotes},
		{&c.footnoteRefs, "footnoteRef", "a." + s.FootnoteRef + `[href^="#` + footnoteIDPrefix + `"]`},
		{&c.backrefs, "footnoteBackref", "." + s.FootnoteBackref},
		{&c.paginator, "paginator", s.Paginator},
		{&c.diagramCode, "diagramCode", s.DiagramCode},
	} {
		compiled, err := cascadia.Compile(f.sel)
		if err != nil {
			return c, fmt.Errorf("%w: selectors.%s %q: %v", ErrInvalidSelector, f.field, f.sel, err)
		}
		*f.dst = compiled
	}
	return c, nil
}

// Validate reports whether every selector parses.
func (s Selectors) Validate() error {
	_, err := s.compile()
	return err
}

// Flags are the page-level presentational signals. Each is written by
// exactly one enhancement and only ever flips from false to true.
type Flags struct {
	HasTOC       bool
	HasSidenotes bool
}

// Page is the parsed document plus everything an enhancement may need.
type Page struct {
	Doc     *html.Node
	BaseURL *url.URL // optional, used to resolve pagination links

	sel       compiledSelectors
	flags     Flags
	toc       []HeadingRecord
	sidenotes []SidenoteUnit
	nav       PaginationLinks
	log       *zap.Logger
}

// NewPage wraps a parsed document. A nil logger is replaced by a no-op one.
func NewPage(doc *html.Node, sel Selectors, log *zap.Logger) (*Page, error) {
	if doc == nil {
		return nil, dom.ErrNilNode
	}
	cs, err := sel.compile()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Page{Doc: doc, sel: cs, log: log}, nil
}

// Flags returns a copy of the current page flags.
func (p *Page) Flags() Flags { return p.flags }

// TOC returns the navigation list mounted on the page, if any.
func (p *Page) TOC() []HeadingRecord { return p.toc }

// Sidenotes returns the side annotation units written into the page.
func (p *Page) Sidenotes() []SidenoteUnit { return p.sidenotes }

// Pagination returns the previous/next targets found on the page.
func (p *Page) Pagination() PaginationLinks { return p.nav }

// Selectors returns the effective selectors.
func (p *Page) Selectors() Selectors { return p.sel.raw }

// Body returns the body element, or nil for bodiless fragments.
func (p *Page) Body() *html.Node { return dom.Body(p.Doc) }

// ArticleRoot returns the article scan boundary, or nil.
func (p *Page) ArticleRoot() *html.Node { return cascadia.Query(p.Doc, p.sel.articleRoot) }

// TOCMount returns the TOC host element, or nil.
func (p *Page) TOCMount() *html.Node { return dom.ElementByID(p.Doc, p.sel.raw.TOCMountID) }

// markTOC sets the navigation flag and its body class.
func (p *Page) markTOC() {
	p.flags.HasTOC = true
	p.addBodyClass(ClassHasTOC)
}

// markSidenotes sets the side-annotation flag and its body class.
func (p *Page) markSidenotes() {
	p.flags.HasSidenotes = true
	p.addBodyClass(ClassHasSidenotes)
}

func (p *Page) addBodyClass(class string) {
	if body := p.Body(); body != nil {
		dom.AddClass(body, class)
	}
}

// setBodyData writes a data-* attribute on body. Returns false without a body.
func (p *Page) setBodyData(key, val string) bool {
	body := p.Body()
	if body == nil {
		return false
	}
	dom.SetAttr(body, "data-"+key, val)
	return true
}
