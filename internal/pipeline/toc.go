package pipeline

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
)

// minTOCHeadings is the smallest outline worth rendering.
const minTOCHeadings = 2

// HeadingRecord is one entry of the navigation list.
type HeadingRecord struct {
	Level       int    // 2 or 3
	AnchorID    string // document-unique id of the heading
	DisplayText string // normalized heading text
}

// Href returns the in-page navigation target.
func (h HeadingRecord) Href() string { return "#" + h.AnchorID }

// IndexHeadings returns the h2/h3 elements under article that carry a
// non-empty id, in document order.
func IndexHeadings(article *html.Node) []HeadingRecord {
	if article == nil {
		return nil
	}

	var headings []HeadingRecord
	dom.Walk(article, func(n *html.Node) bool {
		if n == article || n.Type != html.ElementNode {
			return true
		}
		var level int
		switch n.Data {
		case "h2":
			level = 2
		case "h3":
			level = 3
		default:
			return true
		}
		id, _ := dom.Attr(n, "id")
		if id == "" {
			return false
		}
		headings = append(headings, HeadingRecord{
			Level:       level,
			AnchorID:    id,
			DisplayText: NormalizeText(dom.TextContent(n)),
		})
		return false
	})
	return headings
}

// renderTOC builds the navigation list element.
func renderTOC(headings []HeadingRecord) *html.Node {
	list := dom.Element("ul", "class", "toc-list")
	for _, h := range headings {
		item := dom.Element("li", "class", "toc-item toc-level-"+strconv.Itoa(h.Level))
		link := dom.Element("a", "href", h.Href())
		link.AppendChild(dom.Text(h.DisplayText))
		item.AppendChild(link)
		list.AppendChild(item)
	}
	return list
}

// TOCBuilder mounts a table of contents built from the article headings.
type TOCBuilder struct{}

// NewTOCBuilder creates a TOCBuilder.
func NewTOCBuilder() *TOCBuilder {
	return &TOCBuilder{}
}

// Name implements Enhancement.
func (t *TOCBuilder) Name() string { return StepTOC }

// Apply replaces the mount point content with the navigation list.
// Missing mount point or article, or fewer than two headings, is a no-op.
func (t *TOCBuilder) Apply(ctx context.Context, p *Page) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	mount := p.TOCMount()
	article := p.ArticleRoot()
	if mount == nil || article == nil {
		p.log.Debug("toc anchors absent", zap.Bool("mount", mount != nil), zap.Bool("article", article != nil))
		return false, nil
	}

	headings := IndexHeadings(article)
	if len(headings) < minTOCHeadings {
		p.log.Debug("not enough headings for a toc", zap.Int("headings", len(headings)))
		return false, nil
	}

	list := renderTOC(headings)
	dom.RemoveChildren(mount)
	mount.AppendChild(list)

	p.toc = headings
	p.markTOC()
	p.log.Debug("toc mounted", zap.Int("entries", len(headings)))
	return true, nil
}
