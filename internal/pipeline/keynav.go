package pipeline

import (
	"context"
	"net/url"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
)

// Body data keys carrying the pagination targets to the runtime script.
const (
	DataNavPrev = "nav-prev"
	DataNavNext = "nav-next"
)

// placeholderHref marks a pagination slot with nowhere to go.
const placeholderHref = "#"

// Keys handled by KeyNavigator.
const (
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
)

// PaginationLinks are the resolved previous and next targets.
// An empty string means the direction has no target.
type PaginationLinks struct {
	Prev string
	Next string
}

// IsZero reports whether neither direction has a target.
func (l PaginationLinks) IsZero() bool { return l.Prev == "" && l.Next == "" }

// FindPagination reads the paginator links. The first link is the previous
// page and the last one the next page. found is false without a paginator.
func FindPagination(doc *html.Node, paginator *html.Node, linkClass string, base *url.URL) (links PaginationLinks, found bool) {
	if paginator == nil {
		return PaginationLinks{}, false
	}
	anchors := dom.FindAll(paginator, func(n *html.Node) bool {
		return dom.IsElement(n, "a") && dom.HasClass(n, linkClass)
	})
	if len(anchors) == 0 {
		return PaginationLinks{}, true
	}
	base = documentBase(doc, base)
	return PaginationLinks{
		Prev: resolveHref(anchors[0], base),
		Next: resolveHref(anchors[len(anchors)-1], base),
	}, true
}

// documentBase applies a <base href> element on top of base.
func documentBase(doc *html.Node, base *url.URL) *url.URL {
	el := dom.First(doc, func(n *html.Node) bool {
		_, ok := dom.Attr(n, "href")
		return dom.IsElement(n, "base") && ok
	})
	if el == nil {
		return base
	}
	u, err := url.Parse(strings.TrimSpace(dom.AttrOr(el, "href", "")))
	if err != nil {
		return base
	}
	if base == nil {
		return u
	}
	return base.ResolveReference(u)
}

// resolveHref returns the navigation target of a, or "" for a missing
// href, the placeholder, or an unparsable one.
func resolveHref(a *html.Node, base *url.URL) string {
	href, ok := dom.Attr(a, "href")
	href = strings.TrimSpace(href)
	if !ok || href == "" || href == placeholderHref {
		return ""
	}
	if base == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// KeyEvent is the subset of a key press the navigator needs.
type KeyEvent struct {
	Key             string
	TargetTag       string // upper-case tag name of the focused element
	ContentEditable bool
}

// typing reports whether the key press belongs to a text field.
func (e KeyEvent) typing() bool {
	switch strings.ToUpper(e.TargetTag) {
	case "INPUT", "TEXTAREA":
		return true
	}
	return e.ContentEditable
}

// KeyNavigator decides where an arrow key press leads. It models the
// long-lived key listener installed by KeyboardNav and keeps no state
// between presses.
type KeyNavigator struct {
	links PaginationLinks
}

// NewKeyNavigator creates a navigator over the given targets.
func NewKeyNavigator(links PaginationLinks) *KeyNavigator {
	return &KeyNavigator{links: links}
}

// HandleKey returns the URL to navigate to, if any.
func (k *KeyNavigator) HandleKey(ev KeyEvent) (string, bool) {
	if ev.typing() {
		return "", false
	}
	var target string
	switch ev.Key {
	case KeyArrowLeft:
		target = k.links.Prev
	case KeyArrowRight:
		target = k.links.Next
	}
	return target, target != ""
}

// KeyboardNav publishes the pagination targets for arrow-key navigation.
type KeyboardNav struct{}

// NewKeyboardNav creates a KeyboardNav.
func NewKeyboardNav() *KeyboardNav { return &KeyboardNav{} }

// Name implements Enhancement.
func (k *KeyboardNav) Name() string { return StepKeyboardNav }

// Apply writes the resolved targets on body. A paginator holding only
// placeholder links is left alone.
func (k *KeyboardNav) Apply(ctx context.Context, p *Page) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	links, found := FindPagination(p.Doc, cascadia.Query(p.Doc, p.sel.paginator), p.sel.raw.PaginatorLink, p.BaseURL)
	if !found {
		return false, nil
	}
	if links.IsZero() {
		p.log.Debug("paginator has no targets")
		return false, nil
	}
	if p.Body() == nil {
		return false, nil
	}
	if links.Prev != "" {
		p.setBodyData(DataNavPrev, links.Prev)
	}
	if links.Next != "" {
		p.setBodyData(DataNavNext, links.Next)
	}
	p.nav = links
	p.log.Debug("pagination targets", zap.String("prev", links.Prev), zap.String("next", links.Next))
	return true, nil
}

// Navigator returns the key handler for the pagination found on p.
func (k *KeyboardNav) Navigator(p *Page) *KeyNavigator {
	return NewKeyNavigator(p.Pagination())
}
