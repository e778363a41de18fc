// Package dom provides small tree helpers on top of golang.org/x/net/html.
//
// The enhancement pipeline works on a parsed snapshot of the page: every
// transform reads and rewrites *html.Node values, and the result is
// serialized once at the boundary.
package dom

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Sentinel errors for tree operations.
var (
	ErrNilNode   = errors.New("dom: nil node")
	ErrNoParent  = errors.New("dom: node has no parent")
	ErrParseHTML = errors.New("dom: failed to parse HTML")
)

// Parse parses a complete HTML document.
func Parse(r io.Reader) (*html.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseHTML, err)
	}
	return doc, nil
}

// ParseString parses a complete HTML document from a string.
func ParseString(s string) (*html.Node, error) {
	return Parse(strings.NewReader(s))
}

// Render serializes n and its subtree.
func Render(n *html.Node) (string, error) {
	if n == nil {
		return "", ErrNilNode
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("rendering %s: %w", describe(n), err)
	}
	return buf.String(), nil
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) (string, error) {
	if n == nil {
		return "", ErrNilNode
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("rendering children of %s: %w", describe(n), err)
		}
	}
	return buf.String(), nil
}

// SetInnerHTML replaces the children of n with the parsed fragment.
// The fragment is parsed in the context of n, the way a browser would.
func SetInnerHTML(n *html.Node, fragment string) error {
	if n == nil {
		return ErrNilNode
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), contextFor(n))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrParseHTML, err)
	}
	RemoveChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

// contextFor returns a parentless copy of n usable as a fragment context.
func contextFor(n *html.Node) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: n.Data, DataAtom: n.DataAtom, Namespace: n.Namespace}
}

// Attr returns the value of the named attribute and whether it is present.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// AttrOr returns the named attribute or def when absent.
func AttrOr(n *html.Node, key, def string) string {
	if v, ok := Attr(n, key); ok {
		return v
	}
	return def
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes every occurrence of the named attribute.
func RemoveAttr(n *html.Node, key string) {
	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

// Classes returns the class list of n.
func Classes(n *html.Node) []string {
	return strings.Fields(AttrOr(n, "class", ""))
}

// HasClass reports whether n carries the given class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass appends class to n unless already present.
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	cls := Classes(n)
	cls = append(cls, class)
	SetAttr(n, "class", strings.Join(cls, " "))
}

// IsElement reports whether n is an element with the given tag name.
func IsElement(n *html.Node, tag string) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == tag
}

// Walk visits n and its descendants in document order.
// Returning false from fn skips the children of the visited node.
func Walk(n *html.Node, fn func(*html.Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		Walk(c, fn)
		c = next
	}
}

// FindAll returns the descendants of root (root excluded) matching pred,
// in document order.
func FindAll(root *html.Node, pred func(*html.Node) bool) []*html.Node {
	if root == nil {
		return nil
	}
	var out []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, func(n *html.Node) bool {
			if pred(n) {
				out = append(out, n)
			}
			return true
		})
	}
	return out
}

// First returns the first descendant of root matching pred, or nil.
func First(root *html.Node, pred func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if pred(c) {
			return c
		}
		if found := First(c, pred); found != nil {
			return found
		}
	}
	return nil
}

// ElementByID returns the first element under root with the given id.
func ElementByID(root *html.Node, id string) *html.Node {
	if id == "" {
		return nil
	}
	return First(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && AttrOr(n, "id", "") == id
	})
}

// Body returns the body element of a parsed document, or nil.
func Body(doc *html.Node) *html.Node {
	return First(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.Body })
}

// Head returns the head element of a parsed document, or nil.
func Head(doc *html.Node) *html.Node {
	return First(doc, func(n *html.Node) bool { return n.Type == html.ElementNode && n.DataAtom == atom.Head })
}

// IDs collects every id attribute present under root.
func IDs(root *html.Node) map[string]bool {
	ids := make(map[string]bool)
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if id, ok := Attr(n, "id"); ok && id != "" {
				ids[id] = true
			}
		}
		return true
	})
	return ids
}

// TextContent concatenates the text of every text node under n.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		return true
	})
	return sb.String()
}

// Closest returns n or its nearest ancestor that is a tag element.
func Closest(n *html.Node, tag string) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if IsElement(p, tag) {
			return p
		}
	}
	return nil
}

// Clone returns a deep copy of n without parent or siblings.
func Clone(n *html.Node) *html.Node {
	if n == nil {
		return nil
	}
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		c.AppendChild(Clone(ch))
	}
	return c
}

// Remove detaches n from its parent. Detached nodes are left alone.
func Remove(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveChildren detaches every child of n.
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// MoveChildren detaches every child of src and appends it to dst.
func MoveChildren(dst, src *html.Node) {
	for src.FirstChild != nil {
		c := src.FirstChild
		src.RemoveChild(c)
		dst.AppendChild(c)
	}
}

// ReplaceWith puts replacements where old stands and detaches old.
// old is detached before the call returns.
func ReplaceWith(old *html.Node, replacements ...*html.Node) error {
	if old == nil {
		return ErrNilNode
	}
	parent := old.Parent
	if parent == nil {
		return fmt.Errorf("%w: %s", ErrNoParent, describe(old))
	}
	for _, r := range replacements {
		if r.Parent != nil {
			r.Parent.RemoveChild(r)
		}
		parent.InsertBefore(r, old)
	}
	parent.RemoveChild(old)
	return nil
}

// Element creates an element node. attrs are key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Text creates a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// describe returns a short human label for a node, used in error messages.
func describe(n *html.Node) string {
	if n.Type != html.ElementNode {
		return "node"
	}
	if id, ok := Attr(n, "id"); ok {
		return "<" + n.Data + "#" + id + ">"
	}
	return "<" + n.Data + ">"
}
