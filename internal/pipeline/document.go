package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrParse indicates the input could not be parsed as HTML.
var ErrParse = errors.New("HTML parse failed")

// Document is a parsed page or fragment.
type Document struct {
	Root     *html.Node
	Fragment bool // rendered without the synthesized html/head/body wrapper
}

// ParseDocument parses HTML content, handling both full documents and fragments.
func ParseDocument(content string) (*Document, error) {
	trimmed := strings.ToLower(strings.TrimSpace(content))

	// Full document: starts with <!DOCTYPE or <html, or has a body of its own
	if strings.HasPrefix(trimmed, "<!doctype") || strings.HasPrefix(trimmed, "<html") ||
		strings.Contains(trimmed, "<body") {
		doc, err := html.Parse(strings.NewReader(content))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return &Document{Root: doc}, nil
	}

	// Fragment: parse with body context to avoid wrapping
	context := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Body,
		Data:     "body",
	}
	nodes, err := html.ParseFragment(strings.NewReader(content), context)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	// Wrap nodes in a container for uniform traversal
	container := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		container.AppendChild(n)
	}

	return &Document{Root: container, Fragment: true}, nil
}

// Render serializes the document. Fragments render their children only.
func (d *Document) Render() (string, error) {
	var buf strings.Builder

	if d.Fragment {
		for c := d.Root.FirstChild; c != nil; c = c.NextSibling {
			if err := html.Render(&buf, c); err != nil {
				return "", err
			}
		}
		return buf.String(), nil
	}

	if err := html.Render(&buf, d.Root); err != nil {
		return "", err
	}
	return buf.String(), nil
}
