package dom

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, s string) *html.Node {
	t.Helper()

	doc, err := ParseString(s)
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}
	return doc
}

func mustRender(t *testing.T, n *html.Node) string {
	t.Helper()

	out, err := Render(n)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return out
}

func TestElementByID(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<div id="a"><p id="b">x</p></div>`)

	tests := []struct {
		name    string
		id      string
		wantTag string
	}{
		{name: "outer element", id: "a", wantTag: "div"},
		{name: "nested element", id: "b", wantTag: "p"},
		{name: "missing id", id: "c"},
		{name: "empty id", id: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ElementByID(doc, tt.id)
			if tt.wantTag == "" {
				if got != nil {
					t.Errorf("ElementByID(%q) = <%s>, want nil", tt.id, got.Data)
				}
				return
			}
			if got == nil || got.Data != tt.wantTag {
				t.Errorf("ElementByID(%q) = %v, want <%s>", tt.id, got, tt.wantTag)
			}
		})
	}
}

func TestTextContent(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<h2 id="x">  Setup <em>fast</em>
	Steps </h2>`)
	h := ElementByID(doc, "x")

	got := TextContent(h)
	want := "  Setup fast\n\tSteps "
	if got != want {
		t.Errorf("TextContent() = %q, want %q", got, want)
	}

	if TextContent(nil) != "" {
		t.Error("TextContent(nil) should be empty")
	}
}

func TestClasses(t *testing.T) {
	t.Parallel()

	n := Element("a", "class", "  footnote-ref  other ")
	if !HasClass(n, "footnote-ref") || !HasClass(n, "other") {
		t.Errorf("HasClass() missed classes in %q", AttrOr(n, "class", ""))
	}
	if HasClass(n, "foot") {
		t.Error("HasClass() matched a class prefix")
	}

	AddClass(n, "other")
	AddClass(n, "has-toc")
	if got := AttrOr(n, "class", ""); got != "footnote-ref other has-toc" {
		t.Errorf("AddClass() class = %q", got)
	}
}

func TestSetAndRemoveAttr(t *testing.T) {
	t.Parallel()

	n := Element("img", "src", "a.png")
	SetAttr(n, "data-zoomable", "")
	SetAttr(n, "src", "b.png")

	if v, _ := Attr(n, "src"); v != "b.png" {
		t.Errorf("src = %q, want b.png", v)
	}
	if _, ok := Attr(n, "data-zoomable"); !ok {
		t.Error("data-zoomable not set")
	}

	RemoveAttr(n, "src")
	if _, ok := Attr(n, "src"); ok {
		t.Error("src still present after RemoveAttr")
	}
}

func TestClosest(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<p><sup id="s"><a id="a" href="#fn:1">1</a></sup><a id="b">x</a></p>`)

	if got := Closest(ElementByID(doc, "a"), "sup"); got == nil || AttrOr(got, "id", "") != "s" {
		t.Errorf("Closest(a, sup) = %v, want sup#s", got)
	}
	if got := Closest(ElementByID(doc, "b"), "sup"); got != nil {
		t.Errorf("Closest(b, sup) = %v, want nil", got)
	}
	if got := Closest(ElementByID(doc, "s"), "sup"); got == nil {
		t.Error("Closest() should include the node itself")
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<ol><li id="fn:1"><p>Hi <a class="x">y</a></p></li></ol>`)
	li := ElementByID(doc, "fn:1")

	c := Clone(li)
	if c.Parent != nil || c.NextSibling != nil {
		t.Fatal("clone should be detached")
	}

	Remove(First(c, func(n *html.Node) bool { return IsElement(n, "a") }))

	if !strings.Contains(mustRender(t, li), `<a class="x">`) {
		t.Error("mutating the clone changed the original")
	}
	if strings.Contains(mustRender(t, c), "<a") {
		t.Error("clone still contains removed anchor")
	}
}

func TestReplaceWith(t *testing.T) {
	t.Parallel()

	t.Run("replaces in place", func(t *testing.T) {
		t.Parallel()

		doc := mustParse(t, `<p id="p">a<sup id="s">1</sup>b</p>`)
		sup := ElementByID(doc, "s")

		err := ReplaceWith(sup, Element("label"), Element("input"), Element("span"))
		if err != nil {
			t.Fatalf("ReplaceWith() error = %v", err)
		}

		got, _ := InnerHTML(ElementByID(doc, "p"))
		want := "a<label></label><input/><span></span>b"
		if got != want {
			t.Errorf("InnerHTML() = %q, want %q", got, want)
		}
		if sup.Parent != nil {
			t.Error("old node still attached")
		}
	})

	t.Run("detached node", func(t *testing.T) {
		t.Parallel()

		err := ReplaceWith(Element("sup"), Element("span"))
		if !errors.Is(err, ErrNoParent) {
			t.Errorf("ReplaceWith() error = %v, want ErrNoParent", err)
		}
	})

	t.Run("nil node", func(t *testing.T) {
		t.Parallel()

		if err := ReplaceWith(nil); !errors.Is(err, ErrNilNode) {
			t.Errorf("ReplaceWith(nil) error = %v, want ErrNilNode", err)
		}
	})
}

func TestSetInnerHTML(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<p><span id="s">old</span></p>`)
	span := ElementByID(doc, "s")

	if err := SetInnerHTML(span, `<em>new</em> text`); err != nil {
		t.Fatalf("SetInnerHTML() error = %v", err)
	}

	got, _ := InnerHTML(span)
	if got != "<em>new</em> text" {
		t.Errorf("InnerHTML() = %q", got)
	}
}

func TestIDs(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<div id="a"><p id="b"></p><p id=""></p></div>`)
	ids := IDs(doc)

	if len(ids) != 2 || !ids["a"] || !ids["b"] {
		t.Errorf("IDs() = %v, want a and b", ids)
	}
}

func TestBodyAndHead(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, `<p>x</p>`)
	if Body(doc) == nil || Head(doc) == nil {
		t.Error("parser should synthesize head and body")
	}
}
