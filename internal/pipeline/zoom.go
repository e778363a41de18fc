package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/alnah/go-postrender/internal/dom"
)

// ErrInvalidZoom indicates unusable zoom overlay options.
var ErrInvalidZoom = errors.New("invalid zoom options")

// Zoom markup and body data keys.
const (
	AttrZoomable       = "data-zoomable"
	DataZoomMargin     = "zoom-margin"
	DataZoomBackground = "zoom-background"
)

// Zoom overlay defaults.
const (
	DefaultZoomMargin     = 24
	DefaultZoomBackground = "rgba(0, 0, 0, 0.92)"
	maxZoomMargin         = 1000
)

// ZoomOptions configure the zoom overlay.
type ZoomOptions struct {
	Margin     int
	Background string
}

// DefaultZoomOptions returns the stock overlay settings.
func DefaultZoomOptions() ZoomOptions {
	return ZoomOptions{Margin: DefaultZoomMargin, Background: DefaultZoomBackground}
}

// Validate checks the margin range and that a background is set.
func (o ZoomOptions) Validate() error {
	if o.Margin < 0 || o.Margin > maxZoomMargin {
		return fmt.Errorf("%w: margin must be between 0 and %d, got %d", ErrInvalidZoom, maxZoomMargin, o.Margin)
	}
	if strings.TrimSpace(o.Background) == "" {
		return fmt.Errorf("%w: background is required", ErrInvalidZoom)
	}
	if strings.ContainsAny(o.Background, "<>\"") {
		return fmt.Errorf("%w: background contains forbidden characters", ErrInvalidZoom)
	}
	return nil
}

// ZoomLibrary is the image zoom capability of the page.
type ZoomLibrary interface {
	// Available reports whether the page can run the library.
	Available(doc *html.Node) bool
	// Attach hands the zoomable images to the library.
	Attach(p *Page, opts ZoomOptions) error
}

// NoZoom only marks images; no overlay is started.
type NoZoom struct{}

// Available implements ZoomLibrary.
func (NoZoom) Available(*html.Node) bool { return false }

// Attach implements ZoomLibrary.
func (NoZoom) Attach(*Page, ZoomOptions) error { return nil }

// MediumZoom drives medium-zoom through the runtime script, which starts it
// only when window.mediumZoom is defined.
type MediumZoom struct{}

// Available implements ZoomLibrary. The library is looked up in the browser.
func (MediumZoom) Available(*html.Node) bool { return true }

// Attach writes the overlay options for the runtime script.
func (m MediumZoom) Attach(p *Page, opts ZoomOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	p.setBodyData(DataZoomMargin, strconv.Itoa(opts.Margin))
	p.setBodyData(DataZoomBackground, opts.Background)
	return nil
}

var imageSelector = cascadia.MustCompile("img")

// ZoomActivation marks article images as zoomable and wires the zoom library.
type ZoomActivation struct {
	lib  ZoomLibrary
	opts ZoomOptions
}

// NewZoomActivation creates a ZoomActivation. A nil library means NoZoom.
func NewZoomActivation(lib ZoomLibrary, opts ZoomOptions) *ZoomActivation {
	if lib == nil {
		lib = NoZoom{}
	}
	return &ZoomActivation{lib: lib, opts: opts}
}

// Name implements Enhancement.
func (z *ZoomActivation) Name() string { return StepZoom }

// Apply tags every image under the article root and attaches the library.
// A page without article images is left alone.
func (z *ZoomActivation) Apply(ctx context.Context, p *Page) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	article := p.ArticleRoot()
	if article == nil {
		return false, nil
	}

	imgs := cascadia.QueryAll(article, imageSelector)
	if len(imgs) == 0 {
		return false, nil
	}
	for _, img := range imgs {
		if _, ok := dom.Attr(img, AttrZoomable); !ok {
			dom.SetAttr(img, AttrZoomable, "")
		}
	}

	if !z.lib.Available(p.Doc) {
		return true, nil
	}
	return true, z.lib.Attach(p, z.opts)
}
