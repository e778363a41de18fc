package pipeline

import (
	"context"

	"github.com/alnah/go-postrender/internal/dom"
)

// Behavior attribute read by the runtime script.
const (
	AttrBehavior      = "data-postrender"
	BehaviorBackToTop = "back-to-top"
)

// BackToTop marks the back-to-top control so the runtime script can turn
// its activation into a smooth scroll to the page origin.
type BackToTop struct{}

// NewBackToTop creates a BackToTop.
func NewBackToTop() *BackToTop { return &BackToTop{} }

// Name implements Enhancement.
func (b *BackToTop) Name() string { return StepBackToTop }

// Apply tags the control. A page without one is left alone.
func (b *BackToTop) Apply(ctx context.Context, p *Page) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	ctl := dom.ElementByID(p.Doc, p.sel.raw.BackToTopID)
	if ctl == nil {
		return false, nil
	}
	dom.SetAttr(ctl, AttrBehavior, BehaviorBackToTop)
	return true, nil
}
