package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Sentinel errors for the runner.
var (
	ErrAlreadyRan       = errors.New("enhancements already ran")
	ErrEnhancementPanic = errors.New("enhancement panicked")
)

// Enhancement is one page transform. Apply reports whether it changed the
// page. A missing anchor is not an error: Apply returns false, nil.
type Enhancement interface {
	Name() string
	Apply(ctx context.Context, p *Page) (applied bool, err error)
}

// Step names, in run order.
const (
	StepTOC         = "toc"
	StepSidenotes   = "sidenotes"
	StepBackToTop   = "back-to-top"
	StepKeyboardNav = "keyboard-nav"
	StepZoom        = "zoom"
	StepDiagrams    = "diagrams"
	StepRuntime     = "runtime"
)

// StepNames lists the enhancement names in their fixed order.
func StepNames() []string {
	return []string{StepTOC, StepSidenotes, StepBackToTop, StepKeyboardNav, StepZoom, StepDiagrams}
}

// Standard returns the six enhancements in their fixed order.
func Standard(zoom ZoomLibrary, zoomOpts ZoomOptions, diagrams DiagramRenderer, log *zap.Logger) []Enhancement {
	return []Enhancement{
		NewTOCBuilder(),
		NewSidenoteTransformer(),
		NewBackToTop(),
		NewKeyboardNav(),
		NewZoomActivation(zoom, zoomOpts),
		NewDiagramRendering(diagrams, log),
	}
}

// Outcome records what one enhancement did.
type Outcome struct {
	Name    string
	Applied bool
	Err     error
}

// Report collects the outcomes of a run in execution order.
type Report struct {
	Outcomes []Outcome
}

// Err combines the errors of every failed enhancement, or nil.
func (r Report) Err() error {
	var err error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", o.Name, o.Err))
		}
	}
	return err
}

// Applied reports whether the named enhancement changed the page.
func (r Report) Applied(name string) bool {
	for _, o := range r.Outcomes {
		if o.Name == name {
			return o.Applied
		}
	}
	return false
}

// AnyApplied reports whether at least one enhancement changed the page.
func (r Report) AnyApplied() bool {
	for _, o := range r.Outcomes {
		if o.Applied {
			return true
		}
	}
	return false
}

// State is the lifecycle of a Runner.
type State int32

const (
	StateUnstarted State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Runner invokes a fixed list of enhancements exactly once.
// One failing enhancement never prevents the next from running.
type Runner struct {
	steps    []Enhancement
	finalize Enhancement
	log      *zap.Logger
	state    atomic.Int32
}

// NewRunner creates a Runner over steps, run in the given order.
// A nil logger is replaced by a no-op one.
func NewRunner(log *zap.Logger, steps ...Enhancement) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{steps: steps, log: log}
}

// Finally sets an enhancement run after the others, only when at least one
// of them changed the page. Must be called before Run.
func (r *Runner) Finally(e Enhancement) *Runner {
	r.finalize = e
	return r
}

// State returns the current lifecycle state.
func (r *Runner) State() State { return State(r.state.Load()) }

// Run applies every enhancement to p. A second call returns ErrAlreadyRan.
// Enhancement failures land in the report; the returned error is only set
// when the run itself could not complete.
func (r *Runner) Run(ctx context.Context, p *Page) (Report, error) {
	if !r.state.CompareAndSwap(int32(StateUnstarted), int32(StateRunning)) {
		return Report{}, ErrAlreadyRan
	}
	defer r.state.Store(int32(StateDone))

	report := Report{Outcomes: make([]Outcome, 0, len(r.steps)+1)}
	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Outcomes = append(report.Outcomes, r.apply(ctx, step, p))
	}

	if r.finalize != nil && report.AnyApplied() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Outcomes = append(report.Outcomes, r.apply(ctx, r.finalize, p))
	}
	return report, nil
}

// apply runs one enhancement, turning a panic into an error.
func (r *Runner) apply(ctx context.Context, e Enhancement, p *Page) (out Outcome) {
	out.Name = e.Name()
	log := r.log.With(zap.String("enhancement", out.Name))

	defer func() {
		if rec := recover(); rec != nil {
			out.Applied = false
			out.Err = fmt.Errorf("%w: %v", ErrEnhancementPanic, rec)
			log.Error("enhancement panicked", zap.Any("panic", rec))
		}
	}()

	out.Applied, out.Err = e.Apply(ctx, p)
	switch {
	case out.Err != nil:
		log.Warn("enhancement failed", zap.Error(out.Err))
	case out.Applied:
		log.Debug("enhancement applied")
	default:
		log.Debug("enhancement skipped")
	}
	return out
}
