package postrender

import (
	"errors"

	"github.com/alnah/go-postrender/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyHTML          = errors.New("HTML content cannot be empty")
	ErrHTMLParse          = pipeline.ErrParse
	ErrHTMLRender         = errors.New("HTML rendering failed")
	ErrInvalidBaseURL     = errors.New("invalid base URL")
	ErrUnknownEnhancement = errors.New("unknown enhancement")

	// Option validation errors.
	ErrInvalidSelector = pipeline.ErrInvalidSelector
	ErrInvalidZoom     = pipeline.ErrInvalidZoom

	// Runner errors.
	ErrAlreadyRan       = pipeline.ErrAlreadyRan
	ErrEnhancementPanic = pipeline.ErrEnhancementPanic

	// Browser errors.
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrDiagramRender  = errors.New("diagram rendering failed")

	// Asset loading errors.
	ErrStyleNotFound     = errors.New("style not found")
	ErrScriptNotFound    = errors.New("script not found")
	ErrIncompleteRuntime = errors.New("runtime bundle missing required asset")
	ErrInvalidAssetPath  = errors.New("invalid asset path")
)
