package main

import (
	"errors"
	"os"

	"github.com/alnah/go-postrender"
	"github.com/alnah/go-postrender/internal/config"
)

// Exit codes for the postrender CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Every page enhanced
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, postrender.ErrBrowserConnect) ||
		errors.Is(err, postrender.ErrPageCreate) ||
		errors.Is(err, postrender.ErrPageLoad) ||
		errors.Is(err, postrender.ErrDiagramRender) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadHTML) ||
		errors.Is(err, ErrWriteHTML) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrNoPages) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, postrender.ErrEmptyHTML) ||
		errors.Is(err, postrender.ErrInvalidBaseURL) ||
		errors.Is(err, postrender.ErrInvalidSelector) ||
		errors.Is(err, postrender.ErrInvalidZoom) ||
		errors.Is(err, postrender.ErrUnknownEnhancement) ||
		errors.Is(err, postrender.ErrStyleNotFound) ||
		errors.Is(err, postrender.ErrScriptNotFound) ||
		errors.Is(err, postrender.ErrIncompleteRuntime) ||
		errors.Is(err, postrender.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrMissingMermaidScript) ||
		errors.Is(err, ErrUnknownCommand) {
		return ExitUsage
	}

	return ExitGeneral
}
