package assets

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// DefaultRuntimeName is the name of the built-in runtime bundle.
const DefaultRuntimeName = "postrender"

// Runtime is the style and script pair injected into enhanced pages.
type Runtime struct {
	Name   string
	Style  string
	Script string
}

// checkName accepts a bare file stem. Loaders append .css or .js to it, so
// separators, dots and whitespace are refused.
func checkName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	case strings.ContainsAny(name, `/\.`), strings.ContainsFunc(name, unicode.IsSpace):
		return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
	}
	return nil
}

// LoadRuntimeFrom loads the style and script sharing name from loader.
// Both must exist; a bundle with only one of them is ErrIncompleteRuntime.
// A name that is not a bare stem fails before loader is asked.
func LoadRuntimeFrom(loader AssetLoader, name string) (*Runtime, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	style, styleErr := loader.LoadStyle(name)
	script, scriptErr := loader.LoadScript(name)

	styleMissing := errors.Is(styleErr, ErrStyleNotFound)
	scriptMissing := errors.Is(scriptErr, ErrScriptNotFound)
	if styleMissing && scriptMissing {
		return nil, fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}
	if styleErr != nil && !styleMissing {
		return nil, styleErr
	}
	if scriptErr != nil && !scriptMissing {
		return nil, scriptErr
	}
	if styleMissing {
		return nil, fmt.Errorf("%w: %q missing %s.css", ErrIncompleteRuntime, name, name)
	}
	if scriptMissing {
		return nil, fmt.Errorf("%w: %q missing %s.js", ErrIncompleteRuntime, name, name)
	}

	return &Runtime{Name: name, Style: style, Script: script}, nil
}
