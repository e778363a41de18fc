package assets

import (
	"embed"
	"fmt"
)

//go:embed styles/*
var styles embed.FS

//go:embed scripts/*
var scripts embed.FS

// EmbeddedLoader loads assets from embedded filesystem.
// Implements AssetLoader interface.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle loads a CSS style from embedded assets by name.
// The name should not include the .css extension.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	content, err := styles.ReadFile("styles/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrStyleNotFound, name)
	}

	return string(content), nil
}

// LoadScript loads a script from embedded assets by name.
// The name should not include the .js extension.
func (e *EmbeddedLoader) LoadScript(name string) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	content, err := scripts.ReadFile("scripts/" + name + ".js")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrScriptNotFound, name)
	}

	return string(content), nil
}

// Compile-time interface check.
var _ AssetLoader = (*EmbeddedLoader)(nil)
