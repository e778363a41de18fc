package postrender

import (
	"errors"

	"github.com/alnah/go-postrender/internal/assets"
)

// DefaultRuntime is the name of the built-in runtime bundle.
const DefaultRuntime = assets.DefaultRuntimeName

// AssetLoader defines the contract for loading the runtime style and script.
// Implementations may load from filesystem, embedded assets, S3, database, etc.
//
// The library provides NewAssetLoader() for filesystem-based loading with
// fallback to embedded defaults. Implement this interface for custom backends.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	LoadStyle(name string) (string, error)

	// LoadScript loads a script by name (without .js extension).
	// Returns ErrScriptNotFound if the script doesn't exist.
	LoadScript(name string) (string, error)
}

// NewAssetLoader creates an AssetLoader for the given base path.
// If basePath is empty, returns a loader using only embedded assets.
// If basePath is set, custom assets take precedence with fallback to embedded.
//
// The basePath directory should contain:
//   - styles/{name}.css for the runtime style
//   - scripts/{name}.js for the runtime script
//
// Returns ErrInvalidAssetPath if basePath is set but not a valid, readable directory.
func NewAssetLoader(basePath string) (AssetLoader, error) {
	resolver, err := assets.NewAssetResolver(basePath)
	if err != nil {
		return nil, convertAssetError(err)
	}
	return &assetLoaderAdapter{resolver: resolver}, nil
}

// assetLoaderAdapter wraps internal AssetResolver to return public errors.
type assetLoaderAdapter struct {
	resolver *assets.AssetResolver
}

func (a *assetLoaderAdapter) LoadStyle(name string) (string, error) {
	content, err := a.resolver.LoadStyle(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return content, nil
}

func (a *assetLoaderAdapter) LoadScript(name string) (string, error) {
	content, err := a.resolver.LoadScript(name)
	if err != nil {
		return "", convertAssetError(err)
	}
	return content, nil
}

// publicToInternalAdapter lets a public AssetLoader feed the internal runtime
// loader, mapping public not-found errors back to internal sentinels.
type publicToInternalAdapter struct {
	pub AssetLoader
}

func (a *publicToInternalAdapter) LoadStyle(name string) (string, error) {
	s, err := a.pub.LoadStyle(name)
	if errors.Is(err, ErrStyleNotFound) {
		return "", wrapError(assets.ErrStyleNotFound, err)
	}
	return s, err
}

func (a *publicToInternalAdapter) LoadScript(name string) (string, error) {
	s, err := a.pub.LoadScript(name)
	if errors.Is(err, ErrScriptNotFound) {
		return "", wrapError(assets.ErrScriptNotFound, err)
	}
	return s, err
}

// convertAssetError maps internal asset errors to public errors.
func convertAssetError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, assets.ErrStyleNotFound):
		return wrapError(ErrStyleNotFound, err)
	case errors.Is(err, assets.ErrScriptNotFound):
		return wrapError(ErrScriptNotFound, err)
	case errors.Is(err, assets.ErrIncompleteRuntime):
		return wrapError(ErrIncompleteRuntime, err)
	case errors.Is(err, assets.ErrInvalidBasePath):
		return wrapError(ErrInvalidAssetPath, err)
	case errors.Is(err, assets.ErrPathTraversal):
		return wrapError(ErrInvalidAssetPath, err)
	case errors.Is(err, assets.ErrInvalidAssetName):
		return wrapError(ErrStyleNotFound, err) // Invalid name means not found
	default:
		return err
	}
}

// wrapError creates a new error that wraps the original with a sentinel.
// The resulting error preserves the original message via Error() and supports
// errors.Is() matching against the sentinel via Unwrap().
func wrapError(sentinel, original error) error {
	return &wrappedAssetError{sentinel: sentinel, original: original}
}

type wrappedAssetError struct {
	sentinel error
	original error
}

func (e *wrappedAssetError) Error() string {
	return e.original.Error()
}

// Unwrap returns the sentinel for errors.Is() matching.
func (e *wrappedAssetError) Unwrap() error {
	return e.sentinel
}
