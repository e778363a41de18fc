// Package assets provides the stylesheet and script delivered with an
// enhanced page. Assets can be loaded from embedded files or custom
// filesystem paths.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (default runtime)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the enhancer. It tries the custom
// FilesystemLoader first and falls back to EmbeddedLoader when the asset is
// not found, so a site can override the style alone and keep the stock script.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── scripts/
//	    └── {name}.js
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
