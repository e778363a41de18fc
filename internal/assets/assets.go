package assets

// defaultLoader is the package-level embedded loader.
var defaultLoader = NewEmbeddedLoader()

// LoadRuntime loads a runtime bundle from the embedded assets.
// Errors are those of LoadRuntimeFrom.
func LoadRuntime(name string) (*Runtime, error) {
	return LoadRuntimeFrom(defaultLoader, name)
}
