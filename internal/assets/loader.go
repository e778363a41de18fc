package assets

// AssetLoader defines the contract for loading runtime styles and scripts.
type AssetLoader interface {
	// LoadStyle loads a CSS style by name (without .css extension).
	// Returns ErrStyleNotFound if the style doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadStyle(name string) (string, error)

	// LoadScript loads a script by name (without .js extension).
	// Returns ErrScriptNotFound if the script doesn't exist.
	// Returns ErrInvalidAssetName if the name contains invalid characters.
	LoadScript(name string) (string, error)
}
