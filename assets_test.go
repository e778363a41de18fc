package postrender

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-postrender/internal/assets"
)

func TestNewAssetLoader_Embedded(t *testing.T) {
	t.Parallel()

	loader, err := NewAssetLoader("")
	if err != nil {
		t.Fatalf("NewAssetLoader() error = %v", err)
	}

	style, err := loader.LoadStyle(DefaultRuntime)
	if err != nil || strings.TrimSpace(style) == "" {
		t.Errorf("LoadStyle(%q) = %d bytes, %v", DefaultRuntime, len(style), err)
	}
	script, err := loader.LoadScript(DefaultRuntime)
	if err != nil || strings.TrimSpace(script) == "" {
		t.Errorf("LoadScript(%q) = %d bytes, %v", DefaultRuntime, len(script), err)
	}

	if _, err := loader.LoadStyle("missing"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(missing) error = %v, want ErrStyleNotFound", err)
	}
	if _, err := loader.LoadScript("missing"); !errors.Is(err, ErrScriptNotFound) {
		t.Errorf("LoadScript(missing) error = %v, want ErrScriptNotFound", err)
	}
	if _, err := loader.LoadStyle("../secrets"); !errors.Is(err, ErrStyleNotFound) {
		t.Errorf("LoadStyle(../secrets) error = %v, want ErrStyleNotFound", err)
	}
}

func TestNewAssetLoader_CustomPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "styles", "dark.css"), []byte("body{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	loader, err := NewAssetLoader(dir)
	if err != nil {
		t.Fatalf("NewAssetLoader() error = %v", err)
	}

	if got, err := loader.LoadStyle("dark"); err != nil || got != "body{}" {
		t.Errorf("LoadStyle(dark) = %q, %v", got, err)
	}
	// Embedded assets stay reachable behind the custom directory.
	if _, err := loader.LoadScript(DefaultRuntime); err != nil {
		t.Errorf("LoadScript(%q) fallback error = %v", DefaultRuntime, err)
	}
}

func TestNewAssetLoader_InvalidPath(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(t.TempDir(), "missing"), file} {
		if _, err := NewAssetLoader(path); !errors.Is(err, ErrInvalidAssetPath) {
			t.Errorf("NewAssetLoader(%q) error = %v, want ErrInvalidAssetPath", path, err)
		}
	}
}

func TestConvertAssetError(t *testing.T) {
	t.Parallel()

	other := errors.New("disk on fire")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"style", assets.ErrStyleNotFound, ErrStyleNotFound},
		{"script", assets.ErrScriptNotFound, ErrScriptNotFound},
		{"incomplete", fmt.Errorf("%w: x", assets.ErrIncompleteRuntime), ErrIncompleteRuntime},
		{"base path", assets.ErrInvalidBasePath, ErrInvalidAssetPath},
		{"traversal", assets.ErrPathTraversal, ErrInvalidAssetPath},
		{"invalid name", assets.ErrInvalidAssetName, ErrStyleNotFound},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := convertAssetError(tt.in)
			if tt.want == nil {
				if got != nil {
					t.Errorf("convertAssetError(nil) = %v", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("convertAssetError(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if got.Error() != tt.in.Error() {
				t.Errorf("message = %q, want original %q", got.Error(), tt.in.Error())
			}
		})
	}
}
