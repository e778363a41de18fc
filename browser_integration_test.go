//go:build integration

package postrender

import (
	"context"
	"strings"
	"testing"
)

func TestIntegration_BrowserDiagrams(t *testing.T) {
	t.Parallel()

	e := acquireEnhancer(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	res, err := e.Enhance(ctx, Input{HTML: stockPage("")})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if !res.Report.Applied(EnhanceDiagrams) {
		t.Fatal("diagrams not applied")
	}

	out := string(res.HTML)
	if !strings.Contains(out, "<svg") {
		t.Error("no inline svg in output")
	}
	if !strings.Contains(out, `data-processed="true"`) {
		t.Error("diagram container not marked processed")
	}
}

func TestIntegration_BrowserDiagrams_SyntaxError(t *testing.T) {
	t.Parallel()

	e := acquireEnhancer(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	page := strings.Replace(stockPage(""), "graph TD; A--&gt;B", "this is not a diagram", 1)
	res, err := e.Enhance(ctx, Input{HTML: page})
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}

	// The failure stays inside the renderer; the block is left for the client.
	if rerr := res.Report.Err(); rerr != nil {
		t.Errorf("Report.Err() = %v, want nil", rerr)
	}
	out := string(res.HTML)
	if !strings.Contains(out, "this is not a diagram") {
		t.Error("diagram source lost after failed render")
	}
	if strings.Contains(out, `data-processed="true"`) {
		t.Error("failed diagram marked processed")
	}
}

func TestIntegration_Launch(t *testing.T) {
	t.Parallel()

	r, err := NewBrowserDiagramRenderer(BrowserConfig{MermaidScript: defaultTestMermaid})
	if err != nil {
		t.Fatalf("NewBrowserDiagramRenderer() error = %v", err)
	}
	defer r.Close()

	if err := r.Launch(); err != nil {
		t.Fatalf("Launch() error = %v", err)
	}
	// A second launch reuses the running browser.
	if err := r.Launch(); err != nil {
		t.Errorf("second Launch() error = %v", err)
	}
}
