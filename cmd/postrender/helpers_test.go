package main

// Notes:
// - Test infrastructure shared by the command tests: an in-memory process
//   environment, a fake enhancer pool, and a page fixture.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-postrender"
	"github.com/alnah/go-postrender/internal/config"
)

// ---------------------------------------------------------------------------
// Type Aliases - For cleaner test code
// ---------------------------------------------------------------------------

type (
	Config         = config.Config
	InputConfig    = config.InputConfig
	OutputConfig   = config.OutputConfig
	DiagramsConfig = config.DiagramsConfig
	AssetsConfig   = config.AssetsConfig
	FeaturesConfig = config.FeaturesConfig
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// samplePage is a stock-theme page with enough structure for a TOC.
const samplePage = `<!DOCTYPE html><html><head><title>Post</title></head><body>
<aside id="left-toc"></aside>
<main id="main" class="post"><article class="content">
<h2 id="setup">Setup</h2><p>First.</p>
<h2 id="usage">Usage</h2><p>Second.</p>
</article></main>
<nav class="paginator"><a class="link" href="#">Prev</a><a class="link" href="../next/">Next</a></nav>
</body></html>`

// writePage writes content below dir and returns its path.
func writePage(t *testing.T, dir, rel, content string) string {
	t.Helper()

	path := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Test Environment
// ---------------------------------------------------------------------------

// testEnv is an Environment with captured output and a fixed variable set.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(vars map[string]string) *testEnv {
	var stdout, stderr bytes.Buffer
	environ := make([]string, 0, len(vars))
	for k, v := range vars {
		environ = append(environ, k+"="+v)
	}
	return &testEnv{
		Environment: &Environment{
			Now:     func() time.Time { return time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC) },
			Stdout:  &stdout,
			Stderr:  &stderr,
			Getenv:  func(k string) string { return vars[k] },
			Environ: func() []string { return environ },
		},
		stdout: &stdout,
		stderr: &stderr,
	}
}

// ---------------------------------------------------------------------------
// Mock Implementations - For unit testing
// ---------------------------------------------------------------------------

// stubEnhancer returns a fixed result for every page.
type stubEnhancer struct {
	html   string
	report postrender.Report
	err    error

	mu     sync.Mutex
	inputs []postrender.Input
}

func (s *stubEnhancer) Enhance(_ context.Context, in postrender.Input) (*postrender.Result, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, in)
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	out := s.html
	if out == "" {
		out = in.HTML + "<!-- enhanced -->"
	}
	return &postrender.Result{HTML: []byte(out), Report: s.report}, nil
}

// stubPool hands out one shared enhancer.
type stubPool struct {
	enh        PageEnhancer
	size       int
	acquireErr error

	mu       sync.Mutex
	acquired int
	released int
	closed   bool
}

func (p *stubPool) Acquire() (PageEnhancer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquired++
	return p.enh, nil
}

func (p *stubPool) Release(PageEnhancer) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

func (p *stubPool) Size() int {
	if p.size < 1 {
		return 1
	}
	return p.size
}

func (p *stubPool) Close() error {
	p.closed = true
	return nil
}

// fixedPool returns a poolFunc that ignores the factory and yields p.
func fixedPool(p *stubPool) poolFunc {
	return func(int, func() (*postrender.Enhancer, error)) Pool { return p }
}
