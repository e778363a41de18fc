// Package postrender enhances pages that a static site generator has
// already rendered to HTML.
//
// # Quick Start
//
// Create an enhancer, enhance a page, and close when done:
//
//	enh, err := postrender.NewEnhancer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer enh.Close()
//
//	result, err := enh.Enhance(ctx, postrender.Input{
//	    HTML:    page,
//	    BaseURL: "https://blog.example.com/posts/hello/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("index.html", result.HTML, 0644)
//
// Besides the enhanced document, the result carries the table of contents,
// the sidenotes, the pagination targets, and a Report of what each
// enhancement did.
//
// # Enhancements
//
// Enhancements run once per page in a fixed order:
//
//  1. Table of contents mounted from the article's h2/h3 headings
//  2. Footnote references rewritten into inline sidenotes
//  3. Back-to-top control marked for the runtime script
//  4. Keyboard pagination targets published on body
//  5. Article images tagged for the zoom overlay
//  6. Mermaid code blocks handed to a diagram renderer
//
// When at least one of them changed the page, the runtime style and script
// are injected last. A failing enhancement never stops the others; its
// error lands in Result.Report.
//
// # Configuration
//
// Use functional options to customize the enhancer:
//
//	enh, err := postrender.NewEnhancer(
//	    postrender.WithLogger(logger),
//	    postrender.WithSelectors(postrender.Selectors{Footnotes: "div.footnotes"}),
//	    postrender.WithZoom(postrender.ZoomOptions{Margin: 48, Background: "#000"}),
//	    postrender.WithDisabled(postrender.EnhanceKeyboardNav),
//	)
//
// # Parallel Processing
//
// An Enhancer is not safe for concurrent use. For batches, use EnhancerPool:
//
//	pool := postrender.NewEnhancerPool(4, nil)
//	defer pool.Close()
//
//	enh, err := pool.Acquire()
//	if err != nil {
//	    return err
//	}
//	defer pool.Release(enh)
//	result, err := enh.Enhance(ctx, input)
//
// # Custom Assets
//
// Override the built-in runtime using AssetLoader:
//
//	loader, err := postrender.NewAssetLoader("/path/to/assets")
//	enh, err := postrender.NewEnhancer(postrender.WithAssetLoader(loader))
//
// Asset directory structure:
//
//	assets/
//	├── styles/
//	│   └── postrender.css
//	└── scripts/
//	    └── postrender.js
//
// # Browser Requirements
//
// By default diagrams are converted and rendered in the reader's browser,
// when the page loads mermaid.
// BrowserDiagramRenderer prerenders them to inline SVG instead, which
// requires Chrome/Chromium. The go-rod library automatically downloads a
// managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package postrender
