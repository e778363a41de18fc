package postrender_test

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/alnah/go-postrender"
)

const examplePage = `<!DOCTYPE html><html><head><title>Post</title></head><body>
<aside id="left-toc"></aside>
<main id="main" class="post"><article class="content">
<h2 id="setup">Setup</h2>
<p>Install it first<sup id="fnref:1"><a href="#fn:1" class="footnote-ref" role="doc-noteref">1</a></sup>.</p>
<h3 id="config">Configuration</h3>
<h2 id="usage">Usage</h2>
<section class="footnotes" role="doc-endnotes"><hr><ol>
<li id="fn:1"><p>Any recent version works.&#160;<a href="#fnref:1" class="footnote-backref" role="doc-backlink">&#x21a9;&#xfe0e;</a></p></li>
</ol></section>
</article></main>
<nav class="paginator"><a class="link" href="#">Prev</a><a class="link" href="/posts/next/">Next</a></nav>
</body></html>`

// Example demonstrates enhancing a page rendered by a static site generator.
func Example() {
	enh, err := postrender.NewEnhancer()
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer enh.Close()

	result, err := enh.Enhance(context.Background(), postrender.Input{
		HTML:    examplePage,
		BaseURL: "https://blog.example.com/posts/current/",
	})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, h := range result.TOC {
		fmt.Printf("%s%s -> %s\n", strings.Repeat("  ", h.Level-2), h.DisplayText, h.Href())
	}
	fmt.Println("sidenotes:", len(result.Sidenotes))
	fmt.Println("next:", result.Pagination.Next)
	// Output:
	// Setup -> #setup
	//   Configuration -> #config
	// Usage -> #usage
	// sidenotes: 1
	// next: https://blog.example.com/posts/next/
}

// Example_report demonstrates inspecting what each enhancement did.
func Example_report() {
	enh, err := postrender.NewEnhancer(postrender.WithDisabled(postrender.EnhanceSidenotes))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer enh.Close()

	result, err := enh.Enhance(context.Background(), postrender.Input{HTML: examplePage})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, o := range result.Report.Outcomes {
		fmt.Printf("%s applied=%v\n", o.Name, o.Applied)
	}
	// Output:
	// toc applied=true
	// back-to-top applied=false
	// keyboard-nav applied=true
	// zoom applied=false
	// diagrams applied=false
	// runtime applied=true
}

// Example_customSelectors demonstrates pages whose footnotes live in a div.
func Example_customSelectors() {
	enh, err := postrender.NewEnhancer(
		postrender.WithSelectors(postrender.Selectors{Footnotes: "div.footnotes"}),
		postrender.WithoutRuntime(),
	)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer enh.Close()

	page := strings.ReplaceAll(examplePage, `<section class="footnotes" role="doc-endnotes">`, `<div class="footnotes" role="doc-endnotes">`)
	page = strings.ReplaceAll(page, `</ol></section>`, `</ol></div>`)

	result, err := enh.Enhance(context.Background(), postrender.Input{HTML: page})
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("has sidenotes:", result.Flags.HasSidenotes)
	// Output: has sidenotes: true
}

// ExampleEnhancerPool demonstrates parallel enhancement.
func ExampleEnhancerPool() {
	pool := postrender.NewEnhancerPool(2, nil)
	defer pool.Close()

	pages := []string{examplePage, examplePage, examplePage}
	tocs := make([]int, len(pages))

	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(i int, page string) {
			defer wg.Done()

			enh, err := pool.Acquire()
			if err != nil {
				return
			}
			defer pool.Release(enh)

			result, err := enh.Enhance(context.Background(), postrender.Input{HTML: page})
			if err != nil {
				return
			}
			tocs[i] = len(result.TOC)
		}(i, page)
	}
	wg.Wait()

	fmt.Println(tocs)
	// Output: [3 3 3]
}

// ExampleNewAssetLoader demonstrates loading the runtime from a directory.
func ExampleNewAssetLoader() {
	// Empty path uses only the embedded runtime.
	loader, err := postrender.NewAssetLoader("")
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	style, err := loader.LoadStyle(postrender.DefaultRuntime)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println("style loaded:", len(style) > 0)
	// Output: style loaded: true
}
