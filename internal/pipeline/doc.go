// Package pipeline implements the post-render enhancement pipeline.
//
// A page is parsed once into a tree (Document), wrapped in a Page that
// carries the markup selectors and the page-level flags, then handed to a
// Runner that applies each Enhancement exactly once, in a fixed order:
//   - TOCBuilder: table of contents from the article h2/h3 headings
//   - SidenoteTransformer: footnote references rewritten as inline sidenotes
//   - BackToTop: back-to-top control tagged for smooth scrolling
//   - KeyboardNav: pagination targets published for arrow-key navigation
//   - ZoomActivation: article images tagged and handed to a ZoomLibrary
//   - DiagramRendering: diagram code blocks handed to a DiagramRenderer
//
// Every enhancement is a no-op when the markup it attaches to is missing.
// When at least one of them changed the page, RuntimeInjection adds the
// style and script that give the markup its browser behavior.
//
// Browser control for diagram prerendering lives in the root postrender
// package, which plugs it in through the DiagramRenderer port.
package pipeline
