// Package internal contains the implementation packages for htmlssg.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - compose: layout composition, fragment expansion, data binding and iteration
//   - data: JSON data loading and the namespace context pages bind against
//   - registry: the fragment registry built from templates/
//   - markdown: front matter parsing and Markdown to HTML conversion
//   - build: page discovery, the per-page pipeline, static copy and metrics
//   - server: the development server, live reload hub and status page
//   - watcher: debounced file system monitoring
//   - scaffolding: project generation for "htmlssg init"
//   - config: layered configuration with validation
//   - logging: structured logging behind a small interface
//   - errors: typed errors and build diagnostics
//   - version: build information injected at link time
//
// # Data Flow
//
// A build runs each page through one pipeline:
//
//   - build discovers pages and loads the fragment registry once
//   - markdown pages are converted and their front matter becomes page data
//   - compose wraps the page in its layouts, then expands fragments, binds
//     values and repeats iteration blocks until nothing is left to resolve
//   - build writes the result and records diagnostics instead of stopping
//
// The server drives the same generator, rebuilding when the watcher reports
// source changes and broadcasting a reload to connected browsers.
//
// # Testing Strategy
//
// Packages test against in-memory afero file systems where possible. Property
// tests built on gopter run with the "property" build tag.
package internal
