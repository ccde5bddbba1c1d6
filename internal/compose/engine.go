package compose

import (
	"context"
	"path/filepath"

	"github.com/htmlssg/htmlssg/internal/data"
	"github.com/htmlssg/htmlssg/internal/logging"
	"github.com/spf13/afero"
)

// Sources loads the JSON file named by a data-src attribute.
type Sources interface {
	LoadSource(src string) (map[string]any, error)
}

// Engine runs the composition passes for pages of one build. It holds only
// build-scoped, read-only state, so a single Engine may serve many pages
// concurrently.
type Engine struct {
	fs        afero.Fs
	root      string
	fragments Fragments
	sources   Sources
	logger    logging.Logger
}

// NewEngine creates an engine for the site rooted at root.
func NewEngine(fs afero.Fs, root string, fragments Fragments, sources Sources, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		fs:        fs,
		root:      filepath.Clean(root),
		fragments: fragments,
		sources:   sources,
		logger:    logger.WithComponent("compose"),
	}
}

// WithLogger returns a shallow copy of e that logs through logger, typically
// one already carrying page fields.
func (e *Engine) WithLogger(logger logging.Logger) *Engine {
	clone := *e
	clone.logger = logger
	return &clone
}

// Page is the input to Compose.
type Page struct {
	// Body is the page markup, already converted from Markdown if needed.
	Body string
	// Dir is the page's source directory, where layout discovery starts.
	Dir string
	// InheritLayouts false skips the cascade outright. A true value still
	// yields to a data-inherit-layouts="false" marker in the processed body.
	InheritLayouts bool
}

// Compose runs the full pass sequence on a page: iteration, fragment
// references, the layout cascade, and finally data binding. The order is
// fixed; each pass expects the text shape left by the one before it. Values
// bound inside iteration blocks are final: later passes never read them as
// markup.
func (e *Engine) Compose(ctx context.Context, page Page, scope data.Context) string {
	lits := &literals{}

	content := e.expandIterations(ctx, page.Body, scope, lits)
	content = ResolveRefs(content, e.fragments)

	if page.InheritLayouts && !SkipsLayouts(content) {
		content = e.applyLayouts(ctx, content, page.Dir, scope, lits)
	} else {
		e.logger.Debug(ctx, "Layouts disabled for page", "dir", page.Dir)
	}

	content = Bind(content, scope)
	if HasRefs(content) {
		e.logger.Warn(ctx, nil, "Fragment references left unresolved; references inside fragments are not expanded")
	}
	return lits.restore(content)
}
