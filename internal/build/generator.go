// Package build drives a full site build: it loads the fragment registry and
// global data once, runs every page through the composition pipeline on a
// bounded worker pool, and copies static assets.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"

	"github.com/htmlssg/htmlssg/internal/compose"
	"github.com/htmlssg/htmlssg/internal/data"
	"github.com/htmlssg/htmlssg/internal/errors"
	"github.com/htmlssg/htmlssg/internal/logging"
	"github.com/htmlssg/htmlssg/internal/markdown"
	"github.com/htmlssg/htmlssg/internal/registry"
)

// Options configures a Generator.
type Options struct {
	SourceDir string
	OutputDir string
	// Workers bounds concurrent page processing; zero means one per CPU.
	Workers int
	// Clean removes the output directory before building.
	Clean bool
}

// Result summarises one build.
type Result struct {
	StartedAt   time.Time           `json:"started_at"`
	Duration    time.Duration       `json:"duration_ns"`
	Pages       []PageResult        `json:"pages"`
	Skipped     []SkippedPage       `json:"skipped"`
	StaticFiles int                 `json:"static_files"`
	Fragments   int                 `json:"fragments"`
	Diagnostics []errors.Diagnostic `json:"diagnostics"`
}

// HasErrors reports whether any error-level diagnostic was recorded.
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity >= errors.SeverityError {
			return true
		}
	}
	return false
}

// Generator builds a site from SourceDir into OutputDir.
type Generator struct {
	fs       afero.Fs
	opts     Options
	logger   logging.Logger
	markdown *markdown.Converter
	metrics  *BuildMetrics
}

// NewGenerator creates a Generator over fs.
func NewGenerator(fs afero.Fs, opts Options, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	opts.SourceDir = filepath.Clean(opts.SourceDir)
	opts.OutputDir = filepath.Clean(opts.OutputDir)

	return &Generator{
		fs:       fs,
		opts:     opts,
		logger:   logger.WithComponent("build"),
		markdown: markdown.New(),
		metrics:  NewBuildMetrics(),
	}
}

// Options returns the generator's effective options.
func (g *Generator) Options() Options {
	return g.opts
}

// Metrics returns build statistics accumulated across calls to Build.
func (g *Generator) Metrics() *BuildMetrics {
	return g.metrics
}

// Build runs a full build. Problems with individual pages, fragments or data
// files are recorded in Result.Diagnostics; only an unusable source or output
// root, or cancellation, is returned as an error.
func (g *Generator) Build(ctx context.Context) (*Result, error) {
	perf := logging.Track(g.logger, "build")
	result, err := g.build(ctx)
	perf.End(ctx)

	g.metrics.RecordBuild(result, err)
	return result, err
}

func (g *Generator) build(ctx context.Context) (*Result, error) {
	start := time.Now()
	root := g.opts.SourceDir

	if err := g.checkRoots(); err != nil {
		return nil, err
	}

	if g.opts.Clean {
		g.logger.Info(ctx, "Cleaning output directory", "output", g.opts.OutputDir)
		if err := g.fs.RemoveAll(g.opts.OutputDir); err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeOutputRoot, "failed to clean output directory").
				WithPath(g.opts.OutputDir)
		}
	}
	if err := g.fs.MkdirAll(g.opts.OutputDir, 0o755); err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeOutputRoot, "failed to create output directory").
			WithPath(g.opts.OutputDir)
	}

	collector := errors.NewCollector()

	fragments, err := registry.Load(ctx, g.fs, root, g.logger)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeReadFile, "failed to load templates").
			WithPath(filepath.Join(root, registry.TemplatesDir))
	}

	loader := data.NewLoader(g.fs, root)
	site, err := loader.LoadSite()
	if err != nil {
		g.logger.Warn(ctx, err, "Ignoring site data")
		collector.Warn(data.SiteFile, "ignoring site data: %v", err)
		site = map[string]any{}
	}

	run := &buildRun{
		engine:    compose.NewEngine(g.fs, root, fragments, loader, g.logger),
		loader:    loader,
		site:      site,
		collector: collector,
	}

	result := &Result{StartedAt: start, Fragments: fragments.Count()}

	pages, skipped, err := g.discover(ctx, collector)
	if err != nil {
		return nil, err
	}
	result.Skipped = skipped

	written, err := g.processPages(ctx, run, pages)
	if err != nil {
		return nil, err
	}
	result.Pages = written

	staticDir := filepath.Join(root, StaticDir)
	if ok, _ := afero.DirExists(g.fs, staticDir); ok {
		copied, err := copyStatic(ctx, g.fs, staticDir, g.opts.OutputDir, func(path string, err error) {
			g.logger.Error(ctx, err, "Failed to copy static file", "path", path)
			collector.Add(errors.Diagnostic{
				File:     g.relToSource(path),
				Message:  "failed to copy static file: " + err.Error(),
				Severity: errors.SeverityError,
			})
		})
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeWriteFile, "failed to copy static files").WithPath(staticDir)
		}
		result.StaticFiles = copied
	} else {
		g.logger.Warn(ctx, nil, "Static directory not found; skipping asset copy", "dir", staticDir)
	}

	result.Diagnostics = collector.Diagnostics()
	result.Duration = time.Since(start)

	g.logger.Info(ctx, "Build complete",
		"pages", len(result.Pages),
		"skipped", len(result.Skipped),
		"static_files", result.StaticFiles,
		"fragments", result.Fragments,
		"warnings", collector.Count(errors.SeverityWarning)-collector.Count(errors.SeverityError),
		"errors", collector.Count(errors.SeverityError),
		"duration", result.Duration,
	)
	return result, nil
}

// checkRoots rejects a missing source root and an output directory that
// would overwrite the sources.
func (g *Generator) checkRoots() error {
	root := g.opts.SourceDir
	info, err := g.fs.Stat(root)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeSourceRoot, "source directory is not readable").WithPath(root)
	}
	if !info.IsDir() {
		return errors.NewIOError(errors.ErrCodeSourceRoot, "source path is not a directory", nil).WithPath(root)
	}

	out := g.opts.OutputDir
	if out == root {
		return errors.NewConfigError(errors.ErrCodeOutputRoot, "output directory must differ from the source directory").
			WithPath(out)
	}
	if rel, err := filepath.Rel(out, root); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.NewConfigError(errors.ErrCodeOutputRoot, "output directory must not contain the source directory").
			WithPath(out)
	}
	return nil
}

// discover lists valid pages and records rejected page files.
func (g *Generator) discover(ctx context.Context, collector *errors.Collector) ([]PageSource, []SkippedPage, error) {
	pagesDir := filepath.Join(g.opts.SourceDir, PagesDir)
	if ok, _ := afero.DirExists(g.fs, pagesDir); !ok {
		g.logger.Warn(ctx, nil, "Pages directory not found; no pages to build", "dir", pagesDir)
		return nil, nil, nil
	}

	pages, skipped, err := DiscoverPages(g.fs, pagesDir)
	if err != nil {
		return nil, nil, errors.WrapIO(err, errors.ErrCodeReadFile, "failed to read pages directory").WithPath(pagesDir)
	}

	for i := range skipped {
		skipped[i].Path = g.relToSource(skipped[i].Path)
		g.logger.Warn(ctx, nil, "Skipping page", "path", skipped[i].Path, "reason", skipped[i].Reason)
		collector.Warn(skipped[i].Path, "skipped page: %s", skipped[i].Reason)
	}

	g.logger.Debug(ctx, "Pages discovered", "count", len(pages), "skipped", len(skipped))
	return pages, skipped, nil
}

// processPages runs pages on a pool of g.opts.Workers goroutines. Results
// keep discovery order. Cancelling ctx stops scheduling further pages.
func (g *Generator) processPages(ctx context.Context, run *buildRun, pages []PageSource) ([]PageResult, error) {
	results := make([]*PageResult, len(pages))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(g.opts.Workers)
	for i, page := range pages {
		if ctx.Err() != nil {
			break
		}
		i, page := i, page
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = g.processPage(ctx, run, page)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("build cancelled: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("build cancelled: %w", err)
	}

	written := make([]PageResult, 0, len(pages))
	for _, r := range results {
		if r != nil {
			written = append(written, *r)
		}
	}
	sort.SliceStable(written, func(i, j int) bool { return written[i].URL < written[j].URL })
	return written, nil
}
