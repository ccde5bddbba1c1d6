package build

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/htmlssg/htmlssg/internal/compose"
	"github.com/htmlssg/htmlssg/internal/data"
	"github.com/htmlssg/htmlssg/internal/errors"
)

// PageResult describes one written page.
type PageResult struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Output string `json:"output"`
	URL    string `json:"url"`
	Bytes  int    `json:"bytes"`
	// Layouts is false when the page opted out of the layout cascade.
	Layouts bool `json:"layouts"`
}

// buildRun is the build-scoped, read-only state every page worker shares.
type buildRun struct {
	engine    *compose.Engine
	loader    *data.Loader
	site      map[string]any
	collector *errors.Collector
}

// processPage runs one page through the pipeline: read, Markdown conversion,
// data merge, composition and write. Failures are recorded as diagnostics
// and yield a nil result; they never stop other pages.
func (g *Generator) processPage(ctx context.Context, run *buildRun, page PageSource) *PageResult {
	source := g.relToSource(page.Path)
	logger := newDiagnosticLogger(g.logger.With("page", page.Name), run.collector, page.Name, source)

	raw, err := afero.ReadFile(g.fs, page.Path)
	if err != nil {
		logger.Error(ctx, errors.WrapBuild(err, errors.ErrCodeReadFile, "cannot read page", source), "Page skipped")
		return nil
	}

	body := string(raw)
	frontMatter := map[string]any{}
	if page.Markdown {
		doc, err := g.markdown.Convert(raw)
		if err != nil {
			logger.Error(ctx, errors.WrapBuild(err, errors.ErrCodeInvalidData, "cannot convert markdown", source), "Page skipped")
			return nil
		}
		if doc.FrontMatterErr != nil {
			logger.Warn(ctx, doc.FrontMatterErr, "Ignoring front matter")
		}
		body = doc.Content
		frontMatter = doc.FrontMatter
	}

	dirData, err := run.loader.LoadDirectory(page.Dir)
	if err != nil {
		logger.Warn(ctx, err, "Ignoring directory data")
		dirData = map[string]any{}
	}

	scope := data.Merge(
		map[string]any{"site": run.site},
		map[string]any{"page": pageMetadata(page, source, frontMatter)},
		dirData,
		frontMatter,
	)

	html := run.engine.WithLogger(logger.WithComponent("compose")).Compose(ctx, compose.Page{
		Body:           body,
		Dir:            page.Dir,
		InheritLayouts: true,
	}, scope)

	output := page.OutputPath(g.opts.OutputDir)
	if err := g.fs.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		logger.Error(ctx, errors.WrapBuild(err, errors.ErrCodeWriteFile, "cannot create output directory", source),
			"Page skipped", "output", output)
		return nil
	}
	if err := afero.WriteFile(g.fs, output, []byte(html), 0o644); err != nil {
		logger.Error(ctx, errors.WrapBuild(err, errors.ErrCodeWriteFile, "cannot write page", source),
			"Page skipped", "output", output)
		return nil
	}

	logger.Debug(ctx, "Page written", "output", output, "bytes", len(html))

	rel, err := filepath.Rel(g.opts.OutputDir, output)
	if err != nil {
		rel = output
	}
	return &PageResult{
		Name:    page.Name,
		Source:  source,
		Output:  filepath.ToSlash(rel),
		URL:     page.URL(),
		Bytes:   len(html),
		Layouts: !compose.SkipsLayouts(html),
	}
}

// pageMetadata builds the "page" namespace: every scalar front matter value
// plus name, path, url and title.
func pageMetadata(page PageSource, source string, frontMatter map[string]any) map[string]any {
	meta := make(map[string]any, len(frontMatter)+4)
	for k, v := range frontMatter {
		switch v.(type) {
		case map[string]any, []any:
			continue
		}
		meta[k] = v
	}

	meta["name"] = page.Name
	meta["path"] = source
	meta["url"] = page.URL()

	if title, ok := frontMatter["title"].(string); ok && title != "" {
		meta["title"] = title
	} else {
		meta["title"] = TitleFromName(page.Name)
	}
	return meta
}

// TitleFromName turns a page name such as "about-us" into "About Us".
func TitleFromName(name string) string {
	spaced := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return cases.Title(language.English).String(strings.TrimSpace(spaced))
}

// relToSource returns path relative to the source root with forward slashes.
func (g *Generator) relToSource(path string) string {
	rel, err := filepath.Rel(g.opts.SourceDir, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
