package build

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/htmlssg/htmlssg/internal/compose"
)

const (
	// PagesDir holds page sources, one directory per page.
	PagesDir = "pages"
	// StaticDir is copied verbatim to the output root.
	StaticDir = "static"
	// OutputFile is written into each page's output directory.
	OutputFile = "index.html"
)

// PageSource is a page file that follows the pages/<name>/<name>.{md,html}
// convention.
type PageSource struct {
	// Name is the page directory's base name.
	Name string
	// Path is the absolute source file path.
	Path string
	// Dir is the page's source directory.
	Dir string
	// RelDir is Dir relative to pages/, with forward slashes.
	RelDir string
	// Markdown is true for .md sources.
	Markdown bool
}

// URL returns the page's site URL, e.g. "/blog/post/".
func (p PageSource) URL() string {
	return "/" + p.RelDir + "/"
}

// OutputPath returns where the page is written under outputDir.
func (p PageSource) OutputPath(outputDir string) string {
	return filepath.Join(outputDir, filepath.FromSlash(p.RelDir), OutputFile)
}

// SkippedPage is a page file rejected before processing.
type SkippedPage struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// DiscoverPages walks pagesDir for .md and .html files and splits them into
// valid pages and rejected files. Files named layout.html are layouts, not
// pages, and are ignored. Results are sorted by path.
func DiscoverPages(fs afero.Fs, pagesDir string) ([]PageSource, []SkippedPage, error) {
	pagesDir = filepath.Clean(pagesDir)

	var files []string
	err := afero.Walk(fs, pagesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Name() == compose.LayoutFile {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".md", ".html":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(files)

	var (
		pages   []PageSource
		skipped []SkippedPage
		seen    = make(map[string]string)
	)

	for _, path := range files {
		ext := filepath.Ext(path)
		base := strings.TrimSuffix(filepath.Base(path), ext)
		dir := filepath.Dir(path)

		if dir == pagesDir {
			skipped = append(skipped, SkippedPage{
				Path:   path,
				Reason: "page files must live in their own directory: pages/<name>/<name>" + ext,
			})
			continue
		}
		if filepath.Base(dir) != base {
			skipped = append(skipped, SkippedPage{
				Path:   path,
				Reason: "page file name must match its directory name " + filepath.Base(dir),
			})
			continue
		}

		rel, err := filepath.Rel(pagesDir, dir)
		if err != nil {
			return nil, nil, err
		}
		rel = filepath.ToSlash(rel)

		if first, dup := seen[rel]; dup {
			skipped = append(skipped, SkippedPage{
				Path:   path,
				Reason: "another source already produces this page: " + first,
			})
			continue
		}
		seen[rel] = path

		pages = append(pages, PageSource{
			Name:     base,
			Path:     path,
			Dir:      dir,
			RelDir:   rel,
			Markdown: strings.EqualFold(ext, ".md"),
		})
	}

	return pages, skipped, nil
}
