// Package registry holds the named HTML fragments a build can reference with
// <template ref="..." />.
//
// A Registry is populated once before any page is processed and is read-only
// afterwards, so concurrent lookups from page workers need no locking.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/htmlssg/htmlssg/internal/logging"
	"github.com/spf13/afero"
)

// TemplatesDir is the directory, relative to the source root, that holds
// fragments.
const TemplatesDir = "templates"

// Registry maps fragment keys to fragment text.
type Registry struct {
	fragments map[string]string
	// files counts registered fragments; a loaded file has two keys.
	files int
}

// New builds a registry from literal fragments keyed exactly as given.
func New(fragments map[string]string) *Registry {
	r := &Registry{fragments: make(map[string]string, len(fragments))}
	for key, content := range fragments {
		r.fragments[key] = content
	}
	r.files = len(r.fragments)
	return r
}

// Load walks <root>/templates for .html files and registers each under both
// its site-relative path and its bare filename. A missing templates directory
// is a warning and yields an empty registry.
func Load(ctx context.Context, fs afero.Fs, root string, logger logging.Logger) (*Registry, error) {
	logger = logger.WithComponent("registry")
	r := &Registry{fragments: make(map[string]string)}

	dir := filepath.Join(root, TemplatesDir)
	if ok, _ := afero.DirExists(fs, dir); !ok {
		logger.Warn(ctx, nil, "Templates directory not found", "dir", dir)
		return r, nil
	}

	var paths []string
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			logger.Warn(ctx, err, "Skipping unreadable template path", "path", path)
			return nil
		}
		if !info.IsDir() && strings.EqualFold(filepath.Ext(path), ".html") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	for _, path := range paths {
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			logger.Warn(ctx, err, "Skipping unreadable template", "path", path)
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		// "/templates/partials/nav.html" and "nav.html"
		key := "/" + filepath.ToSlash(rel)
		name := filepath.Base(path)

		if prev, exists := r.fragments[name]; exists && prev != string(content) {
			logger.Warn(ctx, nil, "Template filename registered twice; later file wins",
				"name", name, "path", key)
		}
		r.fragments[key] = string(content)
		r.fragments[name] = string(content)
		r.files++

		logger.Debug(ctx, "Registered template", "path", key, "name", name)
	}

	logger.Info(ctx, "Templates loaded", "count", r.files)
	return r, nil
}

// Lookup returns the fragment registered under ref, trying ref exactly as
// given.
func (r *Registry) Lookup(ref string) (string, bool) {
	if r == nil {
		return "", false
	}
	content, ok := r.fragments[ref]
	return content, ok
}

// Count returns the number of registered fragments.
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	return r.files
}
