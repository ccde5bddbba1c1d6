package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// SiteFile holds global data, bound under the "site" namespace.
	SiteFile = "site.json"
	// DirectoryFile holds data merged unnamespaced into pages of its directory.
	DirectoryFile = "data.json"
)

// Loader reads JSON data files from a site's source tree.
type Loader struct {
	fs   afero.Fs
	root string
}

// NewLoader creates a loader for files under root.
func NewLoader(fs afero.Fs, root string) *Loader {
	return &Loader{fs: fs, root: filepath.Clean(root)}
}

// Root returns the source root the loader resolves against.
func (l *Loader) Root() string {
	return l.root
}

// Load reads the JSON object stored at path. A missing file yields an empty
// mapping; unreadable or malformed files are errors.
func (l *Loader) Load(path string) (map[string]any, error) {
	content, err := afero.ReadFile(l.fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("failed to load data from %s: %w", path, err)
	}

	if len(bytes.TrimSpace(content)) == 0 {
		return map[string]any{}, nil
	}

	var result map[string]any
	if err := json.Unmarshal(content, &result); err != nil {
		return nil, fmt.Errorf("failed to load data from %s: %w", path, err)
	}
	if result == nil {
		result = map[string]any{}
	}
	return result, nil
}

// LoadSite reads the global site.json at the source root.
func (l *Loader) LoadSite() (map[string]any, error) {
	return l.Load(filepath.Join(l.root, SiteFile))
}

// LoadDirectory reads data.json from dir.
func (l *Loader) LoadDirectory(dir string) (map[string]any, error) {
	return l.Load(filepath.Join(dir, DirectoryFile))
}

// Resolve maps a data-src reference to a path under the source root. Both
// "/data/items.json" and "data/items.json" name the same file; references
// cannot climb above the root.
func (l *Loader) Resolve(src string) string {
	cleaned := path.Clean("/" + strings.TrimSpace(filepath.ToSlash(src)))
	return filepath.Join(l.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))
}

// LoadSource resolves src and loads it.
func (l *Loader) LoadSource(src string) (map[string]any, error) {
	return l.Load(l.Resolve(src))
}
