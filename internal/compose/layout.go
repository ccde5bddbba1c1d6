package compose

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/htmlssg/htmlssg/internal/data"
)

const (
	// LayoutFile is the per-directory layout name.
	LayoutFile = "layout.html"
	// SiteLayoutFile is the outermost layout at the source root.
	SiteLayoutFile = "site.html"
)

var (
	slotPattern        = regexp.MustCompile(`<slot\s*/>`)
	skipLayoutsPattern = regexp.MustCompile(`(?i)data-inherit-layouts\s*=\s*["']false["']`)
)

// SkipsLayouts reports whether source opts out of the layout cascade.
func SkipsLayouts(source string) bool {
	return skipLayoutsPattern.MatchString(source)
}

// DiscoverLayouts walks from dir up to root collecting layout.html files and
// finally the root site.html. The chain is innermost first. The walk never
// leaves root; a dir outside root contributes only site.html.
func DiscoverLayouts(fs afero.Fs, root, dir string) []string {
	root = filepath.Clean(root)
	dir = filepath.Clean(dir)

	var chain []string
	for within(root, dir) {
		candidate := filepath.Join(dir, LayoutFile)
		if isFile(fs, candidate) {
			chain = append(chain, candidate)
		}
		if dir == root {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if site := filepath.Join(root, SiteLayoutFile); isFile(fs, site) {
		chain = append(chain, site)
	}
	return chain
}

// InsertIntoSlot replaces the first <slot /> in layout with content. A
// layout without a slot is returned unchanged and content is dropped.
func InsertIntoSlot(layout, content string) string {
	loc := slotPattern.FindStringIndex(layout)
	if loc == nil {
		return layout
	}
	var sb strings.Builder
	sb.Grow(len(layout) + len(content))
	sb.WriteString(layout[:loc[0]])
	sb.WriteString(content)
	sb.WriteString(layout[loc[1]:])
	return sb.String()
}

// ApplyLayouts wraps content in every layout discovered from dir, innermost
// first. Each layout's own iteration blocks and fragment references are
// processed before the accumulated content is placed in its slot.
// Unreadable layouts are logged and skipped.
func (e *Engine) ApplyLayouts(ctx context.Context, content, dir string, scope data.Context) string {
	lits := &literals{}
	return lits.restore(e.applyLayouts(ctx, content, dir, scope, lits))
}

func (e *Engine) applyLayouts(ctx context.Context, content, dir string, scope data.Context, lits *literals) string {
	for _, path := range DiscoverLayouts(e.fs, e.root, dir) {
		raw, err := afero.ReadFile(e.fs, path)
		if err != nil {
			e.logger.Error(ctx, err, "Failed to read layout", "layout", path)
			continue
		}

		layout := e.expandIterations(ctx, string(raw), scope, lits)
		layout = ResolveRefs(layout, e.fragments)

		if !slotPattern.MatchString(layout) {
			e.logger.Debug(ctx, "Layout has no slot; wrapped content dropped", "layout", path)
		}
		content = InsertIntoSlot(layout, content)
	}
	return content
}

func within(root, dir string) bool {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isFile(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
