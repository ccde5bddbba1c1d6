package compose

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/htmlssg/htmlssg/internal/data"
)

var (
	iterationPattern = regexp.MustCompile(`(?s)<template\s+[^>]*data-for-each="([^"]+)"[^>]*>(.*?)</template>`)
	dataSrcPattern   = regexp.MustCompile(`\sdata-src="([^"]+)"`)
	dataDoPattern    = regexp.MustCompile(`\sdata-do="([^"]+)"`)
)

// iteration is one parsed data-for-each block.
type iteration struct {
	key      string // data-for-each
	src      string // data-src
	variable string // data-do
	body     string
}

// parseIteration reads the block at m, a match of iterationPattern in html.
func parseIteration(html string, m []int) iteration {
	openTag := html[m[0]:m[4]]
	it := iteration{key: html[m[2]:m[3]], body: html[m[4]:m[5]]}
	if sm := dataSrcPattern.FindStringSubmatch(openTag); sm != nil {
		it.src = sm[1]
	}
	if sm := dataDoPattern.FindStringSubmatch(openTag); sm != nil {
		it.variable = sm[1]
	}
	return it
}

// ExpandIterations replaces every data-for-each block in html with its body
// repeated once per item of the referenced array. Each repetition sees scope
// plus the item bound under the block's data-do name, has its fragment
// references resolved, and is bound before the copies are concatenated.
//
// Blocks missing data-src or data-do are left in place. A block whose data
// cannot be loaded is replaced by an error comment; other blocks still
// expand.
func (e *Engine) ExpandIterations(ctx context.Context, html string, scope data.Context) string {
	lits := &literals{}
	return lits.restore(e.expandIterations(ctx, html, scope, lits))
}

// expandIterations is ExpandIterations with content values bound inside the
// blocks held in lits.
func (e *Engine) expandIterations(ctx context.Context, html string, scope data.Context, lits *literals) string {
	if !strings.Contains(html, "data-for-each") {
		return html
	}

	matches := iterationPattern.FindAllStringSubmatchIndex(html, -1)
	if matches == nil {
		return html
	}

	var out strings.Builder
	out.Grow(len(html))
	last := 0

	for _, m := range matches {
		start, end := m[0], m[1]
		it := parseIteration(html, m)

		out.WriteString(html[last:start])
		last = end

		if it.src == "" || it.variable == "" {
			e.logger.Warn(ctx, nil, "Template iteration missing required data-src or data-do attributes",
				"for_each", it.key)
			out.WriteString(html[start:end])
			continue
		}

		expanded, err := e.expandIteration(ctx, it, scope, lits)
		if err != nil {
			e.logger.Error(ctx, err, "Error processing iteration",
				"for_each", it.key, "src", it.src)
			out.WriteString("<!-- Error: " + commentSafe(err.Error()) + " -->")
			continue
		}
		out.WriteString(expanded)
	}

	out.WriteString(html[last:])
	return out.String()
}

// expandIteration renders one block. Panics from binding are reported as
// errors so a single bad block cannot take the page down.
func (e *Engine) expandIteration(ctx context.Context, it iteration, scope data.Context, lits *literals) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("iteration over %q panicked: %v", it.key, r)
		}
	}()

	source, err := e.sources.LoadSource(it.src)
	if err != nil {
		return "", err
	}

	items, ok := source[it.key].([]any)
	if !ok {
		e.logger.Warn(ctx, nil, "Data source does not contain an array for key",
			"src", it.src, "for_each", it.key)
		return "", nil
	}

	// References do not depend on the item, so resolve them once.
	body := ResolveRefs(it.body, e.fragments)

	var out strings.Builder
	for _, item := range items {
		out.WriteString(bind(body, scope.With(it.variable, item), lits.hold))
	}
	return out.String(), nil
}
