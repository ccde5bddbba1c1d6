// Package markdown converts Markdown page sources into HTML and extracts their
// YAML or TOML front matter.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// Document is a converted Markdown page.
type Document struct {
	// Content is the rendered HTML body.
	Content string
	// FrontMatter holds the parsed front matter; empty when absent.
	FrontMatter map[string]any
	// FrontMatterErr is set when a front matter block was present but could
	// not be parsed. The whole file is then rendered as Markdown.
	FrontMatterErr error
}

// yaml.v3 decodes nested mappings as map[string]any, which is what data
// lookups expect.
var formats = []*frontmatter.Format{
	frontmatter.NewFormat("---", "---", yaml.Unmarshal),
	frontmatter.NewFormat("---yaml", "---", yaml.Unmarshal),
	frontmatter.NewFormat("+++", "+++", toml.Unmarshal),
	frontmatter.NewFormat("---toml", "---", toml.Unmarshal),
}

// Converter renders Markdown with GitHub-flavoured extensions. Raw HTML is
// passed through so template references and iteration blocks written inside
// Markdown survive conversion.
type Converter struct {
	md goldmark.Markdown
}

// New creates a Converter.
func New() *Converter {
	return &Converter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

// Convert splits source into front matter and body and renders the body.
// A missing front matter block yields an empty mapping. Only a rendering
// failure is returned as an error.
func (c *Converter) Convert(source []byte) (*Document, error) {
	doc := &Document{FrontMatter: map[string]any{}}

	var matter map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(source), &matter, formats...)
	switch {
	case err != nil:
		doc.FrontMatterErr = fmt.Errorf("invalid front matter: %w", err)
		body = source
	case matter != nil:
		doc.FrontMatter = matter
	}

	var buf bytes.Buffer
	if err := c.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("failed to render markdown: %w", err)
	}
	doc.Content = buf.String()
	return doc, nil
}
