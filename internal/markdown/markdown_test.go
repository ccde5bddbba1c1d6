package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	c := New()

	t.Run("front matter and body", func(t *testing.T) {
		doc, err := c.Convert([]byte("---\ntitle: Hello\ntags: [a, b]\nauthor:\n  name: Ana\n---\n# Heading\n\nSome *text*.\n"))
		require.NoError(t, err)
		require.NoError(t, doc.FrontMatterErr)

		assert.Equal(t, "Hello", doc.FrontMatter["title"])
		assert.Equal(t, []any{"a", "b"}, doc.FrontMatter["tags"])
		assert.Equal(t, map[string]any{"name": "Ana"}, doc.FrontMatter["author"])
		assert.Contains(t, doc.Content, `<h1 id="heading">Heading</h1>`)
		assert.Contains(t, doc.Content, "<em>text</em>")
		assert.NotContains(t, doc.Content, "title: Hello")
	})

	t.Run("toml front matter", func(t *testing.T) {
		doc, err := c.Convert([]byte("+++\ntitle = \"Hello\"\ndraft = true\n+++\nBody\n"))
		require.NoError(t, err)
		require.NoError(t, doc.FrontMatterErr)

		assert.Equal(t, "Hello", doc.FrontMatter["title"])
		assert.Equal(t, true, doc.FrontMatter["draft"])
		assert.Equal(t, "<p>Body</p>\n", doc.Content)
	})

	t.Run("no front matter", func(t *testing.T) {
		doc, err := c.Convert([]byte("Just **bold**.\n"))
		require.NoError(t, err)
		assert.NoError(t, doc.FrontMatterErr)
		assert.Empty(t, doc.FrontMatter)
		assert.NotNil(t, doc.FrontMatter)
		assert.Equal(t, "<p>Just <strong>bold</strong>.</p>\n", doc.Content)
	})

	t.Run("malformed front matter falls back to the whole file", func(t *testing.T) {
		doc, err := c.Convert([]byte("---\ntitle: [unclosed\n---\nBody\n"))
		require.NoError(t, err)
		assert.Error(t, doc.FrontMatterErr)
		assert.Empty(t, doc.FrontMatter)
		assert.Contains(t, doc.Content, "Body")
	})

	t.Run("raw html passes through", func(t *testing.T) {
		doc, err := c.Convert([]byte("<template ref=\"header.html\" />\n\n<div data-site=\"title\"></div>\n"))
		require.NoError(t, err)
		assert.Contains(t, doc.Content, `<template ref="header.html" />`)
		assert.Contains(t, doc.Content, `<div data-site="title"></div>`)
	})

	t.Run("gfm tables", func(t *testing.T) {
		doc, err := c.Convert([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
		require.NoError(t, err)
		assert.Contains(t, doc.Content, "<table>")
	})
}
