// Package testutils provides site fixtures shared by package tests.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// SiteFiles maps slash-separated paths, relative to a site root, to file
// contents.
type SiteFiles map[string]string

// SampleSite returns a small site exercising every composition feature:
// nested layouts, fragments, iteration, Markdown front matter and an
// opted-out page.
func SampleSite() SiteFiles {
	return SiteFiles{
		"site.json": `{"title":"Sample","description":"A sample site"}`,
		"site.html": `<!DOCTYPE html>
<html>
<head>
<title data-site="title"></title>
<meta name="description" data-site-attr-content="description">
</head>
<body>
<template ref="header.html" />
<slot />
<template ref="/templates/footer.html" />
</body>
</html>
`,
		"templates/header.html": `<header><h1 data-site="title"></h1></header>`,
		"templates/footer.html": `<template><footer>Footer</footer></template>`,
		"templates/card.html":   `<li class="card"><a data-trip-attr-href="url" data-trip="name"></a></li>`,
		"data/trips.json":       `{"trips":[{"name":"Alps","url":"/alps/"},{"name":"Coast","url":"/coast/"}]}`,

		"pages/index/index.md": `---
title: Welcome
---
# Hello

<ul><template data-for-each="trips" data-src="/data/trips.json" data-do="trip"><template ref="card.html" /></template></ul>
`,
		"pages/blog/layout.html":      `<article class="blog"><slot /></article>`,
		"pages/blog/data.json":        `{"blog":{"author":"Ana"}}`,
		"pages/blog/blog.html":        `<p data-blog="author"></p>`,
		"pages/blog/first/first.html": `<h2 data-page="title"></h2>`,
		"pages/raw/raw.html":          `<div data-inherit-layouts="false"><span data-page="name"></span></div>`,
		"pages/loose.md":              `# not a page`,
		"pages/mismatch/other.html":   `<p>wrong name</p>`,
		"static/styles.css":           `body { margin: 0; }`,
		"static/img/logo.svg":         `<svg></svg>`,
	}
}

// WriteSite writes files under root on fs.
func WriteSite(t *testing.T, fs afero.Fs, root string, files SiteFiles) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
}

// NewMemSite returns an in-memory filesystem holding files under root.
func NewMemSite(t *testing.T, root string, files SiteFiles) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	WriteSite(t, fs, root, files)
	return fs
}

// CreateTempSite writes files into a fresh temporary directory on disk and
// returns its path. Used where a real filesystem is needed, such as the
// watcher and the HTTP server.
func CreateTempSite(t *testing.T, files SiteFiles) string {
	t.Helper()
	dir := t.TempDir()
	WriteSite(t, afero.NewOsFs(), dir, files)
	return dir
}

// ReadFile returns the contents of path on fs, failing the test if it cannot
// be read.
func ReadFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	content, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(content)
}

// AssertFileExists fails the test unless path is a regular file on fs.
func AssertFileExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	info, err := fs.Stat(path)
	require.NoError(t, err, "expected %s to exist", path)
	require.False(t, info.IsDir(), "expected %s to be a file", path)
}

// AssertNotExists fails the test if path exists on fs.
func AssertNotExists(t *testing.T, fs afero.Fs, path string) {
	t.Helper()
	_, err := fs.Stat(path)
	require.True(t, os.IsNotExist(err), "expected %s not to exist", path)
}
