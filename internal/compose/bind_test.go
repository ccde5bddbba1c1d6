package compose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/htmlssg/htmlssg/internal/data"
)

func TestBind(t *testing.T) {
	scope := data.Context{
		"site": map[string]any{
			"title":       "Home",
			"description": "Hi",
			"quote":       `say "hi" & <wave>`,
			"markup":      "<em>bold</em>",
			"count":       float64(3),
			"ratio":       1.5,
			"draft":       false,
			"tags":        []any{"a", "b"},
			"nothing":     nil,
			"marker":      `<span data-site="title"></span>`,
		},
		"item": map[string]any{"name": "Ana", "url": "/ana/"},
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "attribute binding",
			input: `<meta name="description" data-site-attr-content="description">`,
			want:  `<meta name="description" content="Hi">`,
		},
		{
			name:  "content binding",
			input: `<title data-site="title"></title>`,
			want:  `<title>Home</title>`,
		},
		{
			name:  "missing key binds empty string",
			input: `<h1 data-site="missing"></h1><a data-site-attr-href="missing">x</a>`,
			want:  `<h1></h1><a href="">x</a>`,
		},
		{
			name:  "missing namespace binds empty string",
			input: `<h1 data-trip="name"></h1>`,
			want:  `<h1></h1>`,
		},
		{
			name:  "nil value binds empty string",
			input: `<p data-site="nothing"></p>`,
			want:  `<p></p>`,
		},
		{
			name:  "attribute values are escaped",
			input: `<div data-site-attr-title="quote"></div>`,
			want:  `<div title="say &#34;hi&#34; &amp; &lt;wave&gt;"></div>`,
		},
		{
			name:  "content values are inserted literally",
			input: `<div data-site="markup"></div>`,
			want:  `<div><em>bold</em></div>`,
		},
		{
			name:  "hyphenated attribute names",
			input: `<button data-item-attr-aria-label="name"></button>`,
			want:  `<button aria-label="Ana"></button>`,
		},
		{
			name:  "both syntaxes on one element",
			input: `<a class="x" data-item-attr-href="url" data-item="name"></a>`,
			want:  `<a class="x" href="/ana/">Ana</a>`,
		},
		{
			name:  "self-closing element is cleaned only",
			input: `<div data-site="title" />`,
			want:  `<div />`,
		},
		{
			name:  "void element is cleaned only",
			input: `<img src="x.png" data-site="title">`,
			want:  `<img src="x.png">`,
		},
		{
			name:  "numbers and booleans",
			input: `<span data-site="count"></span><span data-site="ratio"></span><span data-site="draft"></span>`,
			want:  `<span>3</span><span>1.5</span><span>false</span>`,
		},
		{
			name:  "arrays render as JSON",
			input: `<code data-site="tags"></code>`,
			want:  `<code>["a","b"]</code>`,
		},
		{
			name:  "bound markers are not bound again",
			input: `<div data-site="marker"></div>`,
			want:  `<div><span data-site="title"></span></div>`,
		},
		{
			name:  "structural attributes survive",
			input: `<template data-for-each="items" data-src="/d.json" data-do="item"></template>`,
			want:  `<template data-for-each="items" data-src="/d.json" data-do="item"></template>`,
		},
		{
			name:  "angle bracket inside attribute value",
			input: `<a title="a > b" data-site="title"></a>`,
			want:  `<a title="a > b">Home</a>`,
		},
		{
			name:  "marker text inside another attribute value",
			input: `<p a='x data-site="title"'>z</p>`,
			want:  `<p a='x data-site="title"'>z</p>`,
		},
		{
			name:  "attribute marker text inside another attribute value",
			input: `<p title='data-site-attr-href="title"' data-site="title"></p>`,
			want:  `<p title='data-site-attr-href="title"'>Home</p>`,
		},
		{
			name:  "marker text outside a tag",
			input: `<p>data-site="title" and data-site-attr-href="title"</p>`,
			want:  `<p>data-site="title" and data-site-attr-href="title"</p>`,
		},
		{
			name:  "attributes without whitespace between them",
			input: `<p class="a"data-site="title"></p>`,
			want:  `<p class="a">Home</p>`,
		},
		{
			name:  "script text is left alone",
			input: `<script>var s = '<b data-site="title">';</script>`,
			want:  `<script>var s = '<b data-site="title">';</script>`,
		},
		{
			name:  "comments are left alone",
			input: `<!-- <b data-site="title"></b> --><p>x</p>`,
			want:  `<!-- <b data-site="title"></b> --><p>x</p>`,
		},
		{
			name:  "document structure is preserved",
			input: "<!DOCTYPE html>\n<html lang=\"en\">\n<head><title data-site=\"title\"></title></head>\n<body>\n</body>\n</html>\n",
			want:  "<!DOCTYPE html>\n<html lang=\"en\">\n<head><title>Home</title></head>\n<body>\n</body>\n</html>\n",
		},
		{
			name:  "text without markers is untouched",
			input: `<p>plain</p>`,
			want:  `<p>plain</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bind(tt.input, scope))
		})
	}
}

func TestBindAttributesBeforeContent(t *testing.T) {
	scope := data.Context{"site": map[string]any{"content": "C", "title": "T"}}

	got := Bind(`<meta data-site-attr-content="title">`, scope)
	assert.Equal(t, `<meta content="T">`, got)
}

func TestScanAttrs(t *testing.T) {
	tag := `<a href=/x/ title='a > "b"' data-site="title" hidden>`
	attrs := scanAttrs(tag)

	require.Len(t, attrs, 4)
	assert.Equal(t, "href", attrs[0].name)
	assert.Equal(t, "/x/", attrs[0].value)
	assert.Equal(t, "title", attrs[1].name)
	assert.Equal(t, `a > "b"`, attrs[1].value)
	assert.False(t, attrs[1].doubleQuoted)
	assert.Equal(t, "data-site", attrs[2].name)
	assert.True(t, attrs[2].doubleQuoted)
	assert.Equal(t, ` data-site="title"`, tag[attrs[2].start:attrs[2].end])
	assert.Equal(t, "hidden", attrs[3].name)
	assert.Empty(t, attrs[3].value)
}

func TestStringify(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "x", "x"},
		{"int", 42, "42"},
		{"float", float64(2), "2"},
		{"bool", true, "true"},
		{"object", map[string]any{"a": 1}, `{"a":1}`},
		{"context", data.Context{"k": "v"}, `{"k":"v"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.in))
		})
	}
}
