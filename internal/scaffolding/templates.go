package scaffolding

// ProjectTemplate is one file written by init. Content is a text/template
// executed against TemplateContext.
type ProjectTemplate struct {
	Path    string
	Content string
	// TailwindOnly files are written only with --tailwind.
	TailwindOnly bool
	// PlainOnly files are written only without --tailwind.
	PlainOnly bool
}

// TemplateContext holds the values available to project templates.
type TemplateContext struct {
	Name     string
	Title    string
	Author   string
	Year     int
	Tailwind bool
}

// GetProjectTemplates returns the files of a new project, other than the
// generated site.json and .htmlssg.yml.
func GetProjectTemplates() []ProjectTemplate {
	return []ProjectTemplate{
		{Path: "site.html", Content: siteLayoutTemplate},
		{Path: "pages/index/index.md", Content: indexPageTemplate},
		{Path: "pages/about/about.html", Content: aboutPageTemplate},
		{Path: "templates/header.html", Content: headerTemplate},
		{Path: "templates/footer.html", Content: footerTemplate},
		{Path: "static/styles.css", Content: plainStylesTemplate, PlainOnly: true},
		{Path: "static/styles.css", Content: tailwindOutputTemplate, TailwindOnly: true},
		{Path: "site.css", Content: tailwindSourceTemplate, TailwindOnly: true},
		{Path: ".gitignore", Content: gitignoreTemplate},
	}
}

const siteLayoutTemplate = `<!DOCTYPE html>
<html lang="en">
	<head>
		<meta charset="UTF-8">
		<meta name="viewport" content="width=device-width, initial-scale=1.0">
		<title data-site="title"></title>
		<meta name="description" data-site-attr-content="description">
		<link rel="stylesheet" href="/styles.css">
	</head>
	<body{{if .Tailwind}} class="bg-gray-50 min-h-screen"{{end}}>
		<template ref="header.html" />
		<main{{if .Tailwind}} class="max-w-4xl mx-auto px-4 py-8"{{end}}>
			<slot />
		</main>
		<template ref="footer.html" />
	</body>
</html>
`

const indexPageTemplate = `---
title: Welcome to {{.Title}}
---

# Welcome to {{.Title}}

This is your new htmlssg site.

## Getting started

1. Edit this file: ` + "`pages/index/index.md`" + `
2. Add pages: ` + "`pages/<name>/<name>.md`" + ` or ` + "`pages/<name>/<name>.html`" + `
3. Customize fragments in ` + "`templates/`" + ` and the layout in ` + "`site.html`" + `
4. Run ` + "`htmlssg serve`" + ` to start the development server
`

const aboutPageTemplate = `<section{{if .Tailwind}} class="prose"{{end}}>
	<h1 data-page="title"></h1>
	<p>Written by <span data-site="author"></span>.</p>
</section>
`

const headerTemplate = `<header{{if .Tailwind}} class="bg-white shadow-sm border-b"{{end}}>
	<div{{if .Tailwind}} class="max-w-4xl mx-auto px-4 py-4 flex items-center justify-between"{{end}}>
		<h1{{if .Tailwind}} class="text-2xl font-bold text-gray-900"{{end}} data-site="title"></h1>
		<nav{{if .Tailwind}} class="flex space-x-4"{{end}}>
			<a href="/"{{if .Tailwind}} class="px-3 py-2 text-gray-700 hover:text-blue-600 transition-colors"{{end}}>Home</a>
			<a href="/about/"{{if .Tailwind}} class="px-3 py-2 text-gray-700 hover:text-blue-600 transition-colors"{{end}}>About</a>
		</nav>
	</div>
</header>
`

const footerTemplate = `<footer{{if .Tailwind}} class="mt-12 border-t bg-white"{{end}}>
	<div{{if .Tailwind}} class="max-w-4xl mx-auto px-4 py-6"{{end}}>
		<p{{if .Tailwind}} class="text-center text-gray-600"{{end}}>&copy; {{.Year}} <span data-site="author"></span></p>
	</div>
</footer>
`

const plainStylesTemplate = `/* Basic styles for {{.Title}} */
body {
  font-family: system-ui, -apple-system, sans-serif;
  line-height: 1.6;
  color: #333;
  max-width: 800px;
  margin: 0 auto;
  padding: 20px;
}

header {
  border-bottom: 1px solid #eee;
  margin-bottom: 2rem;
  padding-bottom: 1rem;
}

nav a {
  margin-right: 1rem;
  text-decoration: none;
  color: #666;
}

nav a:hover {
  color: #333;
}

footer {
  border-top: 1px solid #eee;
  margin-top: 2rem;
  padding-top: 1rem;
  text-align: center;
  color: #666;
}
`

const tailwindSourceTemplate = `@import "tailwindcss";

@theme {
  --color-brand: #3b82f6;
}

.prose {
  @apply max-w-none;
}

.prose h1 {
  @apply text-3xl font-bold text-gray-900 mb-4;
}

.prose h2 {
  @apply text-2xl font-semibold text-gray-800 mt-8 mb-3;
}

.prose p {
  @apply text-gray-700 mb-4 leading-relaxed;
}
`

const tailwindOutputTemplate = `/* Generated from site.css:
 *   npx @tailwindcss/cli -i ./site.css -o ./static/styles.css
 */
`

const gitignoreTemplate = `# Build output
dist/

# Editor files
.vscode/
.idea/
*.swp
*.swo
*~

# OS generated files
.DS_Store
Thumbs.db

# Logs
*.log

# Environment variables
.env
.env.local
`
