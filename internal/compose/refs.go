// Package compose implements the text-level composition passes that turn a
// page source into a finished document: fragment references, iteration
// blocks, layout cascades and data binding.
//
// Every pass is a pure rewrite of its input text. Passes never recurse into
// their own output; callers decide how many times to run them.
package compose

import (
	"regexp"
	"strings"
)

// Fragments resolves a reference string to fragment text.
type Fragments interface {
	Lookup(ref string) (string, bool)
}

var (
	templateRefPattern = regexp.MustCompile(`<template\s+ref="([^"]+)"\s*/>`)
	// A fragment file that is exactly one <template> element contributes only
	// its inside.
	templateWrapperPattern = regexp.MustCompile(`(?s)^<template(?:\s[^>]*)?>(.*)</template>$`)
)

// ResolveRefs replaces every <template ref="REF" /> in html with the inner
// markup of the referenced fragment. Unknown references become an HTML
// comment naming the reference. References inside inlined fragments are left
// for a later call.
func ResolveRefs(html string, fragments Fragments) string {
	if !strings.Contains(html, "<template") {
		return html
	}

	return templateRefPattern.ReplaceAllStringFunc(html, func(tag string) string {
		ref := templateRefPattern.FindStringSubmatch(tag)[1]
		if fragments != nil {
			if content, ok := fragments.Lookup(ref); ok {
				return fragmentInner(content)
			}
		}
		return "<!-- Template not found: " + commentSafe(ref) + " -->"
	})
}

// HasRefs reports whether html still contains fragment references.
func HasRefs(html string) bool {
	return templateRefPattern.MatchString(html)
}

// fragmentInner unwraps a fragment that is a single <template> element.
func fragmentInner(content string) string {
	trimmed := strings.TrimSpace(content)
	m := templateWrapperPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return content
	}
	inner := m[1]
	// <template a>..</template><template b>..</template> is two elements, not
	// one wrapper.
	if strings.Contains(inner, "</template>") && strings.Index(inner, "</template>") < openTemplateIndex(inner) {
		return content
	}
	return inner
}

// openTemplateIndex returns the index of the first non-self-closing
// <template opening tag in s, or len(s) when there is none.
func openTemplateIndex(s string) int {
	offset := 0
	for {
		i := strings.Index(s[offset:], "<template")
		if i < 0 {
			return len(s)
		}
		start := offset + i
		end := strings.Index(s[start:], ">")
		if end < 0 {
			return len(s)
		}
		if !strings.HasSuffix(strings.TrimSpace(s[start:start+end]), "/") {
			return start
		}
		offset = start + end + 1
	}
}

// commentSafe keeps text from terminating the HTML comment it is placed in.
func commentSafe(s string) string {
	return strings.ReplaceAll(s, "--", "- -")
}
