package compose

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/htmlssg/htmlssg/internal/data"
	"github.com/spf13/cast"
	"golang.org/x/net/html"
)

var (
	// data-NS-attr-ATTR
	attrBindingName = regexp.MustCompile(`^data-(\w+)-attr-([\w-]+)$`)
	// data-NS
	contentBindingName = regexp.MustCompile(`^data-(\w+)$`)
	bindingKey         = regexp.MustCompile(`^\w+$`)
)

// reservedNamespaces are data-* attributes with structural meaning that must
// survive binding untouched.
var reservedNamespaces = map[string]bool{
	"do":  true,
	"src": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Bind performs the final data binding over text. In every opening tag,
// data-NS-attr-ATTR="KEY" becomes ATTR="value" (HTML-escaped) and
// data-NS="KEY" is stripped with its value inserted right after the cleaned
// tag. Void and self-closing elements are cleaned only. Missing namespaces or
// keys bind the empty string.
//
// Only real attributes count: tags are found with the HTML tokenizer and
// their attributes are scanned outside quotes, so marker-shaped text in
// another attribute's value, a comment or a script is left alone. Output is
// never scanned again.
func Bind(text string, scope data.Context) string {
	return bind(text, scope, nil)
}

// bind is Bind with an optional hook that replaces each inserted content
// value.
func bind(text string, scope data.Context, hold func(string) string) string {
	if !strings.Contains(text, "data-") {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))

	z := html.NewTokenizer(strings.NewReader(text))
	consumed := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				// Should not happen on an in-memory reader; keep the rest as is.
				out.WriteString(text[consumed:])
				return out.String()
			}
			break
		}

		raw := string(z.Raw())
		consumed += len(raw)

		if (tt != html.StartTagToken && tt != html.SelfClosingTagToken) || !strings.Contains(raw, "data-") {
			out.WriteString(raw)
			continue
		}

		name, _ := z.TagName()
		cleaned, values, bound := bindTag(raw, scope)
		out.WriteString(cleaned)
		if bound && tt == html.StartTagToken && !voidElements[string(name)] {
			if hold != nil {
				values = hold(values)
			}
			out.WriteString(values)
		}
	}

	if consumed < len(text) {
		out.WriteString(text[consumed:])
	}
	return out.String()
}

// bindTag rewrites the binding attributes of one raw opening tag. It returns
// the rewritten tag, the concatenated content values, and whether any content
// marker was present.
func bindTag(tag string, scope data.Context) (cleaned, values string, bound bool) {
	var out, vals strings.Builder
	last := 0

	for _, a := range scanAttrs(tag) {
		if !a.doubleQuoted || !bindingKey.MatchString(a.value) {
			continue
		}

		if m := attrBindingName.FindStringSubmatch(a.name); m != nil {
			value, _ := scope.Lookup(m[1], a.value)
			out.WriteString(tag[last:a.nameStart])
			out.WriteString(m[2] + `="` + html.EscapeString(Stringify(value)) + `"`)
			last = a.end
			continue
		}

		if m := contentBindingName.FindStringSubmatch(a.name); m != nil && !reservedNamespaces[m[1]] {
			value, _ := scope.Lookup(m[1], a.value)
			vals.WriteString(Stringify(value))
			out.WriteString(tag[last:a.start])
			last = a.end
			bound = true
		}
	}

	if last == 0 {
		return tag, "", false
	}
	out.WriteString(tag[last:])
	return out.String(), vals.String(), bound
}

// tagAttr locates one attribute inside a raw opening tag. tag[start:end]
// covers the attribute and the whitespace before it.
type tagAttr struct {
	start, nameStart, end int
	name, value          string
	doubleQuoted         bool
}

// scanAttrs splits a raw opening tag into its attributes the way the HTML
// tokenizer does, keeping byte offsets so attributes can be rewritten in
// place.
func scanAttrs(tag string) []tagAttr {
	var attrs []tagAttr
	n := len(tag)

	i := 1
	for i < n && !isTagSpace(tag[i]) && tag[i] != '>' && tag[i] != '/' {
		i++
	}

	for i < n {
		start := i
		for i < n && isTagSpace(tag[i]) {
			i++
		}
		if i >= n || tag[i] == '>' {
			break
		}
		if tag[i] == '/' {
			i++
			continue
		}

		nameStart := i
		for i < n && !isTagSpace(tag[i]) && tag[i] != '=' && tag[i] != '>' && tag[i] != '/' {
			i++
		}
		if i == nameStart {
			i++
			continue
		}
		a := tagAttr{start: start, nameStart: nameStart, name: tag[nameStart:i]}

		j := i
		for j < n && isTagSpace(tag[j]) {
			j++
		}
		if j < n && tag[j] == '=' {
			j++
			for j < n && isTagSpace(tag[j]) {
				j++
			}
			switch {
			case j < n && (tag[j] == '"' || tag[j] == '\''):
				quote := tag[j]
				k := strings.IndexByte(tag[j+1:], quote)
				if k < 0 {
					a.value = tag[j+1:]
					j = n
				} else {
					a.value = tag[j+1 : j+1+k]
					a.doubleQuoted = quote == '"'
					j += k + 2
				}
			default:
				valueStart := j
				for j < n && !isTagSpace(tag[j]) && tag[j] != '>' {
					j++
				}
				a.value = tag[valueStart:j]
			}
			i = j
		}

		a.end = i
		attrs = append(attrs, a)
	}
	return attrs
}

func isTagSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// Stringify renders a data value as binding text. Nil is empty, scalars use
// their natural form, and objects or arrays render as JSON.
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any, data.Context:
		if b, err := json.Marshal(val); err == nil {
			return string(b)
		}
	}

	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprint(v)
}

const (
	literalOpen  = "\uE000"
	literalClose = "\uE001"
)

var literalPattern = regexp.MustCompile(literalOpen + `(\d+)` + literalClose)

// literals keeps content values bound inside iteration blocks away from the
// passes that run after the iteration. Each value is swapped for a
// placeholder and put back once the page is complete.
type literals struct {
	values []string
}

func (l *literals) hold(value string) string {
	if value == "" {
		return ""
	}
	l.values = append(l.values, value)
	return literalOpen + strconv.Itoa(len(l.values)-1) + literalClose
}

func (l *literals) restore(text string) string {
	if len(l.values) == 0 {
		return text
	}
	return literalPattern.ReplaceAllStringFunc(text, func(placeholder string) string {
		i, err := strconv.Atoi(placeholder[len(literalOpen) : len(placeholder)-len(literalClose)])
		if err != nil || i >= len(l.values) {
			return placeholder
		}
		return l.values[i]
	})
}
