package server

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/htmlssg/htmlssg/internal/build"
)

// StatusPath serves the last build's status page.
const StatusPath = "/__htmlssg/status"

// Status is what the status page renders.
type Status struct {
	Version string
	Result  *build.Result
	Err     error
	Metrics build.BuildMetrics
	Clients int
}

// StatusPage renders s as a standalone HTML document.
func StatusPage(s *Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>htmlssg status</title>`)
		b.WriteString(`<style>body{font-family:system-ui,sans-serif;margin:2rem;}table{border-collapse:collapse;}td,th{padding:.25rem .75rem;text-align:left;border-bottom:1px solid #ddd;}.error{color:#b00020;}.warning{color:#a15c00;}</style>`)
		b.WriteString(`</head><body><h1>htmlssg</h1>`)
		fmt.Fprintf(&b, `<p>Version %s</p>`, templ.EscapeString(s.Version))

		writeMetrics(&b, s)

		switch {
		case s.Err != nil:
			fmt.Fprintf(&b, `<h2>Last build failed</h2><p class="error">%s</p>`, templ.EscapeString(s.Err.Error()))
		case s.Result == nil:
			b.WriteString(`<h2>No build yet</h2>`)
		default:
			writeResult(&b, s.Result)
		}

		b.WriteString(`</body></html>`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeMetrics(b *strings.Builder, s *Status) {
	m := &s.Metrics
	b.WriteString(`<h2>Builds</h2><table>`)
	fmt.Fprintf(b, `<tr><th>Total</th><td>%d</td></tr>`, m.TotalBuilds)
	fmt.Fprintf(b, `<tr><th>Successful</th><td>%d</td></tr>`, m.SuccessfulBuilds)
	fmt.Fprintf(b, `<tr><th>Failed</th><td>%d</td></tr>`, m.FailedBuilds)
	fmt.Fprintf(b, `<tr><th>Success rate</th><td>%.0f%%</td></tr>`, m.GetSuccessRate())
	fmt.Fprintf(b, `<tr><th>Average duration</th><td>%s</td></tr>`, m.AverageDuration.Round(time.Millisecond))
	if !m.LastBuild.IsZero() {
		fmt.Fprintf(b, `<tr><th>Last build</th><td>%s</td></tr>`, m.LastBuild.Format(time.RFC3339))
	}
	fmt.Fprintf(b, `<tr><th>Live reload clients</th><td>%d</td></tr>`, s.Clients)
	b.WriteString(`</table>`)
}

func writeResult(b *strings.Builder, r *build.Result) {
	fmt.Fprintf(b, `<h2>Last build</h2><p>%d pages, %d skipped, %d static files in %s</p>`,
		len(r.Pages), len(r.Skipped), r.StaticFiles, r.Duration.Round(time.Millisecond))

	if len(r.Pages) > 0 {
		b.WriteString(`<h3>Pages</h3><table><tr><th>URL</th><th>Source</th><th>Bytes</th></tr>`)
		for _, p := range r.Pages {
			fmt.Fprintf(b, `<tr><td><a href="%s">%s</a></td><td>%s</td><td>%d</td></tr>`,
				templ.EscapeString(p.URL), templ.EscapeString(p.URL), templ.EscapeString(p.Source), p.Bytes)
		}
		b.WriteString(`</table>`)
	}

	if len(r.Skipped) > 0 {
		b.WriteString(`<h3>Skipped</h3><ul>`)
		for _, s := range r.Skipped {
			fmt.Fprintf(b, `<li>%s: %s</li>`, templ.EscapeString(s.Path), templ.EscapeString(s.Reason))
		}
		b.WriteString(`</ul>`)
	}

	if len(r.Diagnostics) > 0 {
		b.WriteString(`<h3>Diagnostics</h3><ul>`)
		for _, d := range r.Diagnostics {
			fmt.Fprintf(b, `<li class="%s">%s</li>`, d.Severity, templ.EscapeString(d.String()))
		}
		b.WriteString(`</ul>`)
	}
}
