package render

import (
	"html/template"
	"regexp"
	"strings"
)

var inlineCodePattern = regexp.MustCompile("`[^`]+`")

// Segment is a run of text that is either plain or inline code
type Segment struct {
	Text string
	Code bool
}

// Segments splits text on backtick-delimited spans. The backticks are
// dropped from code segments; plain text is returned unchanged.
func Segments(text string) []Segment {
	var out []Segment
	appendText := func(t string) {
		if t == "" {
			return
		}
		if n := len(out); n > 0 && !out[n-1].Code {
			out[n-1].Text += t
			return
		}
		out = append(out, Segment{Text: t})
	}

	last := 0
	for _, loc := range inlineCodePattern.FindAllStringIndex(text, -1) {
		appendText(text[last:loc[0]])
		span := text[loc[0]:loc[1]]
		inner := span[1 : len(span)-1]
		if strings.Contains(inner, "\n") {
			// spans never cross lines
			appendText(span)
		} else {
			out = append(out, Segment{Text: inner, Code: true})
		}
		last = loc[1]
	}
	appendText(text[last:])
	return out
}

// InlineHTML renders text with inline code spans wrapped in <code>
func InlineHTML(text string) template.HTML {
	var b strings.Builder
	for _, seg := range Segments(text) {
		if seg.Code {
			b.WriteString(`<code class="inline-code">`)
			b.WriteString(template.HTMLEscapeString(seg.Text))
			b.WriteString(`</code>`)
			continue
		}
		b.WriteString(template.HTMLEscapeString(seg.Text))
	}
	return template.HTML(b.String())
}
