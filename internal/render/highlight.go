package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultLanguage is the language of every code block in the talk
const DefaultLanguage = "python"

var codeFormatter = chromahtml.New(
	chromahtml.WithClasses(false),
	chromahtml.TabWidth(4),
	chromahtml.PreventSurroundingPre(false),
)

// Highlight renders trimmed source as a syntax highlighted <pre> block.
// On any highlighting failure it falls back to escaped plain text.
func Highlight(code, language string) template.HTML {
	code = strings.TrimSpace(code)

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plainCode(code)
	}

	var buf bytes.Buffer
	if err := codeFormatter.Format(&buf, style, iterator); err != nil {
		return plainCode(code)
	}
	return template.HTML(buf.String())
}

func plainCode(code string) template.HTML {
	return template.HTML("<pre><code>" + template.HTMLEscapeString(code) + "</code></pre>")
}
