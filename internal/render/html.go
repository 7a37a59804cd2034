package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"talkdeck/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// View carries per-viewer state that is not part of the slide record
type View struct {
	// Index is the zero-based position of the slide in the deck
	Index int
	Total int
	// Editor is the state of the slide's editor, nil for slides without one
	Editor *models.EditorState
	// Revealed reports whether the interactive after panel is shown
	Revealed bool
}

// HTMLRenderer renders slides to HTML fragments for the web client
type HTMLRenderer struct {
	tmpl *template.Template
}

var blockNames = map[BlockKind]string{
	BlockHeading:    "heading",
	BlockHeroImage:  "hero",
	BlockCaption:    "caption",
	BlockImages:     "images",
	BlockBullets:    "bullets",
	BlockCodeEditor: "code-editor",
	BlockVisual:     "visual",
	BlockReveal:     "reveal",
	BlockEditor:     "editor",
	BlockCode:       "code",
	BlockQRGrid:     "qr-grid",
}

type slideData struct {
	ID       string
	Branch   string
	Index    int
	Number   int
	Total    int
	Title    string
	Subtitle string
	Blocks   []blockData
}

type blockData struct {
	Block
	Name     string
	Title    string
	Subtitle string
	AfterID  string
	Revealed bool
	Editor   models.EditorState
}

// NewHTMLRenderer parses the embedded slide templates
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("deck").Funcs(template.FuncMap{
		"inline": InlineHTML,
		"highlight": func(code string) template.HTML {
			return Highlight(code, DefaultLanguage)
		},
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse slide templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// AfterPanelID returns the element id of an interactive slide's after panel
func AfterPanelID(index int) string {
	return fmt.Sprintf("slide-%d-after", index+1)
}

// Render writes the HTML fragment of a slide
func (r *HTMLRenderer) Render(w io.Writer, s models.Slide, view View) error {
	plan := Compose(s)

	editor := models.EditorState{}
	if starter, ok := EditorStarter(s); ok {
		editor.Code = starter
	}
	if view.Editor != nil {
		editor = *view.Editor
	}
	if plan.Branch == BranchEditor {
		// editor slides show the live editor directly
		editor.Open = true
	}

	data := slideData{
		ID:       s.ID,
		Branch:   plan.Branch.String(),
		Index:    view.Index,
		Number:   view.Index + 1,
		Total:    view.Total,
		Title:    plan.Title,
		Subtitle: plan.Subtitle,
	}
	for _, b := range plan.Blocks {
		data.Blocks = append(data.Blocks, blockData{
			Block:    b,
			Name:     blockNames[b.Kind],
			Title:    plan.Title,
			Subtitle: plan.Subtitle,
			AfterID:  AfterPanelID(view.Index),
			Revealed: view.Revealed,
			Editor:   editor,
		})
	}

	if err := r.tmpl.ExecuteTemplate(w, "slide", data); err != nil {
		return fmt.Errorf("failed to render slide %s: %w", s.ID, err)
	}
	return nil
}
