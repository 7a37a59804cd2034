package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"talkdeck/internal/models"
)

func TestMarkdown_Editor(t *testing.T) {
	s := models.Slide{ID: "4b", Kind: models.KindEditor, Title: "Define", Bullets: []string{"use `def`"}, StarterCode: "def greet():\n    pass\n"}

	got := Markdown(s, View{Editor: &models.EditorState{Code: "greet()", Output: "hi"}})

	want := "# Define\n\n- use `def`\n\n```python\ngreet()\n```\n\n**Output**\n\n```text\nhi\n```\n"
	assert.Equal(t, want, got)
}

func TestMarkdown_StarterWithoutView(t *testing.T) {
	s := models.Slide{ID: "4", Kind: models.KindCode, Code: "x = 1"}

	assert.Equal(t, "```python\nx = 1\n```\n", Markdown(s, View{}))
}

func TestMarkdown_RevealHidesAfter(t *testing.T) {
	s := models.Slide{Kind: models.KindInteractive, BeforeCode: "a", AfterCode: "b"}

	collapsed := Markdown(s, View{})
	assert.Contains(t, collapsed, "**Before**")
	assert.NotContains(t, collapsed, "**After**")

	assert.Contains(t, Markdown(s, View{Revealed: true}), "**After**")
}

func TestMarkdown_Placeholders(t *testing.T) {
	assert.Equal(t, "[Photo 1]\n\n[Photo 2]\n", Markdown(models.Slide{Kind: models.KindIntro}, View{}))
	assert.Equal(t, VisualPlaceholder+"\n", Markdown(models.Slide{Kind: models.KindImage}, View{}))
	assert.Equal(t, "- **TikTok**: QR Placeholder\n",
		Markdown(models.Slide{Kind: models.KindQR, QRs: []models.QR{{Label: "TikTok"}}}, View{}))
}
