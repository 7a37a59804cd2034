package render

import (
	"fmt"
	"strings"

	"talkdeck/internal/models"
)

// Markdown renders a slide as markdown for terminal display. Inline code
// spans pass through as markdown code spans.
func Markdown(s models.Slide, view View) string {
	plan := Compose(s)

	editor := models.EditorState{}
	if starter, ok := EditorStarter(s); ok {
		editor.Code = starter
	}
	if view.Editor != nil {
		editor = *view.Editor
	}

	var b strings.Builder
	for _, block := range plan.Blocks {
		switch block.Kind {
		case BlockHeading:
			if plan.Title != "" {
				fmt.Fprintf(&b, "# %s\n\n", plan.Title)
			}
			if plan.Subtitle != "" {
				fmt.Fprintf(&b, "*%s*\n\n", plan.Subtitle)
			}
		case BlockHeroImage, BlockImages:
			for _, img := range block.Images {
				if img.Src == "" {
					fmt.Fprintf(&b, "[%s]\n\n", img.Placeholder)
					continue
				}
				fmt.Fprintf(&b, "![%s](%s)\n\n", img.Alt, img.Src)
			}
		case BlockCaption, BlockVisual:
			fmt.Fprintf(&b, "%s\n\n", block.Text)
		case BlockBullets:
			for _, bullet := range block.Bullets {
				fmt.Fprintf(&b, "- %s\n", bullet)
			}
			b.WriteString("\n")
		case BlockCodeEditor, BlockEditor:
			writeFence(&b, editor.Code, DefaultLanguage)
			if out := editor.Display(); out != "" {
				b.WriteString("**Output**\n\n")
				writeFence(&b, out, "text")
			}
		case BlockCode:
			writeFence(&b, block.Code, DefaultLanguage)
		case BlockReveal:
			b.WriteString("**Before**\n\n")
			writeFence(&b, block.Before, DefaultLanguage)
			if view.Revealed {
				b.WriteString("**After**\n\n")
				writeFence(&b, block.After, DefaultLanguage)
			}
		case BlockQRGrid:
			for _, qr := range block.QRs {
				target := qr.URL
				if target == "" {
					target = QRPlaceholder
				}
				fmt.Fprintf(&b, "- **%s**: %s\n", qr.Label, target)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeFence(b *strings.Builder, code, language string) {
	fmt.Fprintf(b, "```%s\n%s\n```\n\n", language, strings.TrimSpace(code))
}
