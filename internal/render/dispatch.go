// Package render maps slide records to visual compositions.
//
// Dispatch is evaluated in a fixed order and the first matching predicate
// wins. A bullets slide that carries code takes the code branch, which is
// what existing content depends on.
package render

import (
	"fmt"

	"talkdeck/internal/models"
)

// Branch identifies which composition a slide renders with
type Branch int

const (
	// BranchNone renders the heading only
	BranchNone Branch = iota
	BranchTitle
	BranchBullets
	BranchIntro
	BranchCode
	BranchImage
	BranchInteractive
	BranchEditor
	BranchFinale
	BranchQR
)

var branchNames = map[Branch]string{
	BranchNone:        "none",
	BranchTitle:       "title",
	BranchBullets:     "bullets",
	BranchIntro:       "intro",
	BranchCode:        "code",
	BranchImage:       "image",
	BranchInteractive: "interactive",
	BranchEditor:      "editor",
	BranchFinale:      "finale",
	BranchQR:          "qr",
}

func (b Branch) String() string {
	if name, ok := branchNames[b]; ok {
		return name
	}
	return fmt.Sprintf("branch(%d)", int(b))
}

// Select returns the branch a slide renders with
func Select(s models.Slide) Branch {
	hasCode := s.Code != ""

	switch {
	case s.Kind == models.KindTitle:
		return BranchTitle
	case s.Kind == models.KindBullets && !hasCode:
		return BranchBullets
	case s.Kind == models.KindIntro:
		return BranchIntro
	case s.Kind == models.KindCode,
		hasCode && s.Kind != models.KindQR && s.Kind != models.KindImage && s.Kind != models.KindFinale:
		return BranchCode
	case s.Kind == models.KindImage && !hasCode:
		return BranchImage
	case s.Kind == models.KindInteractive:
		return BranchInteractive
	case s.Kind == models.KindEditor:
		return BranchEditor
	case s.Kind == models.KindFinale:
		return BranchFinale
	case s.Kind == models.KindQR:
		return BranchQR
	}
	return BranchNone
}

// EditorStarter returns the initial editor source of a slide that hosts a
// live editor, either embedded behind "open in editor" or shown directly.
func EditorStarter(s models.Slide) (string, bool) {
	switch Select(s) {
	case BranchCode:
		return s.Code, true
	case BranchEditor:
		return s.StarterCode, true
	}
	return "", false
}

// BlockKind identifies one visual building block
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockHeroImage
	BlockCaption
	BlockImages
	BlockBullets
	BlockCodeEditor
	BlockVisual
	BlockReveal
	BlockEditor
	BlockCode
	BlockQRGrid
)

// VisualPlaceholder is shown on image slides without a visual caption
const VisualPlaceholder = "[visual placeholder]"

// QRPlaceholder is shown in a qr tile without an image
const QRPlaceholder = "QR Placeholder"

// Image represents one image tile; Src is empty for placeholders
type Image struct {
	Src         string
	Alt         string
	Placeholder string
}

// Block is one building block of a composition. Only the fields relevant to
// Kind are populated.
type Block struct {
	Kind       BlockKind
	Text       string
	Bullets    []string
	Images     []Image
	Code       string
	Before     string
	After      string
	StorageKey string
	QRs        []models.QR
}

// Plan is the ordered composition of a slide
type Plan struct {
	Branch   Branch
	Title    string
	Subtitle string
	Blocks   []Block
}

// Compose builds the composition of a slide from its kind and fields
func Compose(s models.Slide) Plan {
	plan := Plan{Branch: Select(s), Title: s.Title, Subtitle: s.Subtitle}
	if s.Title != "" || s.Subtitle != "" {
		plan.Blocks = append(plan.Blocks, Block{Kind: BlockHeading})
	}

	add := func(b Block) { plan.Blocks = append(plan.Blocks, b) }
	bullets := func() {
		if len(s.Bullets) > 0 {
			add(Block{Kind: BlockBullets, Bullets: s.Bullets})
		}
	}
	images := func() { add(Block{Kind: BlockImages, Images: imageGrid(s.Images)}) }

	switch plan.Branch {
	case BranchTitle:
		if len(s.Images) > 0 {
			alt := s.Title
			if alt == "" {
				alt = "Slide image"
			}
			add(Block{Kind: BlockHeroImage, Images: []Image{{Src: s.Images[0], Alt: alt}}})
		}
		if s.Visual != "" {
			add(Block{Kind: BlockCaption, Text: s.Visual})
		}
	case BranchBullets:
		if s.Images != nil && s.ImageFirst {
			images()
		}
		bullets()
		if s.Images != nil && !s.ImageFirst {
			images()
		}
	case BranchIntro:
		if s.ImageFirst {
			images()
			bullets()
		} else {
			bullets()
			images()
		}
	case BranchCode:
		bullets()
		add(Block{Kind: BlockCodeEditor, Code: s.Code, StorageKey: s.StorageKey()})
	case BranchImage:
		text := s.Visual
		if text == "" {
			text = VisualPlaceholder
		}
		add(Block{Kind: BlockVisual, Text: text})
	case BranchInteractive:
		bullets()
		add(Block{Kind: BlockReveal, Before: s.BeforeCode, After: s.AfterCode})
	case BranchEditor:
		bullets()
		add(Block{Kind: BlockEditor, Code: s.StarterCode, StorageKey: s.StorageKey()})
	case BranchFinale:
		bullets()
		add(Block{Kind: BlockCode, Code: s.Code})
	case BranchQR:
		if len(s.QRs) > 0 {
			add(Block{Kind: BlockQRGrid, QRs: s.QRs})
		}
	}

	return plan
}

// imageGrid shows at most two images, or two numbered placeholders
func imageGrid(srcs []string) []Image {
	if len(srcs) == 0 {
		srcs = []string{"", ""}
	}
	if len(srcs) > 2 {
		srcs = srcs[:2]
	}

	out := make([]Image, len(srcs))
	for i, src := range srcs {
		label := fmt.Sprintf("Photo %d", i+1)
		out[i] = Image{Src: src, Alt: label}
		if src == "" {
			out[i].Placeholder = label
		}
	}
	return out
}
