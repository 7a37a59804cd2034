package models

// Kind selects the visual template of a slide
type Kind string

const (
	KindTitle       Kind = "title"
	KindBullets     Kind = "bullets"
	KindCode        Kind = "code"
	KindImage       Kind = "image"
	KindFinale      Kind = "finale"
	KindQR          Kind = "qr"
	KindInteractive Kind = "interactive"
	KindEditor      Kind = "editor"
	KindIntro       Kind = "intro"
)

// Kinds lists every slide kind in declaration order
var Kinds = []Kind{
	KindTitle,
	KindBullets,
	KindCode,
	KindImage,
	KindFinale,
	KindQR,
	KindInteractive,
	KindEditor,
	KindIntro,
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// QR represents one tile of a qr slide
type QR struct {
	Label string `json:"label" yaml:"label"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
	URL   string `json:"url,omitempty" yaml:"url,omitempty"`
}

// Slide represents one immutable record of the deck
type Slide struct {
	ID          string   `json:"id" yaml:"id"`
	Kind        Kind     `json:"kind" yaml:"kind"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Subtitle    string   `json:"subtitle,omitempty" yaml:"subtitle,omitempty"`
	Bullets     []string `json:"bullets,omitempty" yaml:"bullets,omitempty"`
	Code        string   `json:"code,omitempty" yaml:"code,omitempty"`
	BeforeCode  string   `json:"beforeCode,omitempty" yaml:"beforeCode,omitempty"`
	AfterCode   string   `json:"afterCode,omitempty" yaml:"afterCode,omitempty"`
	StarterCode string   `json:"starterCode,omitempty" yaml:"starterCode,omitempty"`
	Images      []string `json:"images,omitempty" yaml:"images,omitempty"`
	ImageFirst  bool     `json:"imageFirst,omitempty" yaml:"imageFirst,omitempty"`
	QRs         []QR     `json:"qrs,omitempty" yaml:"qrs,omitempty"`
	Visual      string   `json:"visual,omitempty" yaml:"visual,omitempty"`
}

// StorageKey returns the editor storage key derived from the slide id
func (s Slide) StorageKey() string {
	return "editor:" + s.ID
}
