// Package slides holds the ordered, read-only slide registry of the deck.
package slides

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"talkdeck/internal/models"
	"talkdeck/internal/render"
)

//go:embed talk.yaml
var talkYAML []byte

// ErrNoSlides is returned when a registry source contains no slides
var ErrNoSlides = errors.New("registry has no slides")

// registryFile represents the root structure of a slides YAML file
type registryFile struct {
	Title  string         `yaml:"title"`
	Slides []models.Slide `yaml:"slides"`
}

// Registry is a fixed ordered sequence of slides. Identity is positional;
// ids are not guaranteed to be unique.
type Registry struct {
	title  string
	slides []models.Slide
}

// Default returns the registry built from the embedded talk content
func Default() *Registry {
	reg, err := Load(bytes.NewReader(talkYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded slides are invalid: %v", err))
	}
	return reg
}

// LoadFile reads a registry from a YAML file on disk
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open slides file: %w", err)
	}
	defer f.Close()

	reg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return reg, nil
}

// Load parses and validates a registry from YAML
func Load(r io.Reader) (*Registry, error) {
	var file registryFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoSlides
		}
		return nil, fmt.Errorf("failed to parse slides: %w", err)
	}
	return New(file.Title, file.Slides)
}

// New builds a registry from an in-memory slide list. The slice is copied.
func New(title string, list []models.Slide) (*Registry, error) {
	if len(list) == 0 {
		return nil, ErrNoSlides
	}

	copied := make([]models.Slide, len(list))
	for i, s := range list {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("slide %d: id is required", i+1)
		}
		if !s.Kind.Valid() {
			return nil, fmt.Errorf("slide %d (%s): unknown kind %q", i+1, s.ID, s.Kind)
		}
		copied[i] = cloneSlide(s)
	}

	return &Registry{title: title, slides: copied}, nil
}

// Title returns the talk title
func (r *Registry) Title() string {
	return r.title
}

// Len returns the number of slides
func (r *Registry) Len() int {
	return len(r.slides)
}

// At returns the slide at a zero-based position
func (r *Registry) At(i int) (models.Slide, bool) {
	if i < 0 || i >= len(r.slides) {
		return models.Slide{}, false
	}
	return cloneSlide(r.slides[i]), true
}

// Slides returns a copy of every slide in order
func (r *Registry) Slides() []models.Slide {
	out := make([]models.Slide, len(r.slides))
	for i, s := range r.slides {
		out[i] = cloneSlide(s)
	}
	return out
}

// DuplicateIDs lists ids that appear on more than one slide, in first-seen order
func (r *Registry) DuplicateIDs() []string {
	seen := make(map[string]int, len(r.slides))
	var dups []string
	for _, s := range r.slides {
		seen[s.ID]++
		if seen[s.ID] == 2 {
			dups = append(dups, s.ID)
		}
	}
	return dups
}

// FindByStorageKey returns the first editor-bearing slide that owns the key
func (r *Registry) FindByStorageKey(key string) (int, models.Slide, bool) {
	for i, s := range r.slides {
		if s.StorageKey() != key {
			continue
		}
		if _, ok := render.EditorStarter(s); ok {
			return i, cloneSlide(s), true
		}
	}
	return -1, models.Slide{}, false
}

func cloneSlide(s models.Slide) models.Slide {
	// empty but present lists are kept non-nil; the renderer treats them as present
	if s.Bullets != nil {
		s.Bullets = append(make([]string, 0, len(s.Bullets)), s.Bullets...)
	}
	if s.Images != nil {
		s.Images = append(make([]string, 0, len(s.Images)), s.Images...)
	}
	if s.QRs != nil {
		s.QRs = append(make([]models.QR, 0, len(s.QRs)), s.QRs...)
	}
	return s
}
