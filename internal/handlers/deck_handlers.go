package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"talkdeck/internal/deck"
	"talkdeck/internal/models"
	"talkdeck/internal/services"
	"talkdeck/web"
)

// DeckHandler serves the deck page, slide fragments and the deck summary
type DeckHandler struct {
	svc  *services.DeckService
	page *template.Template
	log  *zap.Logger
}

// NewDeckHandler creates a new deck handler
func NewDeckHandler(svc *services.DeckService, logger *zap.Logger) (*DeckHandler, error) {
	page, err := template.New("index").Parse(web.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DeckHandler{svc: svc, page: page, log: logger}, nil
}

type pageData struct {
	Title    string
	Total    int
	Bindings string
	Initial  template.HTML
}

// Page renders the deck shell with the first slide
// GET /
// GET /deck
func (h *DeckHandler) Page(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Registry()

	var slide bytes.Buffer
	if err := h.svc.RenderSlide(&slide, reg, ScopeFromContext(r.Context()), 0, false); err != nil {
		h.log.Error("failed to render first slide", zap.Error(err))
		http.Error(w, "Failed to render deck", http.StatusInternalServerError)
		return
	}

	bindings, err := json.Marshal(deck.Bindings())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := pageData{
		Title:    reg.Title(),
		Total:    reg.Len(),
		Bindings: string(bindings),
		Initial:  template.HTML(slide.String()),
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.log.Error("failed to render page", zap.Error(err))
		http.Error(w, "Failed to render deck", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// Slide renders one slide as an HTML fragment
// GET /deck/slides/{n}
func (h *DeckHandler) Slide(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Registry()

	n, err := strconv.Atoi(mux.Vars(r)["n"])
	if err != nil || n < 1 || n > reg.Len() {
		http.Error(w, "Slide not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.RenderSlide(&buf, reg, ScopeFromContext(r.Context()), n-1, false); err != nil {
		h.log.Error("failed to render slide", zap.Int("slide", n), zap.Error(err))
		http.Error(w, "Failed to render slide", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// SlideSummary describes one slide in the deck summary
type SlideSummary struct {
	Number int         `json:"number"`
	ID     string      `json:"id"`
	Kind   models.Kind `json:"kind"`
	Title  string      `json:"title,omitempty"`
}

// DeckSummaryResponse represents the deck summary
type DeckSummaryResponse struct {
	Title        string         `json:"title"`
	Total        int            `json:"total"`
	DuplicateIDs []string       `json:"duplicateIds"`
	Bindings     []deck.Binding `json:"bindings"`
	Slides       []SlideSummary `json:"slides"`
}

// Summary returns the deck title, size, key bindings and slide list
// GET /api/deck
func (h *DeckHandler) Summary(w http.ResponseWriter, r *http.Request) {
	reg := h.svc.Registry()

	response := DeckSummaryResponse{
		Title:        reg.Title(),
		Total:        reg.Len(),
		DuplicateIDs: reg.DuplicateIDs(),
		Bindings:     deck.Bindings(),
	}
	// Always return an array, even if empty
	if response.DuplicateIDs == nil {
		response.DuplicateIDs = []string{}
	}
	for i, s := range reg.Slides() {
		response.Slides = append(response.Slides, SlideSummary{Number: i + 1, ID: s.ID, Kind: s.Kind, Title: s.Title})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Health reports liveness
// GET /healthz
func (h *DeckHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": h.svc.ActiveSessions(),
	})
}
