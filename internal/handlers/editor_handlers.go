package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"talkdeck/internal/editor"
	"talkdeck/internal/models"
	"talkdeck/internal/services"
)

// EditorHandler handles HTTP requests for the live code editors
type EditorHandler struct {
	svc *services.DeckService
	log *zap.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(svc *services.DeckService, logger *zap.Logger) *EditorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorHandler{svc: svc, log: logger}
}

// EditorResponse represents the state of one editor
type EditorResponse struct {
	Key string `json:"key"`
	models.EditorState
	Display  string           `json:"display"`
	Snippets []models.Snippet `json:"snippets,omitempty"`
}

// SaveCodeRequest represents a draft update
type SaveCodeRequest struct {
	Code *string `json:"code"`
}

// RunRequest carries the draft to run. Without code the saved draft runs.
type RunRequest struct {
	Code *string `json:"code"`
}

func (h *EditorHandler) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	key := mux.Vars(r)["key"]
	if key == "" {
		http.Error(w, "Editor key is required", http.StatusBadRequest)
		return nil, false
	}

	_, slide, found := h.svc.Registry().FindByStorageKey(key)
	if !found {
		http.Error(w, "Editor not found", http.StatusNotFound)
		return nil, false
	}

	sess, ok := h.svc.Editors().Session(ScopeFromContext(r.Context()), slide)
	if !ok {
		http.Error(w, "Editor not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func writeEditor(w http.ResponseWriter, status int, key string, state models.EditorState, withSnippets bool) {
	response := EditorResponse{
		Key:         key,
		EditorState: state,
		Display:     state.Display(),
	}
	if withSnippets {
		response.Snippets = models.PythonSnippets
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// Get returns the editor state with its completion snippets
// GET /api/editor/{key}
func (h *EditorHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeEditor(w, http.StatusOK, sess.Key(), sess.State(), true)
}

// SaveCode replaces the draft
// PUT /api/editor/{key}/code
func (h *EditorHandler) SaveCode(w http.ResponseWriter, r *http.Request) {
	var req SaveCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Code == nil {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeEditor(w, http.StatusOK, sess.Key(), sess.SetCode(*req.Code), false)
}

// Run executes the draft, or replays the cached result for unchanged code.
// The body may carry the code to run, which replaces the draft first.
// POST /api/editor/{key}/run
func (h *EditorHandler) Run(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// an aborted request must not abandon the execution
	ctx := context.WithoutCancel(r.Context())
	var (
		state models.EditorState
		err   error
	)
	if req.Code != nil {
		state, err = sess.RunDraft(ctx, *req.Code)
	} else {
		state, err = sess.Run(ctx)
	}
	switch {
	case errors.Is(err, editor.ErrRunInFlight), errors.Is(err, editor.ErrDiscarded):
		writeEditor(w, http.StatusConflict, sess.Key(), state, false)
	case err != nil:
		h.log.Error("run failed", zap.String("key", sess.Key()), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	default:
		writeEditor(w, http.StatusOK, sess.Key(), state, false)
	}
}

// Reset restores the starter code and clears the cached result
// POST /api/editor/{key}/reset
func (h *EditorHandler) Reset(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	state, err := sess.Reset()
	if errors.Is(err, editor.ErrRunInFlight) {
		writeEditor(w, http.StatusConflict, sess.Key(), state, false)
		return
	}
	writeEditor(w, http.StatusOK, sess.Key(), state, false)
}

// Open expands an embedded editor
// POST /api/editor/{key}/open
func (h *EditorHandler) Open(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeEditor(w, http.StatusOK, sess.Key(), sess.Open(), false)
}

// Close collapses an embedded editor
// POST /api/editor/{key}/close
func (h *EditorHandler) Close(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeEditor(w, http.StatusOK, sess.Key(), sess.Close(), false)
}
