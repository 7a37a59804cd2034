package handlers

import (
	"io/fs"
	"net/http"

	"talkdeck/web"
)

// StaticHandler serves the embedded client assets
type StaticHandler struct {
	files http.Handler
}

// NewStaticHandler creates a new static handler
func NewStaticHandler() *StaticHandler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return &StaticHandler{files: http.StripPrefix("/static/", http.FileServer(http.FS(sub)))}
}

// ServeHTTP serves a file under /static/
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	h.files.ServeHTTP(w, r)
}
