package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all HTTP routes
func SetupRoutes(deckHandler *DeckHandler, editorHandler *EditorHandler, wsHandler *WebSocketHandler, staticHandler *StaticHandler, sessions *SessionMiddleware) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", deckHandler.Health).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(staticHandler).Methods(http.MethodGet, http.MethodHead)

	// Everything below is scoped to a browser session
	scoped := router.NewRoute().Subrouter()
	scoped.Use(sessions.Handler)

	scoped.HandleFunc("/", deckHandler.Page).Methods(http.MethodGet)
	scoped.HandleFunc("/deck", deckHandler.Page).Methods(http.MethodGet)
	scoped.HandleFunc("/deck/slides/{n:[0-9]+}", deckHandler.Slide).Methods(http.MethodGet)
	scoped.HandleFunc("/ws", wsHandler.ServeWS).Methods(http.MethodGet)

	// Deck API
	api := scoped.PathPrefix("/api").Subrouter()
	api.HandleFunc("/deck", deckHandler.Summary).Methods(http.MethodGet)

	// Editor API
	api.HandleFunc("/editor/{key}", editorHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/editor/{key}/code", editorHandler.SaveCode).Methods(http.MethodPut)
	api.HandleFunc("/editor/{key}/run", editorHandler.Run).Methods(http.MethodPost)
	api.HandleFunc("/editor/{key}/reset", editorHandler.Reset).Methods(http.MethodPost)
	api.HandleFunc("/editor/{key}/open", editorHandler.Open).Methods(http.MethodPost)
	api.HandleFunc("/editor/{key}/close", editorHandler.Close).Methods(http.MethodPost)

	return router
}
