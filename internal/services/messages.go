package services

import "talkdeck/internal/render"

// Message types exchanged over the deck websocket
const (
	// client to server
	MessageHello      = "hello"
	MessageHashChange = "hashchange"
	MessageKey        = "key"
	MessageGoTo       = "goto"
	MessageReveal     = "reveal"
	MessageRevealed   = "revealed"
	MessageUnreveal   = "unreveal"

	// server to client
	MessageSlide  = "slide"
	MessageHash   = "hash"
	MessageScroll = "scroll"
	MessageReload = "reload"
)

// ClientMessage is a message sent by the browser
type ClientMessage struct {
	Type  string `json:"type"`
	Hash  string `json:"hash,omitempty"`
	Key   string `json:"key,omitempty"`
	Index int    `json:"index,omitempty"`
}

// SlideMessage carries a freshly rendered slide
type SlideMessage struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Total int    `json:"total"`
	ID    string `json:"id"`
	HTML  string `json:"html"`
}

// HashMessage asks the browser to set its URL fragment
type HashMessage struct {
	Type string `json:"type"`
	Hash string `json:"hash"`
}

// ScrollMessage asks the browser to scroll an element into view
type ScrollMessage struct {
	Type string `json:"type"`
	render.ScrollRequest
}

type typedMessage struct {
	Type string `json:"type"`
}
