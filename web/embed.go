package web

import "embed"

// Index is the page shell template served for the deck
//
//go:embed index.html
var Index string

// StaticFS holds the client script and stylesheet
//
//go:embed static
var StaticFS embed.FS
