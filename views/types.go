package views

import "github.com/a-h/templ"

// Site holds site-wide settings every page shell needs.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
	GitHub      string

	// Widget is rendered at the end of <body> on full page loads. It is the
	// analytics and performance monitor widget; nil disables it.
	Widget templ.Component
}
