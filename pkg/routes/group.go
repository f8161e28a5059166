// Package routes groups HTTP handlers under shared prefixes and registers
// them on a ServeMux using method-qualified patterns.
package routes

import "net/http"

// Route is a single method and pattern bound to a handler. Patterns follow
// net/http ServeMux syntax and may carry wildcards such as {id}.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// Group represents a collection of routes under a common URL prefix.
// Groups can contain child groups for hierarchical route organization.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}

// Patterns lists every "METHOD /path" pattern in the group, children included.
func (g Group) Patterns() []string {
	return g.patterns("")
}

func (g Group) patterns(parent string) []string {
	prefix := parent + g.Prefix
	out := make([]string, 0, len(g.Routes))
	for _, route := range g.Routes {
		out = append(out, route.Method+" "+prefix+route.Pattern)
	}
	for _, child := range g.Children {
		out = append(out, child.patterns(prefix)...)
	}
	return out
}
