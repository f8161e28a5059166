package routes

import (
	"log/slog"
	"net/http"
)

// System collects routes and groups and builds the multiplexer.
type System interface {
	RegisterGroup(group Group)
	RegisterRoute(route Route)
	Build() http.Handler
}

type system struct {
	routes []Route
	groups []Group
	logger *slog.Logger
}

func New(logger *slog.Logger) System {
	return &system{
		routes: []Route{},
		groups: []Group{},
		logger: logger.With("system", "routes"),
	}
}

func (s *system) RegisterRoute(route Route) {
	s.routes = append(s.routes, route)
}

func (s *system) RegisterGroup(group Group) {
	s.groups = append(s.groups, group)
}

// Build registers every route on a new ServeMux. Conflicting patterns panic
// inside ServeMux, as with direct registration.
func (s *system) Build() http.Handler {
	mux := http.NewServeMux()

	for _, route := range s.routes {
		mux.HandleFunc(route.Method+" "+route.Pattern, route.Handler)
	}
	for _, group := range s.groups {
		s.registerGroup(mux, "", group)
	}

	return mux
}

func (s *system) registerGroup(mux *http.ServeMux, parent string, group Group) {
	prefix := parent + group.Prefix
	for _, route := range group.Routes {
		pattern := route.Method + " " + prefix + route.Pattern
		mux.HandleFunc(pattern, route.Handler)
		s.logger.Debug("route registered", "pattern", pattern)
	}
	for _, child := range group.Children {
		s.registerGroup(mux, prefix, child)
	}
}
