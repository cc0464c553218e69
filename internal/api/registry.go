package api

import (
	"fmt"
	"net/http"
)

// Route describes one registered endpoint.
type Route struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequiresInit bool   `json:"requires_init"`
}

func (r Route) String() string {
	return r.Method + " " + r.Path
}

// Registry collects endpoints and mounts them on a mux. A method and path
// pair may be registered once.
type Registry struct {
	endpoints []Endpoint
	routes    []Route
	seen      map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]bool)}
}

// Register adds an endpoint. It fails when another endpoint already serves
// the same method and path.
func (r *Registry) Register(ep Endpoint) error {
	method, path, _ := ep.Route()
	route := Route{Method: method, Path: path, RequiresInit: ep.RequiresInit()}
	if r.seen[route.String()] {
		return fmt.Errorf("duplicate route %s", route)
	}
	r.seen[route.String()] = true
	r.endpoints = append(r.endpoints, ep)
	r.routes = append(r.routes, route)
	return nil
}

// RegisterRoutes mounts every endpoint on mux. Endpoints that need the
// OpenAI-backed services are wrapped with guard.
func (r *Registry) RegisterRoutes(mux *http.ServeMux, guard func(http.HandlerFunc) http.HandlerFunc) {
	for _, ep := range r.endpoints {
		method, path, handler := ep.Route()
		if ep.RequiresInit() {
			handler = guard(handler)
		}
		mux.HandleFunc(method+" "+path, handler)
	}
}

// Endpoints returns the registered endpoints in registration order.
func (r *Registry) Endpoints() []Endpoint {
	return r.endpoints
}

// Routes returns the registered routes in registration order.
func (r *Registry) Routes() []Route {
	out := make([]Route, len(r.routes))
	copy(out, r.routes)
	return out
}
