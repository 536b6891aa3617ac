// Package router wraps chi with a route registry used for introspection
package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/datadict/datadict/internal/web/middleware"
	"github.com/datadict/datadict/internal/web/response"
)

// Router manages HTTP routing using chi
type Router struct {
	mux    chi.Router
	prefix string
	routes *[]RouteInfo
}

// RouteInfo describes a registered route
type RouteInfo struct {
	Method  string
	Pattern string
	Name    string
}

// NewRouter creates a router whose unknown routes and methods render the
// API error envelope
func NewRouter() *Router {
	mux := chi.NewRouter()
	mux.NotFound(response.RenderNotFound)
	mux.MethodNotAllowed(response.RenderMethodNotAllowed)
	return &Router{mux: mux, routes: &[]RouteInfo{}}
}

// ServeHTTP implements http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Use adds middleware that runs after routing, so the matched route pattern
// is visible to it once the handler returns
func (r *Router) Use(middlewares ...middleware.Middleware) {
	for _, m := range middlewares {
		if m != nil {
			r.mux.Use(m)
		}
	}
}

// Get registers a GET route
func (r *Router) Get(pattern, name string, handler http.HandlerFunc) {
	r.handle(http.MethodGet, pattern, name, handler)
}

// Post registers a POST route
func (r *Router) Post(pattern, name string, handler http.HandlerFunc) {
	r.handle(http.MethodPost, pattern, name, handler)
}

// Put registers a PUT route
func (r *Router) Put(pattern, name string, handler http.HandlerFunc) {
	r.handle(http.MethodPut, pattern, name, handler)
}

// Patch registers a PATCH route
func (r *Router) Patch(pattern, name string, handler http.HandlerFunc) {
	r.handle(http.MethodPatch, pattern, name, handler)
}

// Delete registers a DELETE route
func (r *Router) Delete(pattern, name string, handler http.HandlerFunc) {
	r.handle(http.MethodDelete, pattern, name, handler)
}

// Handle mounts a plain handler for GET requests, e.g. the metrics endpoint
func (r *Router) Handle(pattern, name string, handler http.Handler) {
	r.handle(http.MethodGet, pattern, name, handler.ServeHTTP)
}

func (r *Router) handle(method, pattern, name string, handler http.HandlerFunc) {
	r.mux.MethodFunc(method, pattern, handler)
	*r.routes = append(*r.routes, RouteInfo{
		Method:  method,
		Pattern: r.prefix + pattern,
		Name:    name,
	})
}

// Group registers routes under prefix with their own middleware. An empty
// prefix groups routes without mounting a subrouter.
func (r *Router) Group(prefix string, middlewares []middleware.Middleware, fn func(*Router)) {
	register := func(sub chi.Router) {
		for _, m := range middlewares {
			if m != nil {
				sub.Use(m)
			}
		}
		fn(&Router{mux: sub, prefix: r.prefix + prefix, routes: r.routes})
	}

	if prefix == "" {
		r.mux.Group(register)
		return
	}
	r.mux.Route(prefix, register)
}

// Routes returns every registered route ordered by pattern and method
func (r *Router) Routes() []RouteInfo {
	routes := append([]RouteInfo(nil), *r.routes...)
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// Params returns the names of the path parameters of a pattern
func Params(pattern string) []string {
	var params []string
	for _, part := range strings.Split(pattern, "/") {
		if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
			params = append(params, strings.Trim(part, "{}"))
		}
	}
	return params
}
