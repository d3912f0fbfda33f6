package server

import (
	"net/http"
	"strings"
)

// BasicRouter is a [Router] over [http.ServeMux] pattern matching.
type BasicRouter struct {
	mux   *http.ServeMux
	stack []Middleware
}

// NewBasicRouter returns an empty router.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends to the middleware stack. Handlers registered earlier are not rewrapped.
func (r *BasicRouter) Use(mw ...Middleware) {
	r.stack = append(r.stack, mw...)
}

// Handle registers h under a "METHOD /path" pattern; the mux answers 405 for other methods.
func (r *BasicRouter) Handle(method, path string, h http.Handler) {
	r.mux.Handle(strings.ToUpper(method)+" "+path, r.wrap(h))
}

// Handler registers every route h reports, for any method.
func (r *BasicRouter) Handler(h Handler) {
	wrapped := r.wrap(h)
	for _, route := range h.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// wrap applies the stack so the first middleware added runs first.
func (r *BasicRouter) wrap(h http.Handler) http.Handler {
	for i := len(r.stack) - 1; i >= 0; i-- {
		h = r.stack[i](h)
	}
	return h
}
