// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package route

import (
	"context"
	"net/http"

	"github.com/deep-rent/conduit/pipeline"
	"github.com/deep-rent/conduit/response"
)

// Mux is the default pipeline.Router, built on http.ServeMux's wildcard
// pattern syntax. Path resolution is delegated to http.ServeMux.ServeHTTP,
// which records the matched pattern and the values of any wildcard segments
// on the request (see http.Request.PathValue); Mux reads those back out in
// Route to build Match.Params.
//
// A Mux only ever registers one http.ServeMux entry per path pattern,
// regardless of how many methods are handled at that path: the method is
// resolved afterwards against the matched controller, which is what lets
// Mux distinguish "no route at this path" (404) from "route exists but not
// for this method" (501) instead of letting ServeMux answer both with its
// own built-in 405 handling.
type Mux struct {
	mux         *http.ServeMux
	controllers map[string]*controller
}

// NewMux creates an empty Mux.
func NewMux() *Mux {
	return &Mux{
		mux:         http.NewServeMux(),
		controllers: map[string]*controller{},
	}
}

// Handle registers handler to serve method requests at pattern, which
// follows http.ServeMux's syntax (e.g. "/users/{id}").
func (m *Mux) Handle(method, pattern string, handler Handler) {
	c := m.controllerFor(pattern)
	c.handlers[method+" "+pattern] = adapt(handler)
}

// HandleFunc is the functional equivalent of Handle.
func (m *Mux) HandleFunc(method, pattern string, handler HandlerFunc) {
	m.Handle(method, pattern, handler)
}

// Mount registers an arbitrary http.Handler to serve every method at
// pattern. Because handler writes to the wire itself, the returned value is
// always response.Written; Mount requires the request's context to carry an
// http.ResponseWriter (see WithResponseWriter), which the server dispatch
// loop attaches before entering the pipeline.
func (m *Mux) Mount(pattern string, handler http.Handler) {
	c := m.controllerFor(pattern)
	c.handlers[anyMethod] = func(ctx context.Context, req *http.Request) (any, error) {
		w, ok := ResponseWriterFromContext(ctx)
		if !ok {
			return nil, response.Wrap(errNoResponseWriter)
		}
		handler.ServeHTTP(w, req.WithContext(ctx))
		return response.Written, nil
	}
}

func (m *Mux) controllerFor(pattern string) *controller {
	if c, ok := m.controllers[pattern]; ok {
		return c
	}
	c := &controller{
		pattern:   pattern,
		wildcards: parseWildcards(pattern),
		handlers:  map[string]pipeline.HandlerFunc{},
	}
	m.controllers[pattern] = c
	// The registered handler does nothing: Route runs ServeMux only to
	// resolve the pattern and wildcard values, and decides 404 vs 501 itself
	// rather than letting ServeMux answer the request.
	m.mux.HandleFunc(pattern, func(http.ResponseWriter, *http.Request) {})
	return c
}

// Route satisfies pipeline.Router.
func (m *Mux) Route(req *http.Request) (pipeline.Match, bool) {
	// Unlike ServeMux.Handler, ServeHTTP sets req.Pattern and the wildcard
	// values read by req.PathValue. Anything ServeMux writes for an
	// unmatched or redirected path goes to discardWriter.
	m.mux.ServeHTTP(discardWriter{}, req)
	pattern := req.Pattern
	if pattern == "" {
		return pipeline.Match{}, false
	}
	c, ok := m.controllers[pattern]
	if !ok {
		return pipeline.Match{}, false
	}

	var params map[string]string
	if len(c.wildcards) > 0 {
		params = make(map[string]string, len(c.wildcards))
		for _, name := range c.wildcards {
			params[name] = req.PathValue(name)
		}
	}

	return pipeline.Match{
		Controller: c,
		Name:       req.Method + " " + pattern,
		Params:     params,
	}, true
}

// discardWriter is the http.ResponseWriter Route hands to ServeMux; it drops
// whatever ServeMux's own not-found or redirect handlers write.
type discardWriter struct{}

func (discardWriter) Header() http.Header         { return http.Header{} }
func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
func (discardWriter) WriteHeader(int)             {}

func adapt(h Handler) pipeline.HandlerFunc {
	return func(ctx context.Context, req *http.Request) (any, error) {
		e := &Exchange{Request: req.WithContext(ctx)}
		return h.ServeHTTP(e)
	}
}
