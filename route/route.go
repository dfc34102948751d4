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

// Package route provides a default Router and Controller built on
// http.ServeMux's method-and-wildcard pattern syntax, plus an Exchange
// convenience wrapper around the request for handlers to use.
//
// Unlike a conventional router, a route.Handler never writes to the wire
// directly: it returns a value (or error) that the engine coerces and
// writes. Route.Proxy and Mux.Mount are the two exceptions that must write
// directly — they use the response.Written escape hatch (spec.md §4.G).
package route

import (
	"context"
	"net/http"
)

// Handler defines the interface for HTTP request handlers used by the
// default Mux. Unlike http.Handler, it returns a value that the engine
// coerces into a Response, so handlers never touch an http.ResponseWriter
// directly.
type Handler interface {
	ServeHTTP(e *Exchange) (any, error)
}

// HandlerFunc adapts an ordinary function to Handler.
type HandlerFunc func(e *Exchange) (any, error)

// ServeHTTP satisfies Handler.
func (f HandlerFunc) ServeHTTP(e *Exchange) (any, error) { return f(e) }

var _ Handler = HandlerFunc(nil)

type ctxKey int

const keyWriter ctxKey = 0

// WithResponseWriter attaches w to ctx so that Proxy and Mount, the two
// handlers that must write directly to the wire, can retrieve it. The
// server dispatch loop attaches it once per request before entering the
// pipeline; ordinary handlers never need to call this.
func WithResponseWriter(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, keyWriter, w)
}

// ResponseWriterFromContext retrieves the http.ResponseWriter attached by
// WithResponseWriter, if any.
func ResponseWriterFromContext(ctx context.Context) (http.ResponseWriter, bool) {
	w, ok := ctx.Value(keyWriter).(http.ResponseWriter)
	return w, ok
}
