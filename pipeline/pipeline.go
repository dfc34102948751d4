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

// Package pipeline implements the three-phase middleware engine: a
// server-install phase that wraps the lifetime of a listener, a request
// phase that wraps every incoming request, and a view phase that wraps the
// matched route's handler.
//
// A Middleware is any value that optionally implements ServerMiddleware,
// RequestMiddleware, and/or ViewMiddleware; a middleware missing a given
// phase's interface is simply skipped during that phase. Each phase is
// composed as a chain of continuations: the middleware at index i receives
// a next function that, when called, runs the rest of the chain (indices
// i+1.. and finally the terminal operation) and returns its result. Because
// this is plain recursive Go, code written before calling next executes in
// declaration order and code written after calling next unwinds in reverse
// declaration order, with no bookkeeping required beyond the call stack
// itself.
package pipeline

import (
	"context"
	"net/http"

	"github.com/deep-rent/conduit/response"
)

// Middleware is a value that participates in one or more of the three
// lifecycle phases. It is typically a ServerMiddleware, RequestMiddleware,
// or ViewMiddleware, or any combination of the three; the engine type-
// asserts against each interface per phase and skips middleware that
// doesn't implement it.
type Middleware = any

// ServerNext invokes the remainder of the server-install chain, returning
// once the whole chain (including every inner middleware's teardown) has
// unwound.
type ServerNext func(ctx context.Context) error

// ServerMiddleware participates in the server-install phase. S is the
// concrete handle type threaded through the chain — ordinarily the type
// that owns the listener lifecycle (e.g. *server.Server) — so middleware can
// access it without a type assertion.
type ServerMiddleware[S any] interface {
	// ProcessServer runs once when the listener starts listening. It must
	// eventually call next to let the rest of the chain run; code after the
	// call to next executes once the listener has closed, in strict LIFO
	// order with respect to installation.
	ProcessServer(ctx context.Context, handle S, next ServerNext) error
}

// RequestNext invokes the remainder of the request-phase chain (and,
// eventually, the view phase) and returns an already-coerced Response, so a
// RequestMiddleware never has to call Coerce itself.
type RequestNext func(ctx context.Context, req *http.Request) (response.Response, error)

// RequestMiddleware participates in the request phase, once per incoming
// request.
type RequestMiddleware interface {
	// ProcessRequest may call next, return a value directly to short-circuit
	// the rest of the request phase (and the view phase entirely), or
	// return an error. Its return value is coerced before the enclosing
	// middleware observes it as the result of its own call to next.
	ProcessRequest(ctx context.Context, req *http.Request, next RequestNext) (any, error)
}

// ViewNext invokes the remainder of the view-phase chain and returns an
// already-coerced Response, so a ViewMiddleware never has to call Coerce
// itself; the innermost call runs the matched handler itself.
type ViewNext func(ctx context.Context, req *http.Request) (response.Response, error)

// ViewMiddleware participates in the view phase, once per request that
// successfully matched a route.
type ViewMiddleware interface {
	// ProcessView may call next to run the handler (or the rest of the view
	// chain), return its own value to short-circuit the handler, or return
	// an error to skip the handler entirely.
	ProcessView(ctx context.Context, req *http.Request, match Match, next ViewNext) (any, error)
}

// HandlerFunc is the terminal operation of the view phase: given the
// matched route and the request, produce a handler result (or fail). A
// Controller resolves the HandlerFunc for a matched route name.
type HandlerFunc func(ctx context.Context, req *http.Request) (any, error)

// Controller looks up the HandlerFunc registered under a route name, such as
// "GET /users/{id}". It reports false if no handler is registered for name,
// which the view phase reports to the client as 501 Not Implemented.
type Controller interface {
	Handler(name string) (HandlerFunc, bool)
}

// Match is the result of resolving a request to a route.
type Match struct {
	// Controller holds the handlers registered for the matched route.
	Controller Controller
	// Name identifies the matched route; the view phase passes it to
	// Controller.Handler to find the handler.
	Name string
	// Params holds path parameters extracted from the route pattern.
	Params map[string]string
}

// Router resolves an incoming request to a Match. It reports false if no
// route matches, which the request phase reports to the client as 404.
type Router interface {
	Route(req *http.Request) (Match, bool)
}
