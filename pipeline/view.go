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

package pipeline

import (
	"context"
	"net/http"

	"github.com/deep-rent/conduit/response"
)

// View resolves req against router and, on a match, runs the view phase:
// mws compose in declaration order around the matched handler. It returns a
// RequestNext suitable as the terminal step of the request phase, so
// DispatchRequest's final coercion and error formatting apply uniformly to
// 404s, 501s, view-middleware short-circuits, and handler results alike.
func View(router Router, mws []Middleware) RequestNext {
	return func(ctx context.Context, req *http.Request) (response.Response, error) {
		match, ok := router.Route(req)
		if !ok {
			return response.Response{}, response.NotFound()
		}

		handle, ok := match.Controller.Handler(match.Name)
		if !ok {
			return response.Response{}, response.NotImplemented(req.Method, req.URL.Path)
		}

		final := func(ctx context.Context, req *http.Request) (any, error) {
			return handle(ctx, req)
		}
		return viewAt(ctx, req, match, mws, 0, final)
	}
}

func viewAt(
	ctx context.Context,
	req *http.Request,
	match Match,
	mws []Middleware,
	i int,
	final HandlerFunc,
) (response.Response, error) {
	if i >= len(mws) {
		return normalize(final(ctx, req))
	}

	vm, ok := mws[i].(ViewMiddleware)
	if !ok {
		return viewAt(ctx, req, match, mws, i+1, final)
	}

	next := func(next context.Context, req *http.Request) (response.Response, error) {
		return viewAt(next, req, match, mws, i+1, final)
	}
	return normalize(vm.ProcessView(ctx, req, match, next))
}
