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

// DispatchRequest runs the request phase for one incoming request: it
// composes mws in declaration order, terminating in view, which resolves
// and runs the view phase. The returned Response is always fully coerced,
// whether it came from a short-circuiting middleware, a propagated error,
// or the handler itself.
func DispatchRequest(
	ctx context.Context,
	req *http.Request,
	mws []Middleware,
	view RequestNext,
) response.Response {
	r, err := requestAt(ctx, req, mws, 0, view)
	if err != nil {
		ae := response.Wrap(err)
		return response.Format(ae, debugFromContext(ctx), internalFromContext(ctx))
	}
	return r
}

func requestAt(
	ctx context.Context,
	req *http.Request,
	mws []Middleware,
	i int,
	final RequestNext,
) (response.Response, error) {
	if i >= len(mws) {
		return final(ctx, req)
	}

	rm, ok := mws[i].(RequestMiddleware)
	if !ok {
		return requestAt(ctx, req, mws, i+1, final)
	}

	next := func(next context.Context, req *http.Request) (response.Response, error) {
		return requestAt(next, req, mws, i+1, final)
	}
	return normalize(rm.ProcessRequest(ctx, req, next))
}

// normalize turns the raw (value, error) pair returned by a middleware or
// handler into a coerced Response, applying the engine-enforced contracts
// from spec.md §4.D: a non-Error failure is replaced by the synthetic error
// from §4.C, an error with no attached status defaults to 500, and a nil
// value with no error (the literal "undefined" outcome) is itself a 500
// failure. Any other value — including the empty string, which legitimately
// coerces to an empty 204 body — is coerced via response.Coerce.
func normalize(v any, err error) (response.Response, error) {
	if err != nil {
		return response.Response{}, response.Wrap(err)
	}
	if v == nil {
		return response.Response{}, response.BadMiddlewareValue()
	}
	return response.Coerce(v), nil
}
