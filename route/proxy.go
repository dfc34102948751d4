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
	"errors"
	"net/url"

	"github.com/deep-rent/conduit/proxy"
	"github.com/deep-rent/conduit/response"
)

var errNoResponseWriter = errors.New(
	"route: the request's context carries no http.ResponseWriter; " +
		"this handler must be reached through a dispatch loop that calls WithResponseWriter",
)

// Proxy builds a Handler that forwards the request to target using
// proxy.NewHandler, writing the upstream response directly to the wire. Like
// Mount, it requires the request's context to carry an http.ResponseWriter.
func Proxy(target *url.URL, opts ...proxy.HandlerOption) Handler {
	h := proxy.NewHandler(target, opts...)
	return HandlerFunc(func(e *Exchange) (any, error) {
		w, ok := ResponseWriterFromContext(e.Context())
		if !ok {
			return nil, response.Wrap(errNoResponseWriter)
		}
		h.ServeHTTP(w, e.Request)
		return response.Written, nil
	})
}
