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
	"net/url"

	"github.com/deep-rent/conduit/header"
	"github.com/deep-rent/conduit/response"
	"github.com/goccy/go-json"
)

const (
	// MediaTypeJSON is the media type BindJSON and the JSON convenience
	// responses require.
	MediaTypeJSON = "application/json"
	// MediaTypeForm is the media type ReadForm requires.
	MediaTypeForm = "application/x-www-form-urlencoded"
)

// Exchange wraps the request side of an HTTP exchange for use by a Handler.
// Unlike a conventional exchange type, it carries no http.ResponseWriter: a
// Handler communicates its result by returning a value, which the engine
// coerces into a Response and writes. This keeps every handler testable
// without a ResponseRecorder and lets middleware observe and rewrite a
// handler's result before it reaches the wire.
type Exchange struct {
	Request *http.Request
}

// Context returns the request's context.
func (e *Exchange) Context() context.Context { return e.Request.Context() }

// Method returns the HTTP method (GET, POST, etc.) of the request.
func (e *Exchange) Method() string { return e.Request.Method }

// URL returns the full URL of the request.
func (e *Exchange) URL() *url.URL { return e.Request.URL }

// Path returns the URL path of the request.
func (e *Exchange) Path() string { return e.Request.URL.Path }

// Param retrieves a path parameter extracted from the route pattern (e.g.
// "GET /users/{id}"). Returns an empty string if name has no match.
func (e *Exchange) Param(name string) string { return e.Request.PathValue(name) }

// Query parses the URL query parameters of the request. Malformed pairs are
// silently discarded.
func (e *Exchange) Query() url.Values { return e.Request.URL.Query() }

// Header returns the HTTP headers of the request.
func (e *Exchange) Header() http.Header { return e.Request.Header }

// GetHeader retrieves a specific header value from the request.
func (e *Exchange) GetHeader(key string) string { return e.Request.Header.Get(key) }

// BindJSON decodes the request body into v. It enforces that the request
// carries a JSON content type and a non-empty body before attempting to
// unmarshal, returning a *response.Error describing whichever check failed.
func (e *Exchange) BindJSON(v any) error {
	if t := header.MediaType(e.Request.Header); t != MediaTypeJSON {
		return &response.Error{
			Status:  http.StatusUnsupportedMediaType,
			Message: "content-type must be " + MediaTypeJSON,
		}
	}
	if e.Request.Body == nil || e.Request.Body == http.NoBody {
		return &response.Error{
			Status:  http.StatusBadRequest,
			Message: "empty request body",
		}
	}
	if err := json.NewDecoder(e.Request.Body).Decode(v); err != nil {
		return &response.Error{
			Status:  http.StatusBadRequest,
			Message: "malformed JSON body",
			Cause:   err,
		}
	}
	return nil
}

// ReadForm parses the request body as URL-encoded form data and returns the
// values. Unlike http.Request.FormValue, this only ever consults the body
// (PostForm), never the URL's query string, which matters for protocols
// like OAuth where query-parameter injection must not leak into form
// handling.
func (e *Exchange) ReadForm() (url.Values, error) {
	if t := header.MediaType(e.Request.Header); t != MediaTypeForm {
		return nil, &response.Error{
			Status:  http.StatusUnsupportedMediaType,
			Message: "content-type must be " + MediaTypeForm,
		}
	}
	if err := e.Request.ParseForm(); err != nil {
		return nil, &response.Error{
			Status:  http.StatusBadRequest,
			Message: "malformed form data",
			Cause:   err,
		}
	}
	return e.Request.PostForm, nil
}

// JSON builds a JSON Response with the given status code.
func (e *Exchange) JSON(code int, v any) (any, error) {
	return response.MakeJSON(v).WithStatus(code), nil
}

// Redirect builds a redirect Response to url, which may be a path relative
// to the request path. code should be in the 3xx range.
func (e *Exchange) Redirect(url string, code int) (any, error) {
	return response.MakeEmpty().WithStatus(code).WithHeader("Location", url), nil
}

// RedirectTo constructs a URL by merging base with params and builds a
// redirect Response to it. Useful for OAuth-style callbacks.
func (e *Exchange) RedirectTo(base string, params url.Values, code int) (any, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, &response.Error{
			Status:  http.StatusInternalServerError,
			Message: "invalid redirect target",
			Cause:   err,
		}
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return e.Redirect(u.String(), code)
}
