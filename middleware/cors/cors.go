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

// Package cors implements Cross-Origin Resource Sharing as a
// pipeline.RequestMiddleware: on an actual request it attaches CORS headers
// to the coerced Response; on a preflight OPTIONS request it short-circuits
// the request phase with an empty 204 Response, matching spec.md's
// short-circuit semantics for request-phase middleware.
package cors

import (
	"context"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/deep-rent/conduit/pipeline"
	"github.com/deep-rent/conduit/response"
)

// wildcard is a special value that can be passed in configuration to allow
// requests from any origin.
const wildcard = "*"

// config stores the pre-computed configuration for internal use.
type config struct {
	allowedOrigins   map[string]struct{}
	allowedMethods   string
	allowedHeaders   string
	exposedHeaders   string
	allowCredentials bool
	maxAge           string
}

// Option is a function that configures the CORS middleware.
type Option func(*config)

// WithAllowedOrigins sets the allowed origins for CORS requests.
//
// By default, all origins are allowed. The same behavior can be achieved by
// leaving the list empty or by manually including the special wildcard "*".
// In other cases, this option restricts requests to a specific whitelist. If
// credentials are enabled via WithAllowCredentials, browsers forbid a wildcard
// origin, and this middleware will dynamically reflect the request's Origin
// header if it is in the allowed list.
func WithAllowedOrigins(origins ...string) Option {
	return func(c *config) {
		if len(origins) != 0 && !slices.Contains(origins, wildcard) {
			c.allowedOrigins = make(map[string]struct{}, len(origins))
			for _, origin := range origins {
				c.allowedOrigins[origin] = struct{}{}
			}
		}
	}
}

// WithAllowedMethods sets the allowed HTTP methods for CORS requests.
//
// If no methods are provided, this header is omitted by default, and only
// simple methods (GET, POST, HEAD) are implicitly allowed by browsers for
// non-preflighted requests. It is recommended to list all methods your API
// supports, including OPTIONS.
func WithAllowedMethods(methods ...string) Option {
	return func(c *config) {
		if len(methods) != 0 {
			c.allowedMethods = strings.Join(methods, ", ")
		}
	}
}

// WithAllowedHeaders sets the allowed HTTP headers for CORS requests.
//
// This is necessary for any non-standard headers the client needs to send,
// such as "Authorization" or custom "X-" headers. If not set, browsers will
// only permit requests with CORS-safelisted request headers.
func WithAllowedHeaders(headers ...string) Option {
	return func(c *config) {
		if len(headers) != 0 {
			c.allowedHeaders = strings.Join(headers, ", ")
		}
	}
}

// WithExposedHeaders sets the HTTP headers that are safe to expose to the
// API of a CORS API specification.
//
// By default, client-side scripts can only access a limited set of simple
// response headers. This option lists additional headers (like a custom
// "X-Pagination-Total" header) that should be made accessible to the script.
func WithExposedHeaders(headers ...string) Option {
	return func(c *config) {
		if len(headers) != 0 {
			c.exposedHeaders = strings.Join(headers, ", ")
		}
	}
}

// WithAllowCredentials indicates whether the response to the request can be
// exposed when the credentials flag is true.
//
// When used as part of a response to a preflight request, it indicates that the
// actual request can include cookies and other user credentials. This option
// defaults to false. Note that browsers require a specific origin (not a
// wildcard) in the Access-Control-Allow-Origin header when this is enabled.
func WithAllowCredentials(allow bool) Option {
	return func(c *config) {
		c.allowCredentials = allow
	}
}

// WithMaxAge indicates how long the results of a preflight request can be
// cached by the browser, in seconds.
//
// If set to 0 (the default), the header is omitted. Be aware that browsers
// have a default internal limit (usually 5 seconds) when this header is
// missing. This results in a preflight request for almost every API call, which
// can double the traffic to your server. It is recommended to set this to a
// higher value (e.g., 10 minutes) for stable APIs to reduce latency.
func WithMaxAge(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.maxAge = strconv.FormatInt(int64(d.Seconds()), 10)
		}
	}
}

// New creates a pipeline.RequestMiddleware that handles CORS based on the
// provided options.
func New(opts ...Option) pipeline.RequestMiddleware {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return corsMiddleware{cfg: cfg}
}

type corsMiddleware struct {
	cfg config
}

func (m corsMiddleware) ProcessRequest(
	ctx context.Context, req *http.Request, next pipeline.RequestNext,
) (any, error) {
	origin := req.Header.Get("Origin")
	// Pass through non-CORS requests.
	if origin == "" {
		return next(ctx, req)
	}

	preflight := req.Method == http.MethodOptions
	// Pass through invalid preflight requests.
	if preflight && req.Header.Get("Access-Control-Request-Method") == "" {
		return next(ctx, req)
	}
	// Validate origin if not in wildcard mode.
	if m.cfg.allowedOrigins != nil {
		if _, ok := m.cfg.allowedOrigins[origin]; !ok {
			return next(ctx, req) // Non-matching origins pass through without CORS headers.
		}
	}

	allowOrigin := origin
	if !m.cfg.allowCredentials && m.cfg.allowedOrigins == nil {
		allowOrigin = wildcard
	}

	if preflight {
		r := response.MakeEmpty().WithStatus(http.StatusNoContent).
			WithHeader("Vary", "Origin").
			WithHeader("Access-Control-Allow-Origin", allowOrigin)
		if m.cfg.allowCredentials {
			r = r.WithHeader("Access-Control-Allow-Credentials", "true")
		}
		if m.cfg.allowedMethods != "" {
			r = r.WithHeader("Access-Control-Allow-Methods", m.cfg.allowedMethods)
		}
		if m.cfg.allowedHeaders != "" {
			r = r.WithHeader("Access-Control-Allow-Headers", m.cfg.allowedHeaders)
		}
		if m.cfg.maxAge != "" {
			r = r.WithHeader("Access-Control-Max-Age", m.cfg.maxAge)
		}
		return r, nil
	}

	r, err := next(ctx, req)
	if err != nil {
		return r, err
	}

	r = r.WithHeader("Vary", "Origin").WithHeader("Access-Control-Allow-Origin", allowOrigin)
	if m.cfg.allowCredentials {
		r = r.WithHeader("Access-Control-Allow-Credentials", "true")
	}
	if m.cfg.exposedHeaders != "" {
		r = r.WithHeader("Access-Control-Expose-Headers", m.cfg.exposedHeaders)
	}
	return r, nil
}

var _ pipeline.RequestMiddleware = corsMiddleware{}
