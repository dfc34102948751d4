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

// Package gzip implements response compression as a pipeline.RequestMiddleware:
// it inspects the downstream Response's body kind and, when eligible,
// rewrites the body to a gzip-compressed byte stream and sets
// "Content-Encoding: gzip", preserving every other field of the Response
// (status, other headers).
package gzip

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"strings"

	"github.com/deep-rent/conduit/header"
	"github.com/deep-rent/conduit/pipeline"
	"github.com/deep-rent/conduit/response"
	"github.com/goccy/go-json"
)

// Mirror constants from the compress/gzip package for easy access without
// requiring an extra import.
const (
	BestCompression    = gzip.BestCompression
	BestSpeed          = gzip.BestSpeed
	DefaultCompression = gzip.DefaultCompression
	NoCompression      = gzip.NoCompression
)

// config holds the middleware configuration.
type config struct {
	level   int
	exclude []string
}

// Option is a function that configures the middleware.
type Option func(*config)

// WithCompressionLevel sets the compression level. It accepts values ranging
// from BestSpeed (1) to BestCompression (9). For other values, it will fall
// back to DefaultCompression, a good balance between speed and compression
// ratio.
func WithCompressionLevel(level int) Option {
	return func(c *config) {
		if level >= BestSpeed && level <= BestCompression {
			c.level = level
		} else {
			c.level = DefaultCompression
		}
	}
}

// WithExclude sets the content-type prefixes exempt from compression (e.g.
// types that are already compressed).
func WithExclude(types []string) Option {
	return func(c *config) {
		if types != nil {
			c.exclude = types
		}
	}
}

// New creates a pipeline.RequestMiddleware that compresses eligible Response
// bodies using gzip with the specified options.
//
// It is a no-op if the client's Accept-Encoding header doesn't include
// "gzip", if the Response already carries a non-empty Content-Encoding, or
// if the Response's body kind isn't one of Bytes/Text/JSON/ObjectStream. It
// adds "Vary: Accept-Encoding" to eligible responses to prevent cache
// poisoning.
func New(opts ...Option) pipeline.RequestMiddleware {
	cfg := config{level: DefaultCompression}
	for _, opt := range opts {
		opt(&cfg)
	}
	return gzipMiddleware{cfg: cfg}
}

type gzipMiddleware struct {
	cfg config
}

func (m gzipMiddleware) ProcessRequest(
	ctx context.Context, req *http.Request, next pipeline.RequestNext,
) (any, error) {
	r, err := next(ctx, req)
	if err != nil {
		return r, err
	}

	if !header.Accepts(req.Header.Get("Accept-Encoding"), "gzip") ||
		r.Headers().Get("Content-Encoding") != "" {
		return r, nil
	}

	if !eligibleKind(r.Kind()) {
		return r, nil
	}

	mime := header.MediaType(r.Headers())
	for _, t := range m.cfg.exclude {
		if strings.HasPrefix(mime, t) {
			return r, nil
		}
	}

	body, err := bodyOf(r)
	if err != nil {
		return r, err
	}

	var buf bytes.Buffer
	gz, gzErr := gzip.NewWriterLevel(&buf, m.cfg.level)
	if gzErr != nil {
		return r, nil
	}
	if _, err := gz.Write(body); err != nil {
		return r, err
	}
	if err := gz.Close(); err != nil {
		return r, err
	}

	out := response.MakeBytes(buf.Bytes()).WithStatus(r.Status())
	for key, values := range r.Headers() {
		for _, v := range values {
			out = out.WithHeader(key, v)
		}
	}
	out = out.WithHeader("Content-Encoding", "gzip").WithHeader("Vary", "Accept-Encoding")
	return out, nil
}

func eligibleKind(k response.Kind) bool {
	switch k {
	case response.Bytes, response.Text, response.JSON, response.ObjectStream:
		return true
	default:
		return false
	}
}

// bodyOf renders r's body to a single in-memory buffer, regardless of its
// original Kind. An ObjectStream is fully drained: compression trades its
// incremental-delivery property for a smaller wire size, which is the
// correct tradeoff once a client has already advertised gzip support.
func bodyOf(r response.Response) ([]byte, error) {
	switch r.Kind() {
	case response.Bytes:
		return r.Bytes(), nil
	case response.Text:
		return []byte(r.Text()), nil
	case response.JSON:
		return json.Marshal(r.Value())
	case response.ObjectStream:
		var buf bytes.Buffer
		for v := range r.Objects() {
			b, err := json.Marshal(v)
			if err != nil {
				b, _ = json.Marshal(map[string]string{"error": err.Error()})
			}
			buf.Write(b)
			buf.WriteByte('\n')
		}
		return buf.Bytes(), nil
	default:
		return nil, nil
	}
}

var _ pipeline.RequestMiddleware = gzipMiddleware{}
