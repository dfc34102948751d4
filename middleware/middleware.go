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

// Package middleware provides the ambient request-phase middleware every
// server reaches for: panic recovery, request-ID stamping, and access
// logging. Each implements pipeline.RequestMiddleware, composing inside the
// request phase so it observes (and, for RequestID, can annotate) the
// coerced Response rather than a raw http.ResponseWriter.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/deep-rent/conduit/pipeline"
	"github.com/deep-rent/conduit/response"
	"github.com/deep-rent/conduit/uuid"
)

// Recover catches panics raised by inner request- or view-phase middleware
// and handlers, converting them into the same synthetic error spec.md §4.C
// describes for non-Error throws, so a panic and an explicit non-error
// return produce observably identical responses. For maximum effectiveness
// this should be the first (outermost) middleware in the chain.
func Recover(logger *slog.Logger) pipeline.RequestMiddleware {
	return recoverMiddleware{logger: logger}
}

type recoverMiddleware struct {
	logger *slog.Logger
}

func (m recoverMiddleware) ProcessRequest(
	ctx context.Context, req *http.Request, next pipeline.RequestNext,
) (r any, err error) {
	defer func() {
		if v := recover(); v != nil {
			m.logger.Error(
				"middleware: panic recovered",
				"method", req.Method,
				"url", req.URL.String(),
				"panic", v,
				"stack", string(debug.Stack()),
			)
			if e, ok := v.(error); ok {
				err = response.Wrap(e)
			} else {
				err = response.NonErrorThrow(v)
			}
			r = nil
		}
	}()
	return next(ctx, req)
}

type contextKey int

const keyRequestID contextKey = iota

// RequestID stamps a UUIDv7 (package uuid) onto the request context and the
// "X-Request-ID" response header of every request.
func RequestID() pipeline.RequestMiddleware {
	return requestIDMiddleware{}
}

type requestIDMiddleware struct{}

func (requestIDMiddleware) ProcessRequest(
	ctx context.Context, req *http.Request, next pipeline.RequestNext,
) (any, error) {
	id := uuid.New().String()
	ctx = context.WithValue(ctx, keyRequestID, id)
	req = req.WithContext(ctx)

	r, err := next(ctx, req)
	if err != nil {
		return r, err
	}
	return r.WithHeader("X-Request-ID", id), nil
}

// RequestIDFromContext retrieves the request ID stamped by RequestID, if
// any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(keyRequestID).(string)
	return id
}

// Log emits one structured access-log line per request, once the request
// phase has fully unwound, including status, duration, and request ID. A
// request whose downstream chain returns an error is not logged. To
// include a request ID in the log, this middleware should be placed after
// RequestID in the chain.
func Log(logger *slog.Logger) pipeline.RequestMiddleware {
	return logMiddleware{logger: logger}
}

type logMiddleware struct {
	logger *slog.Logger
}

func (m logMiddleware) ProcessRequest(
	ctx context.Context, req *http.Request, next pipeline.RequestNext,
) (any, error) {
	start := time.Now()
	r, err := next(ctx, req)
	if err != nil {
		return r, err
	}

	m.logger.Debug(
		"middleware: request handled",
		slog.String("id", RequestIDFromContext(ctx)),
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("remote", req.RemoteAddr),
		slog.String("agent", req.UserAgent()),
		slog.Int("status", r.Status()),
		slog.Duration("duration", time.Since(start)),
	)
	return r, nil
}

var (
	_ pipeline.RequestMiddleware = recoverMiddleware{}
	_ pipeline.RequestMiddleware = requestIDMiddleware{}
	_ pipeline.RequestMiddleware = logMiddleware{}
)
