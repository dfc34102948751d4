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

// Package auth implements bearer-token authentication as a
// pipeline.ViewMiddleware: it extracts the credential from the Authorization
// header, verifies it as a JWT against a jwk.Set, and either short-circuits
// the view phase with a 401 or attaches the verified claims to the request
// context before calling the next handler in the chain.
package auth

import (
	"context"
	"net/http"

	"github.com/deep-rent/conduit/cache"
	"github.com/deep-rent/conduit/header"
	"github.com/deep-rent/conduit/jose/jwk"
	"github.com/deep-rent/conduit/jose/jwt"
	"github.com/deep-rent/conduit/pipeline"
	"github.com/deep-rent/conduit/response"
	"github.com/deep-rent/conduit/scheduler"
)

// NewRemoteKeySet creates a jwk.CacheSet backed by a remote JWKS endpoint and
// dispatches it onto sched so it keeps itself warm in the background,
// refreshing according to the endpoint's own HTTP caching headers.
//
// The returned CacheSet can be used immediately: Find returns nil until the
// first fetch completes. The CacheSet exposes no readiness signal of its own.
func NewRemoteKeySet(sched scheduler.Scheduler, url string, opts ...cache.Option) jwk.CacheSet {
	set := jwk.NewCacheSet(url, opts...)
	sched.Dispatch(set)
	return set
}

type contextKey int

const keyClaims contextKey = iota

// New creates a pipeline.ViewMiddleware that verifies bearer tokens against
// set using the reserved JWT claims (jwt.Reserved). Extra validation such as
// issuer, audience, or max-age checks can be configured via opts.
//
// A missing or invalid credential, or a token that fails signature or claim
// validation, short-circuits the view phase with a 401 *response.Error. On
// success, the verified claims are attached to the request context and
// retrievable via ClaimsFromContext.
func New(set jwk.Set, opts ...jwt.Option[jwt.Reserved]) pipeline.ViewMiddleware {
	return authMiddleware{verifier: jwt.NewVerifier(set, opts...)}
}

type authMiddleware struct {
	verifier *jwt.Verifier[jwt.Reserved]
}

func (m authMiddleware) ProcessView(
	ctx context.Context, req *http.Request, match pipeline.Match, next pipeline.ViewNext,
) (any, error) {
	cred := header.Credentials(req.Header, "Bearer")
	if cred == "" {
		return nil, unauthorized("missing bearer credential")
	}
	claims, err := m.verifier.Verify([]byte(cred))
	if err != nil {
		return nil, unauthorized(err.Error())
	}
	ctx = context.WithValue(ctx, keyClaims, claims)
	return next(ctx, req)
}

// ClaimsFromContext retrieves the claims attached by an auth middleware. It
// returns nil if the context carries none, e.g. when called outside a
// handler guarded by auth.New.
func ClaimsFromContext(ctx context.Context) *jwt.Reserved {
	claims, _ := ctx.Value(keyClaims).(*jwt.Reserved)
	return claims
}

func unauthorized(cause string) *response.Error {
	return &response.Error{
		Status:  http.StatusUnauthorized,
		Message: "Unauthorized",
		Headers: map[string]string{"WWW-Authenticate": "Bearer"},
		Cause:   errUnauthorized(cause),
	}
}

type errUnauthorized string

func (e errUnauthorized) Error() string { return string(e) }

var _ pipeline.ViewMiddleware = authMiddleware{}
