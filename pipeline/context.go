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

import "context"

type contextKey int

const keyFlags contextKey = iota

// flags carries the per-server settings the error formatter needs to decide
// whether a propagating error's response should include a stack trace.
type flags struct {
	debug    bool
	internal bool
}

// WithFlags attaches the server's debug mode and internal/external
// disposition to ctx, so errors raised deep in the request or view phase can
// be formatted consistently with the server's configuration (spec.md §4.F).
func WithFlags(ctx context.Context, debug, internal bool) context.Context {
	return context.WithValue(ctx, keyFlags, flags{debug: debug, internal: internal})
}

func debugFromContext(ctx context.Context) bool {
	f, _ := ctx.Value(keyFlags).(flags)
	return f.debug
}

func internalFromContext(ctx context.Context) bool {
	f, ok := ctx.Value(keyFlags).(flags)
	if !ok {
		// spec.md §4.F: isExternal defaults to true, i.e. internal defaults
		// to false, when a request context carries no explicit flags.
		return false
	}
	return f.internal
}
