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

package response

import "io"

// Coerce turns an arbitrary handler or middleware return value into a
// Response, applying the defaults from spec.md §4.B in order:
//
//  1. A Response is returned unchanged.
//  2. nil or "" becomes an empty 204 body.
//  3. A non-empty string becomes a text/plain body.
//  4. A []byte becomes an application/octet-stream body.
//  5. A Sequence (iter.Seq[any]) becomes an application/x-ndjson body.
//  6. An io.Reader becomes an application/octet-stream body, streamed
//     through unchanged.
//  7. Anything else is marshaled as application/json.
//
// The special sentinel value Written coerces to itself: callers must check
// for it (IsWritten) before invoking Coerce if they need to skip the write
// path entirely.
func Coerce(v any) Response {
	switch t := v.(type) {
	case Response:
		return t.withDefaults()
	case nil:
		return MakeEmpty()
	case string:
		return MakeText(t).withDefaults()
	case []byte:
		return MakeBytes(t).withDefaults()
	case Sequence:
		return MakeObjectStream(t).withDefaults()
	case io.Reader:
		return MakeByteStream(t).withDefaults()
	default:
		return MakeJSON(v).withDefaults()
	}
}

// IsWritten reports whether v is the Written sentinel, meaning a handler or
// middleware has already written the full response itself and no further
// coercion or writing should occur.
func IsWritten(v any) bool {
	r, ok := v.(Response)
	return ok && r.kind == Passthrough
}
