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

// Package response models the outcome of an HTTP request as an immutable
// value, independent of any handler or transport concern.
//
// A Response carries a body (of one of a handful of kinds), a status code,
// and a set of headers. Values are never mutated in place; operations like
// WithHeader return a new Response that shares the underlying body.
//
// Use Coerce to turn an arbitrary handler or middleware return value into a
// Response, Wrap to turn a caught error into an *Error and Format to render
// that into a Response, and Write to serialize a Response onto an
// http.ResponseWriter.
package response

import (
	"io"
	"iter"
	"maps"
	"net/http"
)

// Kind identifies the shape of a Response's body.
type Kind uint8

const (
	// Empty indicates no body at all (204 by default).
	Empty Kind = iota
	// Bytes indicates an in-memory byte buffer.
	Bytes
	// Text indicates a UTF-8 string.
	Text
	// JSON indicates a plain data value to be marshaled as JSON.
	JSON
	// ByteStream indicates a byte-oriented io.Reader, copied through
	// unchanged.
	ByteStream
	// ObjectStream indicates a sequence of values, each serialized as one
	// line of newline-delimited JSON.
	ObjectStream
	// Passthrough indicates the handler or middleware already wrote the
	// complete response (status line included) directly to the underlying
	// connection; the coercer and writer perform no further work.
	Passthrough
)

// Written is the sentinel Response value for the Passthrough kind. A handler
// or middleware that returns Written is asserting that it already wrote the
// full response itself. This is the escape hatch used by reverse proxies,
// static file servers, and protocol upgrades.
var Written = Response{kind: Passthrough}

// Sequence is the shape a handler return value must have to be treated as
// an object stream by the coercer (§4.B rule 5): a sequence of values to be
// marshaled one per line. It is safe to range over exactly once; the writer
// ranges over it at most once.
type Sequence = iter.Seq[any]

// Response is the canonical, immutable representation of an HTTP response.
type Response struct {
	kind    Kind
	status  int
	headers http.Header
	bytes   []byte
	text    string
	value   any
	stream  io.Reader
	objects Sequence
}

// New creates a Response with an explicit body kind, status, and headers.
// Most callers should use the Make* constructors instead; New is the
// building block they share.
func New(kind Kind, status int, headers http.Header) Response {
	if headers == nil {
		headers = make(http.Header)
	}
	return Response{kind: kind, status: status, headers: headers}
}

// MakeEmpty creates a Response with no body. Its default status is 204.
func MakeEmpty() Response {
	r := New(Empty, http.StatusNoContent, nil)
	return r
}

// MakeBytes creates a Response whose body is an in-memory byte buffer. Its
// default status is 200 and its default content type is
// "application/octet-stream".
func MakeBytes(b []byte) Response {
	r := New(Bytes, http.StatusOK, nil)
	r.bytes = b
	return r
}

// MakeText creates a Response whose body is a UTF-8 string. An empty string
// coerces to the same 204-no-body response as MakeEmpty, per spec rule 2.
// Its default content type is "text/plain; charset=utf-8".
func MakeText(s string) Response {
	if s == "" {
		return MakeEmpty()
	}
	r := New(Text, http.StatusOK, nil)
	r.text = s
	return r
}

// MakeJSON creates a Response whose body is an arbitrary value to be
// marshaled as JSON. Its default content type is
// "application/json; charset=utf-8".
func MakeJSON(v any) Response {
	r := New(JSON, http.StatusOK, nil)
	r.value = v
	return r
}

// MakeByteStream creates a Response whose body is copied through from an
// io.Reader. Its default content type is "application/octet-stream".
func MakeByteStream(rd io.Reader) Response {
	r := New(ByteStream, http.StatusOK, nil)
	r.stream = rd
	return r
}

// MakeObjectStream creates a Response whose body is a sequence of values,
// each written as one line of newline-delimited JSON. Its default content
// type is "application/x-ndjson; charset=utf-8".
func MakeObjectStream(s Sequence) Response {
	r := New(ObjectStream, http.StatusOK, nil)
	r.objects = s
	return r
}

// Kind reports the shape of the Response's body.
func (r Response) Kind() Kind { return r.kind }

// Status returns the HTTP status code currently set on the Response.
func (r Response) Status() int { return r.status }

// Headers returns the Response's headers. Callers must not mutate the
// returned map; use WithHeader to derive a new Response instead.
func (r Response) Headers() http.Header { return r.headers }

// Bytes returns the byte body. Only meaningful when Kind() == Bytes.
func (r Response) Bytes() []byte { return r.bytes }

// Text returns the string body. Only meaningful when Kind() == Text.
func (r Response) Text() string { return r.text }

// Value returns the JSON-able body. Only meaningful when Kind() == JSON.
func (r Response) Value() any { return r.value }

// Stream returns the byte stream body. Only meaningful when
// Kind() == ByteStream.
func (r Response) Stream() io.Reader { return r.stream }

// Objects returns the object stream body. Only meaningful when
// Kind() == ObjectStream.
func (r Response) Objects() Sequence { return r.objects }

// WithStatus returns a new Response with the given status code. It does not
// mutate r.
func (r Response) WithStatus(status int) Response {
	r.status = status
	return r
}

// WithHeader returns a new Response with the given header set, leaving r
// unchanged. The header map is copied defensively, so repeated calls never
// share mutable state.
func (r Response) WithHeader(key, value string) Response {
	h := make(http.Header, len(r.headers)+1)
	maps.Copy(h, r.headers)
	h.Set(key, value)
	r.headers = h
	return r
}

// ContentType returns the "Content-Type" header, or "" if unset.
func (r Response) ContentType() string { return r.headers.Get("Content-Type") }

// defaultContentType returns the content type this Kind implies when the
// caller has not set one explicitly, per the table in spec.md §6.
func (k Kind) defaultContentType() string {
	switch k {
	case Text:
		return "text/plain; charset=utf-8"
	case JSON:
		return "application/json; charset=utf-8"
	case Bytes, ByteStream:
		return "application/octet-stream"
	case ObjectStream:
		return "application/x-ndjson; charset=utf-8"
	default:
		return ""
	}
}

// withDefaults fills in the status and content-type defaults for a freshly
// constructed Response without clobbering values the caller already set. A
// Passthrough Response is left untouched: its wire representation was
// already decided by the code that wrote it directly.
func (r Response) withDefaults() Response {
	if r.kind == Passthrough {
		return r
	}
	if r.status == 0 {
		if r.kind == Empty {
			r.status = http.StatusNoContent
		} else {
			r.status = http.StatusOK
		}
	}
	if ct := r.kind.defaultContentType(); ct != "" && r.headers.Get("Content-Type") == "" {
		r = r.WithHeader("Content-Type", ct)
	}
	return r
}
