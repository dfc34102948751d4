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

import (
	"context"
	"io"
	"net/http"

	"github.com/deep-rent/conduit/header"
	"github.com/goccy/go-json"
)

// closer is implemented by source streams that want to be told the client
// disconnected mid-response, so they can release resources (spec.md §4.E
// point 4, §5 "Cancellation and timeouts").
type closer interface {
	Close() error
}

// Write serializes r onto w: it validates headers, writes the status line
// and header block, then dispatches the body according to its Kind.
//
// ctx should be the request's context; its cancellation (which net/http
// triggers on client disconnect) closes a byte stream's source if it
// supports io.Closer and stops iteration of an object stream, per spec.md
// §5: "A client disconnect during body streaming must surface as a close
// signal on the source byte/object stream."
//
// A header key or value outside ISO-8859-1 aborts the whole response and
// writes the standardized 500 HeaderInjection error instead (spec.md §4.E
// rule 1). A failed body write, a JSON value that fails to marshal, or a
// failed copy from a byte stream is returned as an error after the status
// line has already been written; an object-stream element that fails to
// marshal is reported inline instead (see writeObjectStream).
func Write(ctx context.Context, w http.ResponseWriter, r Response) error {
	if r.kind == Passthrough {
		return nil
	}

	for key, values := range r.headers {
		if !header.Valid(key) {
			return writeError(w, HeaderInjection())
		}
		for _, v := range values {
			if !header.Valid(v) {
				return writeError(w, HeaderInjection())
			}
		}
	}

	h := w.Header()
	for key, values := range r.headers {
		for _, v := range values {
			h.Add(key, v)
		}
	}
	w.WriteHeader(r.status)

	switch r.kind {
	case Empty:
		return nil
	case Bytes:
		_, err := w.Write(r.bytes)
		return err
	case Text:
		_, err := io.WriteString(w, r.text)
		return err
	case JSON:
		buf, err := json.Marshal(r.value)
		if err != nil {
			return err
		}
		_, err = w.Write(buf)
		return err
	case ByteStream:
		return writeByteStream(ctx, w, r.stream)
	case ObjectStream:
		return writeObjectStream(ctx, w, r.objects)
	default:
		return nil
	}
}

// writeError writes ae as a fresh, un-negotiated 500 response. It is only
// reached when the caller's own headers failed validation, so it bypasses
// r.headers entirely.
func writeError(w http.ResponseWriter, ae *Error) error {
	resp := Format(ae, false, false)
	h := w.Header()
	for key, values := range resp.headers {
		for _, v := range values {
			h.Add(key, v)
		}
	}
	w.WriteHeader(resp.status)
	buf, err := json.Marshal(resp.value)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// watchDisconnect closes src when ctx is done, returning a function the
// caller must invoke once streaming finishes to stop watching. It is a
// no-op if src does not support being closed.
func watchDisconnect(ctx context.Context, src any) (stop func()) {
	rc, ok := src.(closer)
	if !ok {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = rc.Close()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// writeByteStream copies src to w, closing src if the client disconnects
// before the stream is exhausted. A disconnect partway through is treated
// as normal termination, not an error (spec.md: "on source close before
// end, writer treats as normal termination").
func writeByteStream(ctx context.Context, w http.ResponseWriter, src io.Reader) error {
	stop := watchDisconnect(ctx, src)
	defer stop()

	_, err := io.Copy(w, src)
	if err != nil && ctx.Err() != nil {
		// The client disconnected; that's expected termination, not failure.
		return nil
	}
	return err
}

// writeObjectStream ranges over seq, writing one JSON-encoded line per
// element. If an element fails to marshal, the writer emits a single
// {"error": "..."} line and stops; any remaining elements are discarded
// (spec.md §4.E rule 3). If the client disconnects mid-stream, iteration
// stops silently at the next element.
func writeObjectStream(ctx context.Context, w http.ResponseWriter, seq Sequence) error {
	if seq == nil {
		return nil
	}
	stop := watchDisconnect(ctx, seq)
	defer stop()

	for v := range seq {
		if ctx.Err() != nil {
			return nil
		}
		buf, err := json.Marshal(v)
		if err != nil {
			line, _ := json.Marshal(map[string]string{"error": err.Error()})
			_, werr := w.Write(append(line, '\n'))
			return werr
		}
		if _, err := w.Write(append(buf, '\n')); err != nil {
			return err
		}
	}
	return nil
}
