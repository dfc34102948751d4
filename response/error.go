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
	"fmt"
	"net/http"
	"runtime/debug"
)

// Error is the side-channel error value the engine uses to "dress" a caught
// failure with HTTP metadata before it becomes a Response. Handlers and
// middleware may return a *Error directly to control the status code; any
// other error is wrapped with status 500 by Wrap.
type Error struct {
	// Status is the HTTP status code to report. Defaults to 500 if zero.
	Status int
	// Message is the human-readable error message placed in the JSON body.
	Message string
	// Headers are additional response headers to apply, if any.
	Headers map[string]string
	// Cause is the underlying error, if any. It is never serialized.
	Cause error
	// Stack is captured at the point the error was wrapped, for optional
	// inclusion in debug responses. Empty unless captured by Wrap.
	Stack string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap allows errors.Is / errors.As to reach the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NotFound builds the standardized 404 error raised when the router yields
// no match for a request.
func NotFound() *Error {
	return &Error{Status: http.StatusNotFound, Message: "Not Found"}
}

// NotImplemented builds the standardized 501 error raised when a route
// matches but the controller has no handler registered under that name.
func NotImplemented(method, path string) *Error {
	return &Error{
		Status:  http.StatusNotImplemented,
		Message: fmt.Sprintf("%q is not implemented.", method+" "+path),
	}
}

// BadMiddlewareValue is raised when a request- or view-phase middleware
// resolves to the literal "undefined" outcome: a nil value with no error.
func BadMiddlewareValue() *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: `Expected middleware to resolve to a truthy value, got "undefined" instead`,
	}
}

// HeaderInjection is raised by the writer when a header key or value
// contains characters outside ISO-8859-1, which could otherwise be used for
// response-splitting attacks.
func HeaderInjection() *Error {
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: "Only ISO-8859-1 strings are valid in headers",
	}
}

// NonErrorThrow replaces a panic or returned value that is not a proper Go
// error with the synthetic error spec.md §4.C mandates.
func NonErrorThrow(v any) *Error {
	return &Error{
		Status: http.StatusInternalServerError,
		Message: fmt.Sprintf(
			"Expected error to be instanceof Error, got %q instead", fmt.Sprint(v),
		),
	}
}

// Wrap converts any caught failure into a *Error, capturing a stack trace.
// A nil err becomes nil. An err that is already a *Error is returned as-is
// except that Stack is populated if it was empty. Any other error is
// wrapped with status 500, preserving its message and setting Cause.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*Error); ok {
		if ae.Stack == "" {
			ae.Stack = string(debug.Stack())
		}
		if ae.Status == 0 {
			ae.Status = http.StatusInternalServerError
		}
		return ae
	}
	return &Error{
		Status:  http.StatusInternalServerError,
		Message: err.Error(),
		Cause:   err,
		Stack:   string(debug.Stack()),
	}
}

// errorBody is the JSON shape written for every error response.
type errorBody struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Format converts a *Error into a Response. When debug is true and internal
// is true, the response body includes the captured stack trace, matching
// spec.md's "external vs internal server" rule: stacks never leak from a
// server marked external, regardless of debug mode.
func Format(ae *Error, debug, internal bool) Response {
	status := ae.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := errorBody{Message: ae.Message}
	if debug && internal {
		body.Stack = ae.Stack
	}

	r := MakeJSON(body).WithStatus(status)
	for k, v := range ae.Headers {
		r = r.WithHeader(k, v)
	}
	return r.withDefaults()
}
