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

import (
	"context"
	"sync"
)

// Installation tracks the lifetime of one server-install chain run.
type Installation struct {
	ready chan error
	done  chan error
}

// Ready resolves once every middleware's pre-next code has run, or with the
// first error raised by a middleware that refused to call next. It never
// resolves with the outcome of teardown.
func (in *Installation) Ready() <-chan error { return in.ready }

// Done resolves once teardown has fully unwound, with the first error
// surfaced by any middleware's post-next code (or the install error, if
// install itself failed).
func (in *Installation) Done() <-chan error { return in.done }

// Install drives the server-install phase for handle: it runs each
// middleware in mws that implements ServerMiddleware[S], in declaration
// order, and returns an Installation tracking its progress. The chain
// blocks at its innermost point — after every middleware's pre-next code has
// run — until teardown is closed, at which point it unwinds: each
// middleware's post-next code runs in reverse declaration order.
//
// Because teardown is only consulted once the chain has reached its
// innermost point, closing it before install finishes has no effect until
// install does finish: the chain always observes install-complete before
// teardown-begins, even under concurrent close (spec.md §4.D, scenario 5 in
// §8).
func Install[S any](
	ctx context.Context, handle S, mws []Middleware, teardown <-chan struct{},
) *Installation {
	in := &Installation{
		ready: make(chan error, 1),
		done:  make(chan error, 1),
	}
	var once sync.Once
	signalReady := func(err error) {
		once.Do(func() { in.ready <- err })
	}

	go func() {
		in.done <- installAt(ctx, handle, mws, 0, teardown, signalReady)
	}()

	return in
}

func installAt[S any](
	ctx context.Context,
	handle S,
	mws []Middleware,
	i int,
	teardown <-chan struct{},
	signalReady func(error),
) error {
	if i >= len(mws) {
		signalReady(nil)
		<-teardown
		return nil
	}

	sm, ok := mws[i].(ServerMiddleware[S])
	if !ok {
		return installAt(ctx, handle, mws, i+1, teardown, signalReady)
	}

	err := sm.ProcessServer(ctx, handle, func(next context.Context) error {
		return installAt(next, handle, mws, i+1, teardown, signalReady)
	})
	signalReady(err)
	return err
}
