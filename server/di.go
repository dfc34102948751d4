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

package server

import (
	"github.com/deep-rent/conduit/di"
	"github.com/deep-rent/conduit/metrics"
	"github.com/deep-rent/conduit/pipeline"
	"github.com/deep-rent/conduit/route"
	"github.com/deep-rent/conduit/util"
)

// Well-known Slots an application wires a di.Injector with so FromInjector
// can assemble a Server from it. SlotRouter is required; SlotMiddleware and
// SlotMetrics are optional and fall back to an empty chain and metrics.Noop
// respectively.
var (
	SlotRouter     = di.NewSlot[route.Router]("server", "router")
	SlotMiddleware = di.NewSlot[[]pipeline.Middleware]("server", "middleware")
	SlotMetrics    = di.NewSlot[metrics.Sink]("server", "metrics")
)

// FromInjector resolves a Router, middleware chain, and Sink from in's
// well-known Slots and constructs a Server from them, plus any additional
// Options. This lets applications with larger dependency graphs assemble a
// Server the same way they assemble every other typed dependency.
func FromInjector(in *di.Injector, opts ...Option) (*Server, error) {
	router, err := di.Use(in, SlotRouter)
	if err != nil {
		return nil, err
	}

	var o []Option
	if mws, err := di.Use(in, SlotMiddleware); err == nil {
		o = append(o, WithMiddleware(mws...))
	}
	if sink, err := di.Use(in, SlotMetrics); err == nil {
		o = append(o, WithMetrics(sink))
	}
	o = util.Concat(o, opts...)

	return New(router, o...), nil
}
