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

// Package server is the lifecycle manager that ties a Router, the
// middleware stack, and a Listener together: it drives the pipeline
// engine's request phase on every incoming request and its server-install
// phase across the listener's own lifetime.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/deep-rent/conduit/clock"
	"github.com/deep-rent/conduit/config"
	"github.com/deep-rent/conduit/metrics"
	"github.com/deep-rent/conduit/pipeline"
	"github.com/deep-rent/conduit/response"
	"github.com/deep-rent/conduit/route"
	"github.com/deep-rent/conduit/util"
)

type options struct {
	listener   Listener
	addr       string
	middleware []pipeline.Middleware
	metrics    metrics.Sink
	logger     *slog.Logger
	clock      clock.Clock
	external   bool
	debug      bool
	onClient   func(error, net.Addr)
}

// Option configures a Server constructed by New.
type Option func(*options)

// WithListener supplies a custom Listener instead of the default
// NewHTTPListener-built one. WithAddr is ignored when a Listener is
// supplied explicitly.
func WithListener(l Listener) Option {
	return func(o *options) { o.listener = l }
}

// WithAddr sets the address the default Listener binds to (host:port, or
// ":port"). Ignored if WithListener is also given.
func WithAddr(addr string) Option {
	return func(o *options) { o.addr = addr }
}

// WithMiddleware appends mws, in order, to the server's middleware chain.
func WithMiddleware(mws ...pipeline.Middleware) Option {
	return func(o *options) { o.middleware = util.Concat(o.middleware, mws...) }
}

// WithMetrics sets the Sink used to emit lifecycle and per-request events.
// Defaults to metrics.Noop.
func WithMetrics(sink metrics.Sink) Option {
	return func(o *options) { o.metrics = sink }
}

// WithConfig applies cfg's fields: Debug controls whether error responses
// may include a stack trace (subject to WithExternal, see below); a
// non-empty Metrics resolves a TCP Sink via metrics.FromEnv unless
// WithMetrics already supplied one explicitly; and a non-empty LogLevel or
// LogFormat builds the server's logger via cfg.Logger, unless WithLogger is
// applied after WithConfig to override it.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.debug = cfg.Debug
		if cfg.LogLevel != "" || cfg.LogFormat != "" {
			o.logger = cfg.Logger()
		}
		if o.metrics == nil {
			if sink, err := metrics.FromEnv(cfg); err == nil {
				o.metrics = sink
			}
		}
	}
}

// WithExternal sets whether this server is reachable by untrusted clients.
// An external server (the default) never includes stack traces in error
// responses, regardless of debug mode; an internal server does, when debug
// mode is also enabled.
func WithExternal(external bool) Option {
	return func(o *options) { o.external = external }
}

// WithLogger sets the logger used for lifecycle and transport-error
// reporting. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithOnClientError sets the callback invoked when the transport rejects a
// malformed request before any handler sees it.
func WithOnClientError(fn func(error, net.Addr)) Option {
	return func(o *options) { o.onClient = fn }
}

// WithClock sets the clock.Clock used to timestamp emitted metrics.Events.
// Defaults to clock.SystemClock(); tests can supply clock.FrozenClock for
// deterministic assertions. A nil value is ignored.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// Server is the lifecycle manager around a Router, a middleware chain, and
// a Listener. Construct one with New and start it with Start.
type Server struct {
	router     route.Router
	middleware []pipeline.Middleware
	listener   Listener
	metrics    metrics.Sink
	logger     *slog.Logger
	clock      clock.Clock
	external   bool
	debug      bool
	onClient   func(error, net.Addr)

	install  *pipeline.Installation
	teardown chan struct{}
	srvDone  chan error
	ready    chan struct{}

	uninstallOnce sync.Once
	uninstallDone chan struct{}
	uninstallErr  error
}

// New constructs a Server that resolves routes via router. If no Listener
// is supplied via WithListener, a default NewHTTPListener is built from
// WithAddr (or ":0" if unset).
func New(router route.Router, opts ...Option) *Server {
	o := options{
		logger:   slog.Default(),
		clock:    clock.SystemClock(),
		external: true,
		addr:     ":0",
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.Noop
	}

	listener := o.listener
	if listener == nil {
		listener = NewHTTPListener(o.addr, WithListenerLogger(o.logger))
	}

	return &Server{
		router:        router,
		middleware:    o.middleware,
		listener:      listener,
		metrics:       o.metrics,
		logger:        o.logger,
		clock:         o.clock,
		external:      o.external,
		debug:         o.debug,
		onClient:      o.onClient,
		ready:         make(chan struct{}),
		uninstallDone: make(chan struct{}),
	}
}

// Router exposes the server's route.Router, mainly for FromInjector and
// tests.
func (s *Server) Router() route.Router { return s.router }

// Metrics returns the Sink events are emitted to.
func (s *Server) Metrics() metrics.Sink { return s.metrics }

// Addr returns the address the underlying Listener is bound to. Only
// meaningful once Listening has resolved.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Listening resolves once the underlying Listener has bound and every
// ServerMiddleware's pre-next code has run.
func (s *Server) Listening() <-chan struct{} { return s.ready }

// Closed resolves once the Listener has fully stopped serving.
func (s *Server) Closed() <-chan struct{} { return s.listener.Closed() }

// Start binds the Listener and drives the server-install phase. It blocks
// until the server is ready to serve (or fails to become so): the Listener
// is listening and every ServerMiddleware's pre-next code has run. Start
// returns a non-nil error without leaving any goroutine behind on failure.
func (s *Server) Start(ctx context.Context) error {
	s.teardown = make(chan struct{})
	s.srvDone = make(chan error, 1)

	go func() {
		s.srvDone <- s.listener.Listen(ctx, http.HandlerFunc(s.ServeHTTP), s.onClient)
	}()

	select {
	case <-s.listener.Listening():
	case err := <-s.srvDone:
		if err == nil {
			err = errors.New("server: listener stopped before it started listening")
		}
		return err
	}

	s.install = pipeline.Install[*Server](ctx, s, s.middleware, s.teardown)
	select {
	case err := <-s.install.Ready():
		if err != nil {
			close(s.teardown)
			_ = s.listener.Shutdown(ctx)
			<-s.install.Done()
			<-s.srvDone
			return err
		}
	case err := <-s.srvDone:
		if err == nil {
			err = errors.New("server: listener stopped before installation completed")
		}
		return err
	}

	s.metrics.Emit(metrics.Event{Name: "server.installed", Time: s.clock()})
	close(s.ready)
	return nil
}

// Uninstall begins a graceful shutdown: it stops accepting new connections,
// waits for in-flight requests bounded by ctx, then unwinds the
// server-install phase's teardown in reverse declaration order. The
// returned channel resolves once both have completed, with the first error
// encountered, if any.
//
// Uninstall is idempotent: only the first call actually drives the
// shutdown (using its ctx); every call, first or not, blocks until that
// single shutdown completes and returns its result on its own channel.
func (s *Server) Uninstall(ctx context.Context) <-chan error {
	s.uninstallOnce.Do(func() {
		go func() {
			shutdownErr := s.listener.Shutdown(ctx)
			<-s.srvDone

			close(s.teardown)
			teardownErr := <-s.install.Done()

			s.metrics.Emit(metrics.Event{Name: "server.uninstalled", Time: s.clock()})

			if teardownErr != nil {
				s.uninstallErr = teardownErr
			} else {
				s.uninstallErr = shutdownErr
			}
			close(s.uninstallDone)
		}()
	})

	out := make(chan error, 1)
	go func() {
		<-s.uninstallDone
		out <- s.uninstallErr
	}()
	return out
}

// ServeHTTP is the http.Handler passed to the Listener: it attaches the
// server's debug/internal flags and a request-scoped ResponseWriter (for
// route.Proxy and route.Mux.Mount), dispatches the request phase, writes
// the resulting Response, and emits a completion event.
func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := s.clock()
	ctx := pipeline.WithFlags(req.Context(), s.debug, !s.external)
	ctx = route.WithResponseWriter(ctx, w)
	req = req.WithContext(ctx)

	view := pipeline.View(s.router, s.middleware)
	r := pipeline.DispatchRequest(ctx, req, s.middleware, view)

	if err := response.Write(ctx, w, r); err != nil {
		s.logger.Error("server: failed writing response", "error", err)
	}

	s.metrics.Emit(metrics.Event{
		Name: "request.completed",
		Time: s.clock(),
		Fields: map[string]any{
			"method":   req.Method,
			"path":     req.URL.Path,
			"status":   r.Status(),
			"duration": time.Since(start).String(),
		},
	})
}
