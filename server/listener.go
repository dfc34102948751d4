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
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

// Listener is the external HTTP listener collaborator a Server drives. Its
// default implementation, NewHTTPListener, is built on net.Listen and
// http.Server; applications may supply their own (e.g. over a Unix socket
// or behind TLS termination already handled elsewhere).
type Listener interface {
	// Listen binds and serves handler until ctx is canceled or Shutdown is
	// called, whichever happens first. onClientError, if non-nil, is called
	// for malformed requests the underlying transport rejects before a
	// handler ever sees them (spec.md's clientError event). Listen returns
	// once serving has stopped; a clean shutdown reports a nil error.
	Listen(ctx context.Context, handler http.Handler, onClientError func(error, net.Addr)) error
	// Addr returns the address the Listener is bound to. It is only
	// meaningful once Listening has resolved.
	Addr() net.Addr
	// Listening resolves once the Listener has successfully bound and is
	// accepting connections.
	Listening() <-chan struct{}
	// Closed resolves once Listen has returned.
	Closed() <-chan struct{}
	// Shutdown gracefully stops accepting new connections and waits for
	// in-flight requests to complete, bounded by ctx.
	Shutdown(ctx context.Context) error
}

type listenerConfig struct {
	logger       *slog.Logger
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

// ListenerOption customizes a Listener built by NewHTTPListener.
type ListenerOption func(*listenerConfig)

// WithListenerLogger sets the logger used to report transport-level errors.
// Defaults to slog.Default().
func WithListenerLogger(logger *slog.Logger) ListenerOption {
	return func(c *listenerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReadTimeout sets http.Server.ReadTimeout.
func WithReadTimeout(d time.Duration) ListenerOption {
	return func(c *listenerConfig) { c.readTimeout = d }
}

// WithWriteTimeout sets http.Server.WriteTimeout.
func WithWriteTimeout(d time.Duration) ListenerOption {
	return func(c *listenerConfig) { c.writeTimeout = d }
}

// WithIdleTimeout sets http.Server.IdleTimeout.
func WithIdleTimeout(d time.Duration) ListenerOption {
	return func(c *listenerConfig) { c.idleTimeout = d }
}

// httpListener is the default Listener, built on net.Listen and http.Server.
type httpListener struct {
	addr string
	cfg  listenerConfig

	mu       sync.Mutex
	realAddr net.Addr
	srv      *http.Server

	listening chan struct{}
	closed    chan struct{}
}

// NewHTTPListener creates a Listener bound to addr (host:port, or ":port").
func NewHTTPListener(addr string, opts ...ListenerOption) Listener {
	cfg := listenerConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &httpListener{
		addr:      addr,
		cfg:       cfg,
		listening: make(chan struct{}),
		closed:    make(chan struct{}),
	}
}

// fromAddrPattern extracts the remote address net/http includes in its own
// ErrorLog lines (e.g. "http: TLS handshake error from 10.0.0.1:54321: ...").
var fromAddrPattern = regexp.MustCompile(`from ((?:\[[0-9a-fA-F:]+\]|[0-9.]+):[0-9]+)`)

func (l *httpListener) Listen(
	ctx context.Context, handler http.Handler, onClientError func(error, net.Addr),
) (err error) {
	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		close(l.closed)
		return err
	}

	l.mu.Lock()
	l.realAddr = ln.Addr()
	l.srv = &http.Server{
		Handler:      handler,
		ReadTimeout:  l.cfg.readTimeout,
		WriteTimeout: l.cfg.writeTimeout,
		IdleTimeout:  l.cfg.idleTimeout,
		ErrorLog:     log.New(clientErrorWriter{logger: l.cfg.logger, report: onClientError}, "", 0),
	}
	srv := l.srv
	l.mu.Unlock()

	go func() {
		<-ctx.Done()
		_ = srv.Shutdown(context.Background())
	}()

	close(l.listening)
	err = srv.Serve(ln)
	close(l.closed)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (l *httpListener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.realAddr
}

func (l *httpListener) Listening() <-chan struct{} { return l.listening }
func (l *httpListener) Closed() <-chan struct{}    { return l.closed }

func (l *httpListener) Shutdown(ctx context.Context) error {
	l.mu.Lock()
	srv := l.srv
	l.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// clientErrorWriter adapts http.Server.ErrorLog's line-oriented io.Writer
// contract into the onClientError(error, net.Addr) callback spec.md
// describes: net/http has no dedicated "client error" event, so this parses
// the remote address back out of its log lines, which is the closest
// analogue the standard library exposes.
type clientErrorWriter struct {
	logger *slog.Logger
	report func(error, net.Addr)
}

func (w clientErrorWriter) Write(p []byte) (int, error) {
	line := strings.TrimRight(string(p), "\n")
	w.logger.Warn("server: transport error", "message", line)

	if w.report != nil {
		if m := fromAddrPattern.FindStringSubmatch(line); m != nil {
			if addr, err := net.ResolveTCPAddr("tcp", m[1]); err == nil {
				w.report(errors.New(line), addr)
			}
		}
	}
	return len(p), nil
}
