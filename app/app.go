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

// Package app provides a managed execution environment for running a
// server.Server as a standalone process: start it, wait for an OS shutdown
// signal (or an unexpected listener failure), and tear it down within a
// bounded timeout.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/deep-rent/conduit/server"
	"github.com/deep-rent/conduit/signal"
)

// DefaultTimeout is the default duration to wait for the server to
// gracefully shut down after a shutdown signal is received.
const DefaultTimeout = 10 * time.Second

type config struct {
	logger  *slog.Logger
	timeout time.Duration
	ctx     context.Context
}

// Option configures Run.
type Option func(*config)

// WithLogger provides a custom logger. If not set, defaults to
// slog.Default(). A nil value is ignored.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithTimeout sets the graceful shutdown timeout. A non-positive duration is
// ignored and DefaultTimeout is used instead.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithContext sets a parent context for Run. Canceling it triggers a
// graceful shutdown exactly like an OS signal. A nil value is ignored.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.ctx = ctx
		}
	}
}

// Run starts srv, then blocks until an OS shutdown signal arrives, the
// parent context (set via WithContext) is canceled, or srv's listener closes
// unexpectedly. After a signal or a canceled parent context it calls
// srv.Uninstall with a bounded timeout and returns any resulting error; if
// the listener closed on its own, Run returns an error without calling
// srv.Uninstall.
func Run(srv *server.Server, opts ...Option) error {
	cfg := config{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(cfg.ctx)
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	cfg.logger.Info("Application started", "addr", srv.Addr())

	// Use errgroup to watch the listener for an unexpected failure while the
	// app otherwise waits on a shutdown signal. The group context cancels if
	// the base context cancels, or if the watcher itself returns an error.
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("application panic: %v\nstack: %s", r, string(debug.Stack()))
			}
		}()
		select {
		case <-srv.Closed():
			return errors.New("server listener closed unexpectedly")
		case <-gCtx.Done():
			return nil
		}
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Wait()
	}()

	select {
	case err := <-errCh:
		// The listener failed on its own before any shutdown was requested.
		if err != nil {
			return fmt.Errorf("application exited with error: %w", err)
		}

	case sig := <-signal.Shutdown():
		cfg.logger.Info("Shutdown signal received, initiating graceful shutdown",
			"signal", sig.String())
		cancel()
		<-errCh

	case <-ctx.Done():
		<-errCh
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.timeout)
	defer shutdownCancel()

	select {
	case err := <-srv.Uninstall(shutdownCtx):
		if err != nil {
			return fmt.Errorf("error during graceful shutdown: %w", err)
		}
		cfg.logger.Info("Shutdown completed successfully")
		return nil
	case <-shutdownCtx.Done():
		return fmt.Errorf("shutdown timed out after %v", cfg.timeout)
	}
}
