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

package metrics

import (
	"errors"
	"log/slog"
	"net"
	"time"

	"github.com/deep-rent/conduit/backoff"
	"github.com/deep-rent/conduit/rotator"
	"github.com/goccy/go-json"
)

// DefaultDialTimeout bounds how long a (re)connect attempt may take.
const DefaultDialTimeout = 5 * time.Second

// DefaultQueueSize bounds how many marshaled events may be buffered while a
// connection attempt or reconnect is in progress.
const DefaultQueueSize = 256

type tcpConfig struct {
	logger      *slog.Logger
	backoff     backoff.Strategy
	dialTimeout time.Duration
	queueSize   int
}

// Option customizes a Sink built by NewTCPSink.
type Option func(*tcpConfig)

// WithLogger sets the logger used to report connect and write failures.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *tcpConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBackoff sets the reconnect backoff strategy. Defaults to
// backoff.New()'s exponential-with-jitter strategy.
func WithBackoff(s backoff.Strategy) Option {
	return func(c *tcpConfig) {
		if s != nil {
			c.backoff = s
		}
	}
}

// WithDialTimeout sets the per-attempt connection timeout.
func WithDialTimeout(d time.Duration) Option {
	return func(c *tcpConfig) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithQueueSize sets how many events may be buffered while disconnected.
// Once full, Emit drops new events rather than block the caller.
func WithQueueSize(n int) Option {
	return func(c *tcpConfig) {
		if n > 0 {
			c.queueSize = n
		}
	}
}

// tcpSink is a Sink that writes newline-delimited JSON events to a TCP
// collector, round-robining between addrs and reconnecting with a backoff
// strategy on failure. A single background goroutine owns the connection,
// so Emit only ever marshals and enqueues: it never dials or writes itself.
type tcpSink struct {
	events  chan []byte
	rotator rotator.Rotator[string]
	backoff backoff.Strategy
	logger  *slog.Logger
	timeout time.Duration
	done    chan struct{}
}

// NewTCPSink creates a Sink that delivers events to one or more "host:port"
// metrics collector addresses. A background goroutine dials lazily, when the
// first event is queued; events go to one collector until its connection
// fails, and each (re)connect moves on to the next address in round-robin
// order.
func NewTCPSink(addrs []string, opts ...Option) (Sink, error) {
	if len(addrs) == 0 {
		return nil, errors.New("metrics: at least one collector address is required")
	}
	cfg := tcpConfig{
		logger:      slog.Default(),
		backoff:     backoff.New(),
		dialTimeout: DefaultDialTimeout,
		queueSize:   DefaultQueueSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &tcpSink{
		events:  make(chan []byte, cfg.queueSize),
		rotator: rotator.New(addrs),
		backoff: cfg.backoff,
		logger:  cfg.logger,
		timeout: cfg.dialTimeout,
		done:    make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Emit marshals event as one line of NDJSON and enqueues it for delivery.
// If the queue is full, the event is dropped and logged rather than
// blocking the caller.
func (s *tcpSink) Emit(event Event) {
	buf, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("metrics: failed to marshal event", "name", event.Name, "error", err)
		return
	}
	buf = append(buf, '\n')
	select {
	case s.events <- buf:
	default:
		s.logger.Warn("metrics: queue full, dropping event", "name", event.Name)
	}
}

// Close stops accepting events and waits for the delivery goroutine to write
// the events still queued. While no collector is reachable that goroutine
// keeps reconnecting, so Close does not return until delivery succeeds.
func (s *tcpSink) Close() error {
	close(s.events)
	<-s.done
	return nil
}

func (s *tcpSink) run() {
	defer close(s.done)

	var conn net.Conn
	defer func() {
		if conn != nil {
			_ = conn.Close()
		}
	}()

	for buf := range s.events {
		for conn == nil {
			addr := s.rotator.Next()
			c, err := net.DialTimeout("tcp", addr, s.timeout)
			if err != nil {
				s.logger.Warn("metrics: failed to reach collector", "addr", addr, "error", err)
				time.Sleep(s.backoff.Next())
				continue
			}
			s.backoff.Done()
			conn = c
		}

		if _, err := conn.Write(buf); err != nil {
			s.logger.Warn("metrics: write failed, reconnecting", "error", err)
			_ = conn.Close()
			conn = nil
		}
	}
}
