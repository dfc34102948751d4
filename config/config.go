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

// Package config resolves the server's environment-sourced defaults: the
// DEBUG, METRICS, LOG_LEVEL and LOG_FORMAT variables spec.md §6 names. It
// intentionally reads nothing else and loads no files — a general
// configuration-loading subsystem is explicitly out of scope.
package config

import (
	"log/slog"

	"github.com/deep-rent/conduit/env"
	"github.com/deep-rent/conduit/log"
)

// Config holds the environment-sourced defaults a Server resolves at
// construction time.
type Config struct {
	// Debug enables verbose error responses, including stack traces on
	// internal servers. Sourced from the DEBUG environment variable.
	Debug bool `env:"DEBUG"`
	// Metrics is a comma-separated list of "host:port" metrics collector
	// addresses. Empty means no metrics are emitted. Sourced from the
	// METRICS environment variable.
	Metrics string `env:"METRICS"`
	// LogLevel is the minimum level the server's logger emits, as accepted
	// by log.ParseLevel (e.g. "debug", "info", "warn", "error"). Sourced
	// from the LOG_LEVEL environment variable; empty keeps log.DefaultLevel.
	LogLevel string `env:"LOG_LEVEL"`
	// LogFormat selects "text" or "json" log output, as accepted by
	// log.ParseFormat. Sourced from the LOG_FORMAT environment variable;
	// empty keeps log.DefaultFormat.
	LogFormat string `env:"LOG_FORMAT"`
}

// Load resolves a Config from the environment. opts customize the
// underlying env.Unmarshal call, e.g. env.WithPrefix or env.WithLookup for
// testing.
func Load(opts ...env.Option) (Config, error) {
	var cfg Config
	if err := env.Unmarshal(&cfg, opts...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Logger builds a *slog.Logger from LogLevel and LogFormat. Either field
// left empty falls back to the log package's own default.
func (c Config) Logger() *slog.Logger {
	var opts []log.Option
	if c.LogLevel != "" {
		opts = append(opts, log.WithLevel(c.LogLevel))
	}
	if c.LogFormat != "" {
		opts = append(opts, log.WithFormat(c.LogFormat))
	}
	return log.New(opts...)
}
