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
	"strings"

	"github.com/deep-rent/conduit/config"
)

// FromEnv resolves a Sink from cfg.Metrics: a comma-separated list of
// "host:port" collector addresses. An empty value yields Noop.
func FromEnv(cfg config.Config, opts ...Option) (Sink, error) {
	if cfg.Metrics == "" {
		return Noop, nil
	}
	addrs := strings.Split(cfg.Metrics, ",")
	for i, addr := range addrs {
		addrs[i] = strings.TrimSpace(addr)
	}
	return NewTCPSink(addrs, opts...)
}
