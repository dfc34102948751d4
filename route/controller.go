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

package route

import (
	"strings"

	"github.com/deep-rent/conduit/pipeline"
)

// anyMethod is the Controller key for a handler registered via Mount, which
// must answer for every method a path might be requested with.
const anyMethod = "*"

// controller is the default pipeline.Controller: one instance per registered
// path pattern, holding a HandlerFunc per "METHOD pattern" route name plus
// an optional catch-all for Mount.
type controller struct {
	pattern   string
	wildcards []string
	handlers  map[string]pipeline.HandlerFunc
}

// Handler satisfies pipeline.Controller. An exact "METHOD pattern" match
// takes precedence over a Mount catch-all.
func (c *controller) Handler(name string) (pipeline.HandlerFunc, bool) {
	if h, ok := c.handlers[name]; ok {
		return h, true
	}
	h, ok := c.handlers[anyMethod]
	return h, ok
}

// parseWildcards extracts the {name} and {name...} wildcard segments from a
// ServeMux-style pattern, in order of appearance.
func parseWildcards(pattern string) []string {
	var names []string
	for {
		start := strings.IndexByte(pattern, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(pattern[start:], '}')
		if end < 0 {
			break
		}
		name := pattern[start+1 : start+end]
		name = strings.TrimSuffix(name, "...")
		if name != "" {
			names = append(names, name)
		}
		pattern = pattern[start+end+1:]
	}
	return names
}
