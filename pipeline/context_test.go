package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deep-rent/conduit/pipeline"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchRequest_StackIncludedOnlyWhenDebugAndInternal(t *testing.T) {
	tcs := []struct {
		name       string
		debug      bool
		internal   bool
		wantStack  bool
		setContext bool
	}{
		{"no flags set (defaults external)", false, false, false, false},
		{"debug off", false, true, false, true},
		{"debug on, external", true, false, false, true},
		{"debug on, internal", true, true, true, true},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			ctx := context.Background()
			if tc.setContext {
				ctx = pipeline.WithFlags(ctx, tc.debug, tc.internal)
			}
			r := pipeline.DispatchRequest(ctx, req, nil, terminal(nil, errors.New("boom")))

			buf, err := json.Marshal(r.Value())
			require.NoError(t, err)
			if tc.wantStack {
				assert.Contains(t, string(buf), "stack")
			} else {
				assert.NotContains(t, string(buf), "stack")
			}
		})
	}
}
