package route_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/deep-rent/conduit/response"
	"github.com/deep-rent/conduit/route"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxy_ForwardsAndReturnsWritten(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("from upstream"))
	}))
	defer upstream.Close()

	target, err := url.Parse(upstream.URL)
	require.NoError(t, err)

	handler := route.Proxy(target)
	req := httptest.NewRequest(http.MethodGet, "/anything", nil)
	rec := httptest.NewRecorder()
	ctx := route.WithResponseWriter(req.Context(), rec)
	e := &route.Exchange{Request: req.WithContext(ctx)}

	v, err := handler.ServeHTTP(e)
	require.NoError(t, err)
	assert.True(t, response.IsWritten(v))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "from upstream", rec.Body.String())
}

func TestProxy_RequiresResponseWriterInContext(t *testing.T) {
	target, _ := url.Parse("http://example.invalid")
	handler := route.Proxy(target)

	req := httptest.NewRequest(http.MethodGet, "/anything", nil).WithContext(context.Background())
	e := &route.Exchange{Request: req}

	_, err := handler.ServeHTTP(e)
	assert.Error(t, err)
}
