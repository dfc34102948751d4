package response_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/deep-rent/conduit/response"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFound(t *testing.T) {
	ae := response.NotFound()
	assert.Equal(t, http.StatusNotFound, ae.Status)
}

func TestNotImplemented(t *testing.T) {
	ae := response.NotImplemented("GET", "/widgets")
	assert.Equal(t, http.StatusNotImplemented, ae.Status)
	assert.Contains(t, ae.Message, "GET /widgets")
}

func TestWrap(t *testing.T) {
	t.Run("nil passes through", func(t *testing.T) {
		assert.Nil(t, response.Wrap(nil))
	})
	t.Run("already wrapped keeps status, backfills stack", func(t *testing.T) {
		in := &response.Error{Status: http.StatusBadRequest, Message: "bad input"}
		out := response.Wrap(in)
		require.Same(t, in, out)
		assert.Equal(t, http.StatusBadRequest, out.Status)
		assert.NotEmpty(t, out.Stack)
	})
	t.Run("generic error becomes 500 with cause", func(t *testing.T) {
		cause := errors.New("boom")
		out := response.Wrap(cause)
		assert.Equal(t, http.StatusInternalServerError, out.Status)
		assert.Equal(t, "boom", out.Message)
		assert.Same(t, cause, out.Cause)
		assert.NotEmpty(t, out.Stack)
	})
}

func TestError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		ae := &response.Error{Message: "plain"}
		assert.Equal(t, "plain", ae.Error())
	})
	t.Run("with cause", func(t *testing.T) {
		ae := &response.Error{Message: "wrapped", Cause: errors.New("inner")}
		assert.Equal(t, "wrapped: inner", ae.Error())
	})
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("inner")
	ae := &response.Error{Message: "outer", Cause: cause}
	assert.ErrorIs(t, ae, cause)
}

func TestFormat(t *testing.T) {
	ae := &response.Error{Status: http.StatusBadRequest, Message: "nope", Stack: "trace"}

	t.Run("debug off hides stack", func(t *testing.T) {
		r := response.Format(ae, false, true)
		buf, err := json.Marshal(r.Value())
		require.NoError(t, err)
		assert.NotContains(t, string(buf), "trace")
	})
	t.Run("debug on but external hides stack", func(t *testing.T) {
		r := response.Format(ae, true, false)
		buf, err := json.Marshal(r.Value())
		require.NoError(t, err)
		assert.NotContains(t, string(buf), "trace")
	})
	t.Run("debug on and internal shows stack", func(t *testing.T) {
		r := response.Format(ae, true, true)
		buf, err := json.Marshal(r.Value())
		require.NoError(t, err)
		assert.Contains(t, string(buf), "trace")
	})
	t.Run("zero status defaults to 500", func(t *testing.T) {
		r := response.Format(&response.Error{Message: "x"}, false, false)
		assert.Equal(t, http.StatusInternalServerError, r.Status())
	})
	t.Run("extra headers are applied", func(t *testing.T) {
		withHeaders := &response.Error{
			Status:  http.StatusTeapot,
			Message: "teapot",
			Headers: map[string]string{"X-Extra": "yes"},
		}
		r := response.Format(withHeaders, false, false)
		assert.Equal(t, "yes", r.Headers().Get("X-Extra"))
	})
}
