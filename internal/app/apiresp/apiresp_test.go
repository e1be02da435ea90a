package apiresp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorHint(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteErrorHint(rr, req, http.StatusRequestEntityTooLarge, "too big", "shrink it")

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	var env Envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.False(t, env.OK)
	require.NotNil(t, env.Error)
	assert.Equal(t, "payload_too_large", env.Error.Code)
	assert.Equal(t, "too big", env.Error.Message)
	assert.Equal(t, "shrink it", env.Error.Hint)
}

func TestWriteOKMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	WriteOKMessage(rr, req, http.StatusCreated, map[string]int{"n": 2}, "done")

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"ok":true,"data":{"n":2},"message":"done","meta":{}}`, rr.Body.String())
}

func TestWriteErrorDefaultsMessage(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound, "")
	assert.Contains(t, rr.Body.String(), `"message":"Not Found"`)
	assert.Contains(t, rr.Body.String(), `"code":"not_found"`)
}
