package httputils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Contains(t, r.Header.Get("User-Agent"), "chatgw/")

		var in map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		json.NewEncoder(w).Encode(map[string]string{"echo": in["q"]})
	}))
	defer srv.Close()

	var out map[string]string
	headers := http.Header{"Authorization": []string{"Bearer k"}}
	err := PostJSON(context.Background(), srv.Client(), srv.URL, headers, map[string]string{"q": "hi"}, &out)
	require.NoError(t, err)
	assert.Equal(t, "hi", out["echo"])
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"detail":"short and stout"}`))
	}))
	defer srv.Close()

	err := GetJSON(context.Background(), nil, srv.URL, nil, nil)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTeapot, se.StatusCode)
	assert.JSONEq(t, `{"detail":"short and stout"}`, string(se.Body))
	assert.Equal(t, "bad status: 418", err.Error())
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusUnauthorized, "Invalid API key")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"detail":"Invalid API key"}`, rr.Body.String())

	rr = httptest.NewRecorder()
	WriteError(rr, http.StatusUnprocessableEntity, []map[string]string{{"msg": "Field required"}})
	assert.JSONEq(t, `{"detail":[{"msg":"Field required"}]}`, rr.Body.String())
}
