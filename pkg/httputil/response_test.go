package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseJSON(t *testing.T) {
	// null status ok
	handler := func(w http.ResponseWriter, r *http.Request) {
		ResponseJSON(nil, http.StatusOK, w)
	}
	req := httptest.NewRequest("GET", "http://example.com/foo", nil)
	w := httptest.NewRecorder()
	handler(w, req)
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, []byte("null"), body)
	assert.Equal(t, http.Header{"Content-Type": []string{"application/json"}}, w.Header())
	assert.Equal(t, 200, w.Code)

	// interface status 500
	handler = func(w http.ResponseWriter, r *http.Request) {
		ResponseError("Not OK", http.StatusInternalServerError, w)
	}
	w = httptest.NewRecorder()
	handler(w, req)
	resp = w.Result()
	body, _ = io.ReadAll(resp.Body)

	assert.Equal(t, []byte(`{"message":"Not OK"}`), body)
	assert.Equal(t, 500, w.Code)

	// unmarshalable payload
	w = httptest.NewRecorder()
	err := ResponseJSON(make(chan int), http.StatusOK, w)
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestDoJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/echo":
			assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var payload map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			ResponseJSON(payload, http.StatusOK, w)
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "no such thing", http.StatusNotFound)
		}
	}))
	defer server.Close()

	ctx := context.Background()
	header := http.Header{"Authorization": {"Bearer abc"}}

	var out map[string]string
	err := DoJSON(ctx, server.Client(), http.MethodPost, server.URL+"/echo", header, map[string]string{"pipeline": "check"}, &out)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"pipeline": "check"}, out)

	assert.NoError(t, DoJSON(ctx, server.Client(), http.MethodDelete, server.URL+"/empty", nil, nil, nil))

	err = DoJSON(ctx, server.Client(), http.MethodGet, server.URL+"/missing", nil, nil, &out)
	var statusErr HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, "no such thing", statusErr.Message)
}

func TestPostJSONWithRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var attempts []int
	err := PostJSONWithRetry(context.Background(), server.Client(), server.URL, map[string]string{"title": "x"}, 3, 0, func(attempt, max int, err error) {
		attempts = append(attempts, attempt)
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{1, 2}, attempts)
}

func TestPostJSONWithRetry_GivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := PostJSONWithRetry(context.Background(), server.Client(), server.URL, nil, 2, 0, nil)
	assert.Equal(t, HTTPStatusError{StatusCode: http.StatusServiceUnavailable}, err)
}

func TestDecodeJSON(t *testing.T) {
	var target struct {
		Name string `json:"name"`
	}
	require.NoError(t, DecodeJSON(strings.NewReader(`{"name":"a"}`), &target))
	assert.Equal(t, "a", target.Name)
	assert.Error(t, DecodeJSON(strings.NewReader(`{"name":"a","extra":1}`), &target))
}
