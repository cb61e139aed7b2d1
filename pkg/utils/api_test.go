package utils

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIGetRetriesTransportFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"name":"ok"}`))
	}))
	defer server.Close()

	api := NewAPI(server.URL)
	var out struct {
		Name string `json:"name"`
	}
	err := api.Get(context.Background(), "/thing", url.Values{"limit": {"10"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
	assert.Equal(t, int32(3), hits.Load())
}

func TestAPIGetGivesUpAfterRetries(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	api := NewAPI(server.URL, WithRetries(2))
	err := api.Get(context.Background(), "/missing", nil, &struct{}{})

	var terr *TransportError
	require.True(t, errors.As(err, &terr), "expected TransportError, got %v", err)
	assert.Equal(t, http.StatusNotFound, terr.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestAPIGetDoesNotRetryMalformedBody(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	api := NewAPI(server.URL)
	err := api.Get(context.Background(), "/", nil, &struct{}{})
	assert.ErrorIs(t, err, ErrMalformedResponse)
	assert.Equal(t, int32(1), hits.Load())
}

func TestAPIGetRetriesTruncatedBody(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.Header().Set("Content-Length", "500")
			w.Write([]byte(`{"name":"cut sh`))
			return
		}
		w.Write([]byte(`{"name":"whole"}`))
	}))
	defer server.Close()

	api := NewAPI(server.URL)
	var out struct {
		Name string `json:"name"`
	}
	err := api.Get(context.Background(), "/thing", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "whole", out.Name)
	assert.Equal(t, int32(2), hits.Load())
}

func TestAPIGetTruncatedEveryTimeIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "500")
		w.Write([]byte(`{"name":`))
	}))
	defer server.Close()

	err := NewAPI(server.URL, WithRetries(2)).Get(context.Background(), "/", nil, &struct{}{})

	var terr *TransportError
	require.True(t, errors.As(err, &terr), "expected TransportError, got %v", err)
	assert.False(t, errors.Is(err, ErrMalformedResponse))
}

func TestAPIGetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<title>hello</title>"))
	}))
	defer server.Close()

	text, err := NewAPI("", WithUserAgent("test-agent")).GetText(context.Background(), server.URL+"/comic/x")
	require.NoError(t, err)
	assert.Equal(t, "<title>hello</title>", text)
}

func TestAPIOpenSingleAttempt(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("bytes"))
	}))
	defer server.Close()

	api := NewAPI(server.URL)
	_, err := api.Open(context.Background(), server.URL+"/img.jpg")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())

	body, err := api.Open(context.Background(), server.URL+"/img.jpg")
	require.NoError(t, err)
	defer body.Close()
	raw, _ := io.ReadAll(body)
	assert.Equal(t, "bytes", string(raw))
}

func TestAPIGetStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewAPI("http://127.0.0.1:1").Get(ctx, "/", nil, &struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
}
