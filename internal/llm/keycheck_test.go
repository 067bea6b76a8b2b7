package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyValidator_Valid(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models", r.URL.Path)
		assert.Equal(t, "good-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"models":[]}`))
	}))
	defer ts.Close()

	err := NewKeyValidator(ts.URL).Validate(context.Background(), "good-key")
	assert.NoError(t, err)
}

func TestKeyValidator_Rejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"API key not valid. Please pass a valid API key."}}`))
	}))
	defer ts.Close()

	err := NewKeyValidator(ts.URL).Validate(context.Background(), "bad-key")
	require.Error(t, err)
	assert.Equal(t, "API key not valid. Please pass a valid API key.", err.Error())
}

func TestKeyValidator_RejectedWithoutMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	err := NewKeyValidator(ts.URL).Validate(context.Background(), "bad-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestKeyValidator_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := NewKeyValidator(ts.URL).Validate(context.Background(), "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected response")
}

func TestKeyValidator_EmptyKey(t *testing.T) {
	err := NewKeyValidator("http://127.0.0.1:1").Validate(context.Background(), "")
	assert.EqualError(t, err, "API key is required")
}
