package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Feedbook-Test/1.0", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept"))
		w.Write([]byte(plainFeedDoc))
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "Feedbook-Test/1.0")
	body, err := f.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, plainFeedDoc, string(body))
}

func TestFetcher_FetchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(5*time.Second, "Feedbook-Test/1.0")

	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	// unreachable host
	_, err = f.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
}

func TestFetcher_FetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	f := NewFetcher(50*time.Millisecond, "Feedbook-Test/1.0")
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
}
