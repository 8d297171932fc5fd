package index

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPIndex_Metadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/packages/numpy", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "rvn/1.0", r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "name": "numpy",
  "releases": {
    "1.18.1": {"version": "1.18.1", "checksum": "abc123"}
  }
}`))
	}))
	defer server.Close()

	idx := NewHTTPIndex(server.URL, "test-key")

	meta, err := idx.Metadata(context.Background(), "numpy")
	require.NoError(t, err)
	assert.Equal(t, "numpy", meta.Name)
	assert.Equal(t, "abc123", meta.Releases["1.18.1"].Checksum)
}

func TestHTTPIndex_MetadataNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	idx := NewHTTPIndex(server.URL, "")

	_, err := idx.Metadata(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in index")
}

func TestHTTPIndex_MetadataServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer server.Close()

	idx := NewHTTPIndex(server.URL, "")

	_, err := idx.Metadata(context.Background(), "numpy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestHTTPIndex_MetadataNoAuthHeaderWithoutKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"name": "numpy", "releases": {}}`))
	}))
	defer server.Close()

	idx := NewHTTPIndex(server.URL, "")

	_, err := idx.Metadata(context.Background(), "numpy")
	require.NoError(t, err)
}

func TestHTTPIndex_Download(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/packages/numpy/1.18.1/download", r.URL.Path)
		_, _ = w.Write([]byte("payload bytes"))
	}))
	defer server.Close()

	idx := NewHTTPIndex(server.URL, "")

	data, err := idx.Download(context.Background(), "numpy", "1.18.1")
	require.NoError(t, err)
	assert.Equal(t, "payload bytes", string(data))
}

func TestHTTPIndex_DownloadNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	idx := NewHTTPIndex(server.URL, "")

	_, err := idx.Download(context.Background(), "numpy", "9.9.9")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no release")
}

func TestHTTPIndex_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	idx := NewHTTPIndex(server.URL, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Metadata(ctx, "numpy")
	assert.Error(t, err)
}
