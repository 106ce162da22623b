package blob

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garageflow/internal/core/id"
)

func TestUpload_PutsUnderGarage(t *testing.T) {
	garageID := id.New()
	var gotPath, gotAuth, gotType, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		gotPath = r.URL.EscapedPath()
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewHTTPStore(Config{BaseURL: srv.URL + "/", Token: "secret"})
	url, err := store.Upload(context.Background(), garageID, "repair-orders/42/01-front left.jpg", "image/jpeg", strings.NewReader("jpeg"))

	require.NoError(t, err)
	assert.Equal(t, "/"+garageID.String()+"/repair-orders/42/01-front%20left.jpg", gotPath)
	assert.Equal(t, srv.URL+gotPath, url)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "image/jpeg", gotType)
	assert.Equal(t, "jpeg", gotBody)
}

func TestUpload_UsesLocationHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://cdn.example/abc.jpg")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	url, err := NewHTTPStore(Config{BaseURL: srv.URL}).Upload(context.Background(), id.New(), "a.jpg", "", strings.NewReader("x"))

	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/abc.jpg", url)
}

func TestUpload_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(b))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewHTTPStore(Config{BaseURL: srv.URL, RetryMax: 3})
	store.client.RetryWaitMin = time.Millisecond
	store.client.RetryWaitMax = time.Millisecond

	_, err := store.Upload(context.Background(), id.New(), "a.jpg", "image/jpeg", strings.NewReader("payload"))

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestUpload_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewHTTPStore(Config{BaseURL: srv.URL}).Upload(context.Background(), id.New(), "a.jpg", "", strings.NewReader("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestUpload_NoBaseURL(t *testing.T) {
	_, err := NewHTTPStore(Config{}).Upload(context.Background(), id.New(), "a.jpg", "", strings.NewReader("x"))
	assert.Error(t, err)
}
