package serverstatus

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFetchedOnce(t *testing.T) {
	var fetches int32
	r := chi.NewRouter()
	r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&fetches, 1)
		render.JSON(w, req, Status{EmailConfigured: true})
	})
	server := httptest.NewServer(r)
	defer server.Close()

	client := NewClient(server.URL)

	for i := 0; i < 3; i++ {
		status, err := client.Status(context.Background())
		require.NoError(t, err)
		assert.True(t, status.EmailConfigured)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&fetches))
}

func TestStatusFailureIsNotCached(t *testing.T) {
	var fetches int32
	r := chi.NewRouter()
	r.Get("/api/status", func(w http.ResponseWriter, req *http.Request) {
		if atomic.AddInt32(&fetches, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		render.JSON(w, req, Status{EmailConfigured: true})
	})
	server := httptest.NewServer(r)
	defer server.Close()

	client := NewClient(server.URL)

	status, err := client.Status(context.Background())
	require.Error(t, err)
	assert.False(t, status.EmailConfigured, "zero status on failure")

	status, err = client.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, status.EmailConfigured)
}
