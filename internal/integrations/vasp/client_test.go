package vasp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestClient_Fetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/TrackAndTrace/", r.URL.Path)
		require.Equal(t, "VX123456789PT", r.URL.Query().Get("term"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"service":{"serviceBarCode":"VX123456789PT"},"clientEvents":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/TrackAndTrace/?term=", time.Second)
	res, err := c.Fetch(context.Background(), "VX123456789PT")
	require.NoError(t, err)
	require.True(t, res.OK())
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, string(res.Body), "serviceBarCode")
}

func TestClient_Fetch_NonSuccessStatusIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(srv.URL+"/?term=", time.Second)
	res, err := c.Fetch(context.Background(), "CODE")
	require.NoError(t, err)
	require.False(t, res.OK())
	require.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/?term=", 20*time.Millisecond)
	_, err := c.Fetch(context.Background(), "CODE")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrTimeout), err.Error())
}

func TestClient_Fetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL + "/?term="
	srv.Close()

	c := New(base, time.Second)
	_, err := c.Fetch(context.Background(), "CODE")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrConnection), err.Error())
}

func TestClient_Fetch_BadURL(t *testing.T) {
	c := New("://bad", time.Second)
	_, err := c.Fetch(context.Background(), "CODE")
	require.True(t, errors.Is(err, ErrTransport))
}

func TestNew_Defaults(t *testing.T) {
	c := New("", 0)
	require.Equal(t, DefaultAPIBase+"ABC", c.URL(" ABC "))
	require.Equal(t, 10*time.Second, c.httpc.Timeout)
}
