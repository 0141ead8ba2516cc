package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryInt(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"/api/listings", 100},
		{"/api/listings?limit=25", 25},
		{"/api/listings?limit=0", 0},
		{"/api/listings?limit=-5", 100},
		{"/api/listings?limit=abc", 100},
	}

	for _, tc := range cases {
		req := httptest.NewRequest("GET", tc.url, nil)
		assert.Equal(t, tc.want, queryInt(req, "limit", 100), tc.url)
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 404, map[string]string{"error": "listing not found"})

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"listing not found"}`, rec.Body.String())
}

func TestGracefulShutdown_DrainsInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	release := make(chan struct{})
	srv := &http.Server{Handler: http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	})}
	go srv.Serve(ln) //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	shutdownDone := make(chan struct{})
	go func() {
		gracefulShutdown(ctx, srv, 5*time.Second)
		close(shutdownDone)
	}()

	type response struct {
		status int
		err    error
	}
	got := make(chan response, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			got <- response{err: err}
			return
		}
		resp.Body.Close()
		got <- response{status: resp.StatusCode}
	}()

	// Let the request reach the handler, then trigger shutdown while it
	// is still in flight.
	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(release)

	res := <-got
	require.NoError(t, res.err)
	assert.Equal(t, http.StatusOK, res.status)

	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not finish")
	}
}
