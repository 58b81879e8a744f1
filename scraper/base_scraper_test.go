package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantErr    bool
	}{
		{name: "ok", status: http.StatusOK, body: "<html>ok</html>"},
		{name: "no content", status: http.StatusNoContent},
		{name: "not found", status: http.StatusNotFound, body: "nope", wantErr: true, wantStatus: http.StatusNotFound},
		{name: "server error", status: http.StatusBadGateway, wantErr: true, wantStatus: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, DefaultAccept, r.Header.Get("Accept"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewBaseScraper(newTestLogger(), srv.URL, nil, time.Second)
			body, err := s.Fetch(context.Background())
			if tt.wantErr {
				var netErr *NetworkError
				require.ErrorAs(t, err, &netErr)
				assert.Equal(t, tt.wantStatus, netErr.StatusCode)
				assert.Equal(t, srv.URL, netErr.URL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	s := NewBaseScraper(newTestLogger(), srv.URL, nil, 50*time.Millisecond)
	_, err := s.Fetch(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.Zero(t, netErr.StatusCode)
}

func TestFetch_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewBaseScraper(newTestLogger(), url, nil, time.Second)
	_, err := s.Fetch(context.Background())

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.NotNil(t, errors.Unwrap(netErr))
}

func TestFetch_BodyIsCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	s := NewBaseScraper(newTestLogger(), srv.URL, nil, time.Second)
	s.MaxBytes = 4
	body, err := s.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "0123", body)
}
