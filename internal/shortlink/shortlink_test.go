package shortlink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sketchsync/internal/common"
)

func TestNewHTTP_Validation(t *testing.T) {
	_, err := NewHTTP("")
	require.ErrorIs(t, err, common.ErrorNotConfigured)

	_, err = NewHTTP("not a url")
	require.ErrorIs(t, err, common.ErrorInvalidEndpoint)
}

func TestShorten(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var in shortenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, "sketchsync://open?id=d1", in.URL)

		json.NewEncoder(w).Encode(shortenResponse{ShortURL: "https://sk.io/abc"})
	}))
	defer srv.Close()

	s, err := NewHTTP(srv.URL)
	require.NoError(t, err)

	short, err := s.Shorten(context.Background(), "sketchsync://open?id=d1")
	require.NoError(t, err)
	assert.Equal(t, "https://sk.io/abc", short)
}

func TestShorten_ServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-200 status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"empty short url", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(shortenResponse{})
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			s, err := NewHTTP(srv.URL)
			require.NoError(t, err)

			_, err = s.Shorten(context.Background(), "sketchsync://open?id=x")
			require.Error(t, err)
		})
	}
}
