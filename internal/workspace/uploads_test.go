package workspace

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sketchsync/internal/common"
)

func TestTwoPhaseUpload(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a}

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/uploads":
			var in createUploadRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "drawing.png", in.Filename)
			assert.Equal(t, "image/png", in.ContentType)
			writeJSON(t, w, http.StatusOK, Upload{ID: "up-1", Status: UploadStatusPending})

		case "/uploads/up-1/send":
			require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
			require.NoError(t, r.ParseMultipartForm(1<<20))
			f, _, err := r.FormFile("file")
			require.NoError(t, err)
			defer f.Close()
			sent, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, payload, sent)
			writeJSON(t, w, http.StatusOK, Upload{ID: "up-1", Status: UploadStatusUploaded})

		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	id, err := c.TwoPhaseUpload(context.Background(), "drawing.png", "image/png", payload)
	require.NoError(t, err)
	assert.Equal(t, "up-1", id)
}

func TestTwoPhaseUpload_NotPending(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, Upload{ID: "up-1", Status: "failed"})
	}))

	_, err := c.TwoPhaseUpload(context.Background(), "a.png", "image/png", []byte{1})
	require.ErrorIs(t, err, common.ErrorUpload)
	assert.Contains(t, err.Error(), "pending")
}

func TestTwoPhaseUpload_NotUploadedAfterSend(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := UploadStatusPending
		if strings.HasSuffix(r.URL.Path, "/send") {
			status = "expired"
		}
		writeJSON(t, w, http.StatusOK, Upload{ID: "up-1", Status: status})
	}))

	_, err := c.TwoPhaseUpload(context.Background(), "a.png", "image/png", []byte{1})
	require.ErrorIs(t, err, common.ErrorUpload)
	assert.Contains(t, err.Error(), "expired")
}

func TestTwoPhaseUpload_CreateFails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]string{"code": "restricted", "message": "no uploads"})
	}))

	_, err := c.TwoPhaseUpload(context.Background(), "a.png", "image/png", []byte{1})
	require.ErrorIs(t, err, common.ErrorUpload)
}
