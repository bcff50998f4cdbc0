package workspace

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/sketchsync/internal/common"
)

type createUploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// CreateUpload registers an upload placeholder and returns its ID. The
// returned upload reports UploadStatusPending until bytes are sent.
func (c *Client) CreateUpload(ctx context.Context, filename, contentType string) (*Upload, error) {
	in := createUploadRequest{Filename: filename, ContentType: contentType}

	var up Upload
	if err := c.doJSON(ctx, http.MethodPost, c.url("uploads"), in, &up, false); err != nil {
		return nil, err
	}
	if err := up.validate(); err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return &up, nil
}

// SendUpload transmits the file bytes for a placeholder created by
// CreateUpload. On success the upload reports UploadStatusUploaded.
func (c *Client) SendUpload(ctx context.Context, uploadID string, data []byte) (*Upload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "file")
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	u := c.url("uploads", uploadID, "send")

	var up Upload
	if err := c.roundTrip(ctx, http.MethodPost, u, w.FormDataContentType(), buf.Bytes(), &up, false); err != nil {
		return nil, err
	}
	if err := up.validate(); err != nil {
		return nil, fmt.Errorf("send upload: %w", err)
	}
	return &up, nil
}

// TwoPhaseUpload runs the full upload protocol: create a placeholder,
// verify it is pending, send the bytes, verify the uploaded state. Any
// unexpected status wraps common.ErrorUpload.
func (c *Client) TwoPhaseUpload(ctx context.Context, filename, contentType string, data []byte) (string, error) {
	up, err := c.CreateUpload(ctx, filename, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: create: %v", common.ErrorUpload, err)
	}
	if up.Status != UploadStatusPending {
		return "", fmt.Errorf("%w: expected status %q, got %q", common.ErrorUpload, UploadStatusPending, up.Status)
	}

	sent, err := c.SendUpload(ctx, up.ID, data)
	if err != nil {
		return "", fmt.Errorf("%w: send: %v", common.ErrorUpload, err)
	}
	if sent.Status != UploadStatusUploaded {
		return "", fmt.Errorf("%w: expected status %q, got %q", common.ErrorUpload, UploadStatusUploaded, sent.Status)
	}

	return up.ID, nil
}
