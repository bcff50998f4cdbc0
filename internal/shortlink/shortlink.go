// Package shortlink turns deep-link URIs into short shareable URLs via an
// external shortener service.
package shortlink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/common"
)

// Shortener produces a short URL for a URI. Callers treat errors as
// "use the original URI"; a nil Shortener means the same.
type Shortener interface {
	Shorten(ctx context.Context, uri string) (string, error)
}

// HTTP calls a shortener service that accepts POST {"url": ...} and
// responds {"short_url": ...}.
type HTTP struct {
	endpoint string
	httpc    *http.Client
}

// NewHTTP builds a shortener client for the given service endpoint.
func NewHTTP(endpoint string) (*HTTP, error) {
	if endpoint == "" {
		return nil, common.ErrorNotConfigured
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidEndpoint, endpoint)
	}

	return &HTTP{
		endpoint: endpoint,
		httpc:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type shortenRequest struct {
	URL string `json:"url"`
}

type shortenResponse struct {
	ShortURL string `json:"short_url"`
}

func (s *HTTP) Shorten(ctx context.Context, uri string) (string, error) {
	body, err := json.Marshal(shortenRequest{URL: uri})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("shortener returned status %d", resp.StatusCode)
	}

	var out shortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.ShortURL == "" {
		return "", fmt.Errorf("shortener returned empty url")
	}
	return out.ShortURL, nil
}
