// Package workspace implements the typed client for the remote record/block
// workspace API: record CRUD, paginated block-children access, two-phase
// file uploads, schema introspection, search, and collection queries.
//
// The client is stateless between calls; it holds no cursors or caches.
// Every operation takes a context and enforces two timeouts: a per-request
// header timeout that fails fast on a stalled connection, and a longer
// whole-resource timeout covering the full body transfer.
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/sketchsync/internal/common"
	"github.com/dmitrijs2005/sketchsync/internal/logging"
	"github.com/dmitrijs2005/sketchsync/internal/netx"
	"github.com/sethvargo/go-retry"
)

const (
	defaultRequestTimeout  = 15 * time.Second
	defaultResourceTimeout = 60 * time.Second

	defaultMaxRetries = 2
	defaultRetryBase  = 300 * time.Millisecond
)

// Client talks to one workspace endpoint with one access token.
type Client struct {
	baseURL *url.URL
	token   string

	httpc           *http.Client
	requestTimeout  time.Duration
	resourceTimeout time.Duration

	maxRetries uint64
	retryBase  time.Duration

	log logging.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger (default: discard).
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithTimeouts overrides the per-request and per-resource timeouts.
func WithTimeouts(request, resource time.Duration) Option {
	return func(c *Client) {
		c.requestTimeout = request
		c.resourceTimeout = resource
	}
}

// WithRetry overrides the retry policy for idempotent calls. max = 0
// disables retrying.
func WithRetry(max uint64, base time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBase = base
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. Timeout
// options are ignored when this is set. Intended for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// New validates the endpoint and token and builds a Client.
// A missing token yields common.ErrorNotConfigured; a missing or
// unparsable endpoint yields common.ErrorInvalidEndpoint.
func New(endpoint, token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, common.ErrorNotConfigured
	}
	if endpoint == "" {
		return nil, common.ErrorInvalidEndpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", common.ErrorInvalidEndpoint, endpoint)
	}

	c := &Client{
		baseURL:         u,
		token:           token,
		requestTimeout:  defaultRequestTimeout,
		resourceTimeout: defaultResourceTimeout,
		maxRetries:      defaultMaxRetries,
		retryBase:       defaultRetryBase,
		log:             logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(c)
	}

	if c.httpc == nil {
		c.httpc = &http.Client{
			Timeout: c.resourceTimeout,
			Transport: &http.Transport{
				ResponseHeaderTimeout: c.requestTimeout,
			},
		}
	}
	return c, nil
}

// Host returns the dialable "host:port" of the endpoint, for the
// connectivity probe.
func (c *Client) Host() string {
	return netx.DialAddr(c.baseURL)
}

// url builds an endpoint URL from path segments.
func (c *Client) url(parts ...string) *url.URL {
	return c.baseURL.JoinPath(parts...)
}

// doJSON performs one JSON round trip. Idempotent calls are retried on
// transport errors, 429, and 5xx according to the retry policy; mutating
// calls are attempted exactly once.
func (c *Client) doJSON(ctx context.Context, method string, u *url.URL, in, out any, idempotent bool) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	attempt := func(ctx context.Context) error {
		return c.roundTrip(ctx, method, u, "application/json", body, out, idempotent)
	}

	if !idempotent || c.maxRetries == 0 {
		return attempt(ctx)
	}
	b := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBase))
	return retry.Do(ctx, b, attempt)
}

func (c *Client) roundTrip(ctx context.Context, method string, u *url.URL, contentType string, body []byte, out any, idempotent bool) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		if idempotent && !errors.Is(err, context.Canceled) {
			return retry.RetryableError(err)
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		herr := newHTTPError(resp.StatusCode, data)
		if idempotent && herr.retryable() {
			return retry.RetryableError(herr)
		}
		return herr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
