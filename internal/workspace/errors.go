package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is a non-2xx response from the workspace API. Body keeps the
// raw response; Code is the machine-readable error code parsed out of it,
// when the body carries the standard {code, message} envelope.
type HTTPError struct {
	Status int
	Code   string
	Body   string
}

func newHTTPError(status int, body []byte) *HTTPError {
	e := &HTTPError{Status: status, Body: string(body)}

	var env struct {
		Code string `json:"code"`
	}
	if json.Unmarshal(body, &env) == nil {
		e.Code = env.Code
	}
	return e
}

func (e *HTTPError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if e.Code != "" {
		return fmt.Sprintf("workspace: status %d (%s): %s", e.Status, e.Code, body)
	}
	return fmt.Sprintf("workspace: status %d: %s", e.Status, body)
}

// PropertyNotFound reports whether the request named a property absent
// from the collection schema. The upsert step treats this as a warning
// for optional properties.
func (e *HTTPError) PropertyNotFound() bool {
	return e.Code == "property_not_found"
}

// NotFound reports whether the addressed resource is gone. The embed step
// uses it to detect that a stored block ID is no longer reachable.
func (e *HTTPError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

func (e *HTTPError) retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// IsNotFound reports whether err is an HTTPError for a missing resource.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.NotFound()
}

// IsPropertyNotFound reports whether err is an HTTPError for a property
// absent from the collection schema.
func IsPropertyNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.PropertyNotFound()
}
