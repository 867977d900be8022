package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxErrorBody = 512

// TransientError is a call that never got an answer: dial failure, timeout, broken transport
type TransientError struct {
	Target string
	Err    error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s unreachable: %v", e.Target, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func (e *TransientError) Transient() bool {
	return true
}

// RejectionError is an answer from a reachable service with a status outside 2xx/3xx
type RejectionError struct {
	Target     string
	StatusCode int
	Body       string
}

func (e *RejectionError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s responded %d", e.Target, e.StatusCode)
	}
	return fmt.Sprintf("%s responded %d: %s", e.Target, e.StatusCode, e.Body)
}

func (e *RejectionError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsClientError reports a 4xx answer
func (e *RejectionError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// HTTPCaller sends JSON requests to one downstream service
type HTTPCaller struct {
	target  string
	baseURL string
	client  *http.Client
}

// NewHTTPCaller creates a caller for target rooted at baseURL. Per-call
// deadlines come from the context; the client itself has no timeout.
func NewHTTPCaller(target, baseURL string, transport http.RoundTripper) *HTTPCaller {
	if transport == nil {
		transport = http.DefaultTransport
	}

	return &HTTPCaller{
		target:  target,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Transport: otelhttp.NewTransport(transport)},
	}
}

// Target returns the breaker target name of the downstream service
func (c *HTTPCaller) Target() string {
	return c.target
}

// Call sends body (if any) as JSON and decodes the answer into out (if any)
func (c *HTTPCaller) Call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "failed to encode %s request", c.target)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrapf(err, "failed to build %s request", c.target)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransientError{Target: c.target, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RejectionError{
			Target:     c.target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return &TransientError{Target: c.target, Err: err}
		}
		return errors.Wrapf(err, "failed to decode %s response", c.target)
	}

	return nil
}
