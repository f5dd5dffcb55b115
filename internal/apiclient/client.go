// Package apiclient provides the HTTP request helper used by API test
// scenarios: JSON request/response handling, bearer-token authentication
// and transparent retries with backoff.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"testrig/internal/auth"
	"testrig/pkg/logging"
)

const subsystem = "APIClient"

// Options tunes the client's retry and timeout behavior. The zero value
// uses the defaults below.
type Options struct {
	Timeout      time.Duration
	RetryCount   int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

func (o Options) withDefaults() Options {
	if o.Timeout == 0 {
		o.Timeout = 30 * time.Second
	}
	if o.RetryCount == 0 {
		o.RetryCount = 3
	}
	if o.RetryWaitMin == 0 {
		o.RetryWaitMin = time.Second
	}
	if o.RetryWaitMax == 0 {
		o.RetryWaitMax = 8 * time.Second
	}
	return o
}

// Response is the decoded outcome of a request. Body holds the raw bytes;
// JSON decodes them on demand.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Elapsed    time.Duration
}

// JSON decodes the response body into a generic structure.
func (r *Response) JSON() (interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("response body is not valid JSON: %w", err)
	}
	return v, nil
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client issues API requests against a base URL.
type Client struct {
	baseURL string
	auth    *auth.Helper
	http    *retryablehttp.Client
}

// New creates a client for the given base URL. A nil auth helper means
// unauthenticated requests.
func New(baseURL string, authHelper *auth.Helper, opts Options) *Client {
	opts = opts.withDefaults()

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryCount
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = nil // request outcomes are logged once, below

	if authHelper == nil {
		authHelper = auth.New("")
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    authHelper,
		http:    rc,
	}
}

// SetAuth replaces the authentication helper.
func (c *Client) SetAuth(h *auth.Helper) *Client {
	c.auth = h
	return c
}

// buildURL joins an endpoint with the base URL. Absolute endpoints pass
// through untouched.
func (c *Client) buildURL(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func (c *Client) headers(custom map[string]string) (map[string]string, error) {
	headers := map[string]string{"Content-Type": "application/json"}
	authHeaders, err := c.auth.Headers()
	if err != nil {
		return nil, err
	}
	for k, v := range authHeaders {
		headers[k] = v
	}
	for k, v := range custom {
		headers[k] = v
	}
	return headers, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body interface{}, params url.Values, custom map[string]string) (*Response, error) {
	fullURL := c.buildURL(endpoint)
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(fullURL, "?") {
			sep = "&"
		}
		fullURL += sep + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	headers, err := c.headers(custom)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		logging.LogRequest(subsystem, method, fullURL, 0, elapsed)
		return nil, fmt.Errorf("request failed: %s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	logging.LogRequest(subsystem, method, fullURL, resp.StatusCode, elapsed)
	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
		Elapsed:    elapsed,
	}, nil
}

// Get issues a GET request with optional query parameters.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, endpoint, nil, params, headers)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body interface{}, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, endpoint, body, nil, headers)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body interface{}, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPut, endpoint, body, nil, headers)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body interface{}, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPatch, endpoint, body, nil, headers)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, endpoint, nil, nil, headers)
}
