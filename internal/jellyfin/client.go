// Package jellyfin is a minimal client for the slice of the Jellyfin
// REST API that tag management needs: listing users and libraries,
// paging items, listing tags, and pushing item metadata updates.
package jellyfin

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client is an authenticated client for one Jellyfin server.
type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

// New creates a Client for the given server base URL. The base is
// normalized so path building never doubles a slash.
func New(base, apiKey string) *Client {
	return &Client{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: defaultTimeout},
	}
}

// Base returns the normalized server base URL.
func (c *Client) Base() string { return c.base }

// do executes the request with the token header set.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("X-Emby-Token", c.apiKey)
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.http.Do(req)
}

// sendJSON sends a request with an optional JSON body and decodes the
// JSON response into out. Empty and non-JSON response bodies leave out
// untouched; some servers answer writes with 204 and no body.
func (c *Client) sendJSON(method, endpoint string, query url.Values, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(b)
	}
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.HasPrefix(ct, "application/json") {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// putWithFallback sends a PUT and retries as POST when the server rejects
// the method. Older Jellyfin and Emby builds answer item updates with 405
// or 501 unless POST is used.
func (c *Client) putWithFallback(endpoint string, body any) error {
	err := c.sendJSON(http.MethodPut, endpoint, nil, body, nil)
	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusMethodNotAllowed || se.Code == http.StatusNotImplemented) {
		return c.sendJSON(http.MethodPost, endpoint, nil, body, nil)
	}
	return err
}

// url builds an API URL from path segments.
func (c *Client) url(parts ...string) string {
	return c.base + "/" + strings.Join(parts, "/")
}

// checkStatus returns a StatusError for non-2xx responses, with any
// diagnostic detail the error body carried.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	reqURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		reqURL = resp.Request.URL.String()
	}
	return &StatusError{
		Code:   resp.StatusCode,
		Status: resp.Status,
		URL:    reqURL,
		Detail: extractErrorDetail(body),
	}
}
