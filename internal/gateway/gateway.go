// Package gateway is the HTTP client for the tagctl proxy. The TUI and
// CLI never talk to Jellyfin directly; every operation goes through the
// proxy's POST endpoints so catalog caching and endpoint fallback live
// in one place, whether the proxy is remote or auto-started in-process.
package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/blackwell-systems/tagctl/internal/dto"
)

// defaultTimeout must cover a full library walk on the proxy side, not
// just one upstream page.
const defaultTimeout = 2 * time.Minute

// APIError is a non-2xx proxy response.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "HTTP " + strconv.Itoa(e.Code)
}

// Client talks to one proxy instance. The auth block is attached to
// every request so the proxy can reach the Jellyfin server the client
// is working against.
type Client struct {
	base string
	auth dto.Auth
	http *http.Client
}

// New creates a Client for the proxy at base. The auth fields may be
// empty when the proxy carries its own server defaults.
func New(base string, auth dto.Auth) *Client {
	return &Client{
		base: strings.TrimRight(strings.TrimSpace(base), "/"),
		auth: auth,
		http: &http.Client{Timeout: defaultTimeout},
	}
}

// Base returns the proxy base URL.
func (c *Client) Base() string { return c.base }

// Health checks the proxy liveness endpoint. Used to wait out the
// startup of an auto-started loopback proxy.
func (c *Client) Health() error {
	resp, err := c.http.Get(c.base + "/api/health")
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}
	return nil
}

// Users lists the accounts known to the Jellyfin server.
func (c *Client) Users() ([]dto.User, error) {
	var users []dto.User
	if err := c.post("/api/users", dto.UsersRequest{Auth: c.auth}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Libraries lists the server's virtual folders.
func (c *Client) Libraries() ([]dto.Library, error) {
	var libraries []dto.Library
	if err := c.post("/api/libraries", dto.LibrariesRequest{Auth: c.auth}, &libraries); err != nil {
		return nil, err
	}
	return libraries, nil
}

// TagsResult is a tag catalog answer: either a ready catalog or a
// pending marker the caller should retry after.
type TagsResult struct {
	dto.TagsResponse
	Pending bool
	Message string
}

// Tags fetches the tag catalog for a library. A still-warming catalog
// comes back with Pending set rather than an error.
func (c *Client) Tags(userID, libraryID string, types []string) (*TagsResult, error) {
	req := dto.TagsRequest{Auth: c.auth, UserID: userID, LibraryID: libraryID, Types: types}
	resp, err := c.send("/api/tags", req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		var result TagsResult
		if err := json.NewDecoder(resp.Body).Decode(&result.TagsResponse); err != nil {
			return nil, fmt.Errorf("decoding tags response: %w", err)
		}
		return &result, nil
	case http.StatusAccepted:
		var pending dto.PendingResponse
		if err := json.NewDecoder(resp.Body).Decode(&pending); err != nil {
			return nil, fmt.Errorf("decoding pending response: %w", err)
		}
		return &TagsResult{Pending: true, Message: pending.Message}, nil
	default:
		return nil, responseError(resp)
	}
}

// TagStatus polls catalog refresh progress.
func (c *Client) TagStatus(userID, libraryID string, types []string) (*dto.TagStatusResponse, error) {
	req := dto.TagStatusRequest{Auth: c.auth, UserID: userID, LibraryID: libraryID, Types: types}
	var status dto.TagStatusResponse
	if err := c.post("/api/tags/status", req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Search runs one filtered item query.
func (c *Client) Search(req dto.SearchRequest) (*dto.SearchResponse, error) {
	req.Auth = c.auth
	var resp dto.SearchResponse
	if err := c.post("/api/items", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Apply pushes tag changes and returns the per-item outcomes.
func (c *Client) Apply(req dto.ApplyRequest) (*dto.ApplyResponse, error) {
	req.Auth = c.auth
	var resp dto.ApplyResponse
	if err := c.post("/api/apply", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Export runs the CSV export for a filter set and returns the document.
// Pagination fields in the request are ignored by the proxy.
func (c *Client) Export(req dto.SearchRequest) ([]byte, error) {
	req.Auth = c.auth
	resp, err := c.send("/api/export", req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}
	return io.ReadAll(resp.Body)
}

// send posts a JSON body and returns the raw response.
func (c *Client) send(path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.http.Do(req)
}

// post sends a request and decodes a 2xx JSON response into out.
func (c *Client) post(path string, body, out any) error {
	resp, err := c.send(path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return responseError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// responseError turns an error response into an APIError, favoring the
// proxy's own message when the body carries one.
func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var e dto.ErrorResponse
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return &APIError{Code: resp.StatusCode, Message: e.Error}
	}
	return &APIError{Code: resp.StatusCode, Message: strings.TrimSpace(string(body))}
}
