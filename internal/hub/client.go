package hub

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotAuthenticated is returned by calls that need a token when none is set.
var ErrNotAuthenticated = errors.New("not logged in")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the collections backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sets the bearer token sent on authenticated calls.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string { return c.baseURL }

// Token returns the current bearer token.
func (c *Client) Token() string { return c.token }

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) { c.token = token }

// Ping checks that the backend answers.
func (c *Client) Ping(ctx context.Context) error {
	var out struct {
		Message string `json:"message"`
	}
	return c.do(ctx, http.MethodGet, "/", false, nil, &out)
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, creds Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/register", false, creds)
}

// Login signs in by user or org name and keeps the returned token.
func (c *Client) Login(ctx context.Context, name, password string) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/login", false, Credentials{Name: name, Password: password})
}

// EditProfile changes name, org and, when set, password. The token is
// replaced by the fresh one.
func (c *Client) EditProfile(ctx context.Context, creds Credentials) (AuthResult, error) {
	return c.authenticate(ctx, "/api/auth/edit", true, creds)
}

func (c *Client) authenticate(ctx context.Context, path string, needsAuth bool, creds Credentials) (AuthResult, error) {
	var out AuthResult
	if err := c.do(ctx, http.MethodPost, path, needsAuth, creds, &out); err != nil {
		return AuthResult{}, err
	}
	c.token = out.Token
	return out, nil
}

// ListCollections returns the collections created by userID.
func (c *Client) ListCollections(ctx context.Context, userID string) ([]Collection, error) {
	var out struct {
		Collections []Collection `json:"collections"`
	}
	err := c.do(ctx, http.MethodGet, "/api/collections/user/"+url.PathEscape(userID), true, nil, &out)
	return out.Collections, err
}

// CreateCollection creates a collection owned by the caller.
func (c *Client) CreateCollection(ctx context.Context, name, description string) (Collection, error) {
	var out struct {
		Collection Collection `json:"collection"`
	}
	body := map[string]string{"name": name, "description": description}
	err := c.do(ctx, http.MethodPost, "/api/collections", true, body, &out)
	return out.Collection, err
}

// RenameCollection updates a collection's name and description.
func (c *Client) RenameCollection(ctx context.Context, id, name, description string) (Collection, error) {
	var out struct {
		Collection Collection `json:"collection"`
	}
	body := map[string]string{"name": name, "description": description}
	err := c.do(ctx, http.MethodPatch, "/api/collections/"+url.PathEscape(id), true, body, &out)
	return out.Collection, err
}

// DeleteCollection deletes a collection and its requests.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/collections/"+url.PathEscape(id), true, nil, nil)
}

// ListRequests returns the saved requests of a collection.
func (c *Client) ListRequests(ctx context.Context, collectionID string) ([]SavedRequest, error) {
	var out struct {
		Requests []SavedRequest `json:"requests"`
	}
	err := c.do(ctx, http.MethodGet, "/api/requests/collection/"+url.PathEscape(collectionID), true, nil, &out)
	return out.Requests, err
}

// GetRequest fetches one saved request.
func (c *Client) GetRequest(ctx context.Context, id string) (SavedRequest, error) {
	var out struct {
		Request SavedRequest `json:"request"`
	}
	err := c.do(ctx, http.MethodGet, "/api/requests/"+url.PathEscape(id), true, nil, &out)
	return out.Request, err
}

// CreateRequest saves r into r.Collection.
func (c *Client) CreateRequest(ctx context.Context, r SavedRequest) (SavedRequest, error) {
	var out struct {
		Request SavedRequest `json:"request"`
	}
	err := c.do(ctx, http.MethodPost, "/api/requests", true, r, &out)
	return out.Request, err
}

// UpdateRequest applies a partial update.
func (c *Client) UpdateRequest(ctx context.Context, id string, patch RequestPatch) (SavedRequest, error) {
	var out struct {
		Request SavedRequest `json:"request"`
	}
	err := c.do(ctx, http.MethodPatch, "/api/requests/"+url.PathEscape(id), true, patch, &out)
	return out.Request, err
}

// DeleteRequest removes a saved request.
func (c *Client) DeleteRequest(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/requests/"+url.PathEscape(id), true, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, needsAuth bool, in, out any) error {
	if needsAuth && c.token == "" {
		return ErrNotAuthenticated
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if needsAuth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
