package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/artpar/httphub/internal/core"
	"golang.org/x/net/publicsuffix"
)

// DefaultTimeout bounds a call when the caller's context has no deadline.
const DefaultTimeout = 60 * time.Second

// Client implements the Requester interface for HTTP protocol.
type Client struct {
	httpClient     *http.Client
	config         Config
	defaultHeaders map[string]string
}

// Config holds HTTP client configuration.
type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
}

// Option is a function that configures the Client.
type Option func(*Client)

// NewClient creates a new HTTP client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		config: Config{
			Timeout:        DefaultTimeout,
			FollowRedirect: true,
		},
		defaultHeaders: make(map[string]string),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Timeout = timeout
		c.httpClient.Timeout = timeout
	}
}

// WithTransport sets a custom round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.httpClient.Transport = transport
	}
}

// WithNoRedirects disables automatic redirect following.
func WithNoRedirects() Option {
	return func(c *Client) {
		c.config.FollowRedirect = false
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
}

// WithCookieJar keeps cookies between calls made through this client.
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithDefaultHeader adds a header to every request unless the request sets it.
func WithDefaultHeader(key, value string) Option {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// NewCookieJar returns an in-memory jar that honours public suffixes.
func NewCookieJar() (http.CookieJar, error) {
	return cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
}

// Timeout returns the client-wide timeout.
func (c *Client) Timeout() time.Duration {
	return c.config.Timeout
}

// Protocol returns the protocol identifier.
func (c *Client) Protocol() string {
	return "http"
}

// Send executes an HTTP request and returns the response. Transport failures
// come back as *core.TimeoutError or *core.NetworkError.
func (c *Client) Send(ctx context.Context, req *core.PreparedRequest) (*core.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	httpReq, err := c.toHTTPRequest(ctx, req)
	if err != nil {
		return nil, &core.InvalidURLError{URL: req.URL, Err: err}
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classifyError(ctx, err)
	}

	endTime := time.Now()

	return fromHTTPResponse(httpResp, bodyBytes, startTime, endTime), nil
}

// toHTTPRequest converts a prepared request to an http.Request.
func (c *Client) toHTTPRequest(ctx context.Context, req *core.PreparedRequest) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil && !req.Body.IsEmpty() {
		bodyReader = req.Body.Reader()
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}

	if req.Headers != nil {
		for _, key := range req.Headers.Keys() {
			httpReq.Header.Del(key)
			for _, value := range req.Headers.GetAll(key) {
				httpReq.Header.Add(key, value)
			}
		}
	}

	// The multipart boundary is only known to the body, so it always wins.
	if req.Body != nil && core.IsMultipart(req.Body) {
		httpReq.Header.Set("Content-Type", req.Body.ContentType())
	} else if req.Body != nil && req.Body.ContentType() != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", req.Body.ContentType())
	}

	return httpReq, nil
}

func fromHTTPResponse(httpResp *http.Response, bodyBytes []byte, startTime, endTime time.Time) *core.Response {
	statusText := strings.TrimSpace(httpResp.Status)
	if statusText == "" {
		statusText = strings.TrimSpace(fmt.Sprintf("%d %s", httpResp.StatusCode, http.StatusText(httpResp.StatusCode)))
	}

	var body core.Body
	if len(bodyBytes) > 0 {
		body = core.NewRawBody(bodyBytes, httpResp.Header.Get("Content-Type"))
	} else {
		body = core.NewEmptyBody()
	}

	timing := core.TimingInfo{
		StartTime: startTime,
		EndTime:   endTime,
		Total:     endTime.Sub(startTime),
	}

	return core.NewResponse(core.NewStatus(httpResp.StatusCode, statusText)).
		WithHeaders(core.HeadersFromHTTP(httpResp.Header)).
		WithBody(body).
		WithTiming(timing)
}

func classifyError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &core.TimeoutError{Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &core.TimeoutError{Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &core.NetworkError{Err: urlErr.Err}
	}
	return &core.NetworkError{Err: err}
}
