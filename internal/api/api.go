// Raw HTTP plumbing for the collector backend
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
)

// defaultBaseURL points at the local dev server. Any non-local deployment
// must configure the base URL explicitly.
const defaultBaseURL = "http://127.0.0.1:3001"

// Client provides typed access to the collector backend REST surface.
//
// The supplied [http.Client] is expected to carry an [auth.Transport] so
// every request attaches the bearer credential when one is valid and every
// 401 invalidates it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a backend client. baseURL defaults to the local dev
// server and client to [http.DefaultClient].
func NewClient(baseURL string, client *http.Client, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: client,
		logger:     logger,
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Origin returns the backend origin (scheme://host) used for validating
// login completion messages.
func (c *Client) Origin() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	return u.Scheme + "://" + u.Host
}

// LoginURL returns the URL that begins the backend OAuth flow, carrying the
// CSRF state and local callback address.
func (c *Client) LoginURL(state, redirectURI string) string {
	v := url.Values{}
	if state != "" {
		v.Set("state", state)
	}
	if redirectURI != "" {
		v.Set("redirect_uri", redirectURI)
	}
	if len(v) == 0 {
		return c.baseURL + "/auth"
	}
	return c.baseURL + "/auth?" + v.Encode()
}

// Response represents a raw backend response with status and body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (c *Client) Get(ctx context.Context, path string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req)
}

// Post performs a POST request with the given JSON body and returns the raw response.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// getJSON performs a GET and decodes a successful JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := c.classify(resp); err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// postJSON performs a POST of in and decodes a successful JSON response
// into out, which may be nil.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.Post(ctx, path, data)
	if err != nil {
		return err
	}
	if err := c.classify(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
