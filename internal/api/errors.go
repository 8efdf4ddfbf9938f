package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ewhitmore/spotcollect/internal/shared"
)

// APIError is a non-2xx backend response translated into the error
// taxonomy. It unwraps to the matching sentinel so call sites can branch
// with [errors.Is].
type APIError struct {
	Status    int
	Message   string
	ResetTime string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.ResetTime != "" {
		return fmt.Sprintf("%s (status %d): %s. %s", e.Unwrap(), e.Status, msg, e.ResetTime)
	}
	return fmt.Sprintf("%s (status %d): %s", e.Unwrap(), e.Status, msg)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return shared.ErrAuthExpired
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusNotFound:
		return shared.ErrPlaylistNotFound
	default:
		return shared.ErrAPIRequest
	}
}

// errorBody is the backend's error response convention.
type errorBody struct {
	Error     string `json:"error"`
	ResetTime string `json:"resetTime,omitempty"`
}

// classify translates a raw response into an *APIError, or nil for 2xx.
func (c *Client) classify(resp *Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err == nil {
		apiErr.Message = body.Error
		apiErr.ResetTime = body.ResetTime
	}

	if c.logger != nil {
		c.logger.Debug("backend error", "status", resp.StatusCode, "message", apiErr.Message)
	}
	return apiErr
}
