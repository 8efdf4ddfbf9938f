package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrAuthExpired      = fmt.Errorf("session expired")
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limit exceeded")
	ErrPlaylistNotFound   = fmt.Errorf("playlist not found")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Input validation errors
	ErrEmptySelection  = fmt.Errorf("empty selection")
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")

	// Malformed optional response headers; logged, never propagated
	ErrHeaderParse = fmt.Errorf("malformed response header")
)
